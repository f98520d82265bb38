package merge

import (
	"bytes"
	"log"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Value is a frontmatter field value: a scalar string or an ordered list of
// strings. Values decoded from YAML keep their original node so that types,
// quoting and nested structures survive a round trip untouched.
type Value struct {
	Scalar string
	List   []string
	IsList bool

	node *yaml.Node
}

// ScalarValue builds a string-valued field.
func ScalarValue(s string) Value {
	return Value{Scalar: s}
}

// ListValue builds a list-valued field.
func ListValue(items ...string) Value {
	return Value{List: append([]string(nil), items...), IsList: true}
}

// Strings returns the value as a list. A non-empty scalar becomes a single
// element list so that `tags: foo` and `tags: [foo]` merge the same way.
func (v Value) Strings() []string {
	if v.IsList {
		return v.List
	}
	if v.Scalar != "" {
		return []string{v.Scalar}
	}
	return nil
}

func (v Value) yamlNode() *yaml.Node {
	if v.IsList {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.List {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: item})
		}
		return seq
	}
	if v.node != nil {
		return v.node
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Scalar}
}

// Fields is an insertion-ordered map of frontmatter keys to values.
// The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]Value
}

// NewFields returns an empty field map.
func NewFields() *Fields {
	return &Fields{values: make(map[string]Value)}
}

// Set stores a value, appending the key if it is new and keeping its
// position otherwise.
func (f *Fields) Set(key string, v Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Has reports whether key is present.
func (f *Fields) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// ParsedFrontmatter is the result of splitting a note into its leading YAML
// block and body. BodyStart is the byte offset where the body begins; it is 0
// when the text has no frontmatter.
type ParsedFrontmatter struct {
	Raw       string
	Fields    *Fields
	BodyStart int
}

// Body returns the part of text after the frontmatter block.
func (p ParsedFrontmatter) Body(text string) string {
	if p.BodyStart <= 0 || p.BodyStart > len(text) {
		return text
	}
	return text[p.BodyStart:]
}

// ParseFrontmatter splits a leading `---` fenced YAML mapping off text.
// Broken YAML is logged and yields empty fields, but BodyStart still points
// past the closing fence so the body is never mistaken for metadata.
func ParseFrontmatter(text string) ParsedFrontmatter {
	empty := ParsedFrontmatter{Fields: NewFields()}
	if !strings.HasPrefix(text, fence) {
		return empty
	}
	end := strings.Index(text[len(fence):], "\n"+fence)
	if end < 0 {
		return empty
	}
	end += len(fence)

	// The body starts on the line after the closing fence.
	bodyStart := end + 1 + len(fence)
	if nl := strings.IndexByte(text[bodyStart:], '\n'); nl >= 0 {
		bodyStart += nl + 1
	} else {
		bodyStart = len(text)
	}

	raw := strings.TrimLeft(text[len(fence):end], "\r\n")
	parsed := ParsedFrontmatter{Raw: raw, Fields: NewFields(), BodyStart: bodyStart}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		log.Printf("frontmatter: invalid yaml, ignoring fields: %v", err)
		return parsed
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return parsed
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		log.Printf("frontmatter: expected a mapping, got yaml kind %d", mapping.Kind)
		return parsed
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if parsed.Fields.Has(key) {
			continue
		}
		parsed.Fields.Set(key, valueFromNode(mapping.Content[i+1]))
	}
	return parsed
}

func valueFromNode(n *yaml.Node) Value {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return Value{Scalar: n.Value, node: n}
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return Value{node: n}
			}
			items = append(items, c.Value)
		}
		return Value{List: items, IsList: true, node: n}
	default:
		return Value{node: n}
	}
}

// SerializeFrontmatter renders fields as a `---` fenced YAML block ending in a
// newline. Lists render as a bulleted sub-list under their key. Empty fields
// render as the empty string so that notes without metadata get no fences.
func SerializeFrontmatter(f *Fields) string {
	if f.Len() == 0 {
		return ""
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range f.keys {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			f.values[key].yamlNode(),
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		log.Printf("frontmatter: encode: %v", err)
		return ""
	}
	if err := enc.Close(); err != nil {
		log.Printf("frontmatter: encode: %v", err)
		return ""
	}
	return fence + "\n" + buf.String() + fence + "\n"
}
