package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/notekeeper/internal/merge"
	"github.com/lazypower/notekeeper/internal/regen"
	"github.com/lazypower/notekeeper/internal/store"
	"github.com/lazypower/notekeeper/internal/vault"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownOnce     sync.Once
	markdownRenderer goldmark.Markdown
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownRenderer = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownRenderer
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Existing string  `json:"existing"`
		Fresh    string  `json:"fresh"`
		Folder   *string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	folder := s.folder
	if req.Folder != nil {
		folder = *req.Folder
	}

	result := merge.PreserveWithOptions(req.Existing, req.Fresh, folder, s.options)

	if r.URL.Query().Get("format") != "html" {
		writeJSON(w, http.StatusOK, result)
		return
	}

	body := merge.ParseFrontmatter(result.Content).Body(result.Content)
	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(body), &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"html":   buf.String(),
		"result": result,
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if s.regen == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "vault not configured"})
		return
	}

	var req struct {
		Path  string  `json:"path"`
		Fresh *string `json:"fresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Path == "" || req.Fresh == nil {
		http.Error(w, `{"error":"path and fresh required"}`, http.StatusBadRequest)
		return
	}

	out, err := s.regen.Regenerate(r.Context(), req.Path, *req.Fresh)
	if errors.Is(err, vault.ErrPathEscape) || errors.Is(err, vault.ErrNotNote) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.db.ListNotes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if notes == nil {
		notes = []store.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.db.ListRuns(r.URL.Query().Get("path"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []store.MergeRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(chi.URLParam(r, "runID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	content, info, err := s.db.GetSnapshot(chi.URLParam(r, "runID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": info,
		"content":  content,
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if s.regen == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "vault not configured"})
		return
	}

	out, err := s.regen.Restore(r.Context(), chi.URLParam(r, "runID"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, regen.ErrNoSnapshot):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}
