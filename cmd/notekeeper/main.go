package main

import (
	"os"

	"github.com/lazypower/notekeeper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
