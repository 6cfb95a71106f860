// Command govault encrypts and decrypts files with a key derived from a password.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/govault/internal/commands"
	"github.com/idelchi/govault/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "unknown - unofficial & generated by unknown" //nolint:gochecknoglobals

func main() {
	cfg := &config.Config{}

	if err := commands.NewRootCommand(cfg, version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
