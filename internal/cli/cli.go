// Package cli provides the command-line interface for DivGo
package cli

import (
	"os"
	"time"
)

const version = "v1.0.0"

var timeNow = time.Now

// Run starts the CLI application
func Run() {
	rootCmd := NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
