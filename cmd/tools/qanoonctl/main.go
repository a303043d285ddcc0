package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/qanoonbuddy/backend/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
