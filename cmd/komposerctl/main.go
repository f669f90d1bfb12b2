package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "komposerctl",
	Short: "Diagnostic CLI for the komposer orchestration kernel",
	Long:  "komposerctl inspects the workspace a komposerd instance operates on: the file registry, the host's zombie media processes, and a komposition document's compiled build plan.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
