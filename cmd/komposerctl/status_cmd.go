package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/registry"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show file registry counts per workspace root",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		reg, err := registry.New(cfg.Workspace.Roots())
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		reg = reg.WithSnapshot(snapshotPath(cfg))
		if err := reg.Load(); err != nil {
			return fmt.Errorf("load registry snapshot: %w", err)
		}

		entries := reg.List(registry.Filter{})
		counts := make(map[registry.Kind]int)
		for _, e := range entries {
			counts[e.Kind]++
		}

		fmt.Printf("workspace: %s\n", cfg.Workspace.Source)
		fmt.Printf("registered files: %d\n", len(entries))
		for kind, n := range counts {
			fmt.Printf("  %-8s %d\n", kind, n)
		}
		fmt.Printf("cleanup policy: %s\n", cfg.CleanupPolicy)
		fmt.Printf("default process deadline: %s\n", cfg.DefaultProcessDeadline)
		return nil
	},
}

func snapshotPath(cfg config.Config) string {
	return cfg.Workspace.Metadata + "/registry_snapshot.json"
}
