package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/komposition"
	"github.com/komposer-mcp/komposer/internal/registry"
)

func init() {
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <komposition.json>",
	Short: "Validate and compile a komposition document into a build plan, without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read komposition document: %w", err)
		}

		var doc komposition.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode komposition document: %w", err)
		}

		cfg := config.Load()
		reg, err := registry.New(cfg.Workspace.Roots())
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		reg = reg.WithSnapshot(snapshotPath(cfg))
		if err := reg.Load(); err != nil {
			return fmt.Errorf("load registry snapshot: %w", err)
		}

		plan, report := compiler.Compile(&doc, planFileResolver{reg})
		for _, w := range report.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w.String())
		}
		if report.Fatal() {
			for _, e := range report.Errors {
				fmt.Fprintf(os.Stderr, "error: %s\n", e.String())
			}
			return fmt.Errorf("komposition document failed validation with %d error(s)", len(report.Errors))
		}

		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

type planFileResolver struct {
	reg *registry.Registry
}

func (r planFileResolver) Resolve(id string) (string, error) {
	return r.reg.Resolve(id)
}

var _ compiler.FileResolver = planFileResolver{}
