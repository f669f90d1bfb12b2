package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/hygiene"
)

var (
	zombiesKill  bool
	zombiesForce bool
)

func init() {
	zombiesCmd.Flags().BoolVar(&zombiesKill, "kill", false, "kill every process classified safe_to_kill")
	zombiesCmd.Flags().BoolVar(&zombiesForce, "force", false, "skip the soft-terminate grace period when killing")
	rootCmd.AddCommand(zombiesCmd)
}

var zombiesCmd = &cobra.Command{
	Use:   "zombies",
	Short: "Scan (and optionally kill) orphaned media processes on this host",
	Long:  "Classifies every process on the host as protected, safe_to_kill, or caution. Run without --kill is read-only. This CLI has no view into a running komposerd's active-operation table, so a process an in-flight daemon operation still owns may be reported safe_to_kill here; --kill re-classifies at the moment of termination and a live daemon always wins that race.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		hygieneCfg := hygiene.BuildConfig(int32(os.Getpid()), cfg.SelfModuleName, cfg.ReservedPorts, cfg.ZombieAgeThreshold)
		scanner := hygiene.NewScanner(hygieneCfg, nil, cfg.KillGrace, cfg.KillTimeout)

		ctx := cmd.Context()

		if zombiesKill {
			summary, err := scanner.KillAllSafe(ctx, zombiesForce)
			if err != nil {
				return err
			}
			fmt.Printf("attempted %d, killed %d\n", summary.Attempted, summary.Killed)
			for _, r := range summary.Results {
				fmt.Printf("  pid=%d killed=%v forced=%v %s\n", r.PID, r.Killed, r.Forced, r.Reason)
			}
			return nil
		}

		records, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}
		for _, r := range records {
			age := time.Since(r.StartTime).Round(time.Second)
			fmt.Printf("pid=%-8d class=%-12s age=%-10s %v\n", r.PID, r.Class, age, r.Argv)
		}
		return nil
	},
}
