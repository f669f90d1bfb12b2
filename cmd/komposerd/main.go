package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/execx"
	"github.com/komposer-mcp/komposer/internal/ffmpegops"
	"github.com/komposer-mcp/komposer/internal/hygiene"
	"github.com/komposer-mcp/komposer/internal/intake"
	komposerlog "github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/mcpserver"
	"github.com/komposer-mcp/komposer/internal/planexec"
	"github.com/komposer-mcp/komposer/internal/registry"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

var (
	version = "v0.1.0"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (overrides KOMPOSER_METRICS_ADDR)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("komposerd %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	logger := komposerlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	server, cleanup, err := buildServer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire kernel subsystems")
	}
	defer cleanup()

	addr := *metricsAddr
	if addr == "" {
		addr = config.ParseString("KOMPOSER_METRICS_ADDR", ":9091")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	janitorDone := runJanitor(ctx, server)

	logger.Info().Str("version", version).Str("data_dir", filepath.Dir(cfg.Workspace.Source)).Msg("komposerd ready")
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	<-janitorDone

	if err := server.Registry.Save(); err != nil {
		logger.Warn().Err(err).Msg("failed to persist registry snapshot on shutdown")
	}
	logger.Info().Msg("komposerd exited")
}

// buildServer wires every kernel subsystem per cfg into a single
// mcpserver.Server, in the same dependency order components are
// constructed in: registry, executor, dispatcher, timeout manager, plan
// executor, intake pipeline, hygiene scanner.
func buildServer(cfg config.Config) (*mcpserver.Server, func(), error) {
	reg, err := registry.New(cfg.Workspace.Roots())
	if err != nil {
		return nil, nil, fmt.Errorf("build registry: %w", err)
	}
	reg = reg.WithSnapshot(filepath.Join(cfg.Workspace.Metadata, "registry_snapshot.json"))
	if err := reg.Load(); err != nil {
		komposerlog.WithComponent("daemon").Warn().Err(err).Msg("failed to load registry snapshot; starting empty")
	}

	executor := execx.New(cfg.MaxConcurrentProcesses, cfg.KillGrace, cfg.KillTimeout)
	dispatcher := ffmpegops.New(reg, executor, cfg.FFmpegBin)

	tm := timeoutmgr.New(cfg.HandleRetentionWindow)
	pe := planexec.New(dispatcher, reg, cfg.CleanupPolicy)

	catalog := registryCatalog{reg: reg}
	var adapter intake.Adapter
	if cfg.AIAdapterDailyBudget > 0 {
		// No concrete AI backend ships in this tree; the rate limiter wraps
		// NullAdapter so the budget ceiling is exercised even before a real
		// backend is plugged into the Adapter seam.
		adapter = intake.NewRateLimitedAdapter(intake.NullAdapter{}, cfg.AIAdapterDailyBudget, 1, cfg.AIAdapterCallTimeout)
	}
	pipeline := intake.New(catalog, adapter, intake.Preset(cfg.IntakePreset), docFileResolver{reg: reg})

	hygieneCfg := hygiene.BuildConfig(int32(os.Getpid()), cfg.SelfModuleName, cfg.ReservedPorts, cfg.ZombieAgeThreshold)
	hasActiveOp := func(pid int32) bool {
		for _, h := range tm.ListActive() {
			for _, cpid := range h.ChildPGIDs {
				if int32(cpid) == pid {
					return true
				}
			}
		}
		return false
	}
	scanner := hygiene.NewScanner(hygieneCfg, hasActiveOp, cfg.KillGrace, cfg.KillTimeout)

	server := mcpserver.New(cfg, reg, dispatcher, tm, pe, pipeline, scanner)
	cleanup := func() {
		if err := reg.Save(); err != nil {
			komposerlog.WithComponent("daemon").Warn().Err(err).Msg("failed to persist registry snapshot")
		}
	}
	return server, cleanup, nil
}

// runJanitor periodically prunes the timeout manager's terminal handles and
// persists the registry snapshot, returning a channel closed once the
// background loop has observed ctx's cancellation and exited.
func runJanitor(ctx context.Context, s *mcpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.TimeoutMgr.Prune()
				if err := s.Registry.Save(); err != nil {
					komposerlog.WithComponent("daemon").Warn().Err(err).Msg("periodic registry snapshot failed")
				}
			}
		}
	}()
	return done
}

// registryCatalog adapts *registry.Registry to intake.SourceCatalog for
// this process's own wiring (mcpserver's equivalent adapter is unexported).
type registryCatalog struct {
	reg *registry.Registry
}

func (c registryCatalog) ListVideos() []intake.CatalogEntry {
	return toCatalogEntries(c.reg.List(registry.Filter{Kind: registry.KindVideo}))
}

func (c registryCatalog) ListAudio() []intake.CatalogEntry {
	return toCatalogEntries(c.reg.List(registry.Filter{Kind: registry.KindAudio}))
}

func toCatalogEntries(entries []registry.Entry) []intake.CatalogEntry {
	out := make([]intake.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, intake.CatalogEntry{ID: e.ID, Name: filepath.Base(e.Path)})
	}
	return out
}

// docFileResolver adapts *registry.Registry to compiler.FileResolver.
type docFileResolver struct {
	reg *registry.Registry
}

func (r docFileResolver) Resolve(id string) (string, error) {
	return r.reg.Resolve(id)
}

var _ compiler.FileResolver = docFileResolver{}
