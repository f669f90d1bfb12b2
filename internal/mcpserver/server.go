package mcpserver

import (
	"path/filepath"

	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/ffmpegops"
	"github.com/komposer-mcp/komposer/internal/hygiene"
	"github.com/komposer-mcp/komposer/internal/intake"
	"github.com/komposer-mcp/komposer/internal/planexec"
	"github.com/komposer-mcp/komposer/internal/registry"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

// Server wires every kernel subsystem behind the operation surface spec.md
// §6 names. It owns no state of its own beyond the wiring; the Registry,
// TimeoutMgr, and PlanExecutor each own their own mutable state per
// spec.md §3's ownership rules.
type Server struct {
	Config     config.Config
	Registry   *registry.Registry
	Dispatcher *ffmpegops.Dispatcher
	TimeoutMgr *timeoutmgr.Manager
	PlanExec   *planexec.Executor
	Intake     *intake.Pipeline
	Hygiene    *hygiene.Scanner
}

// New wires a Server from already-constructed subsystem instances. Callers
// (cmd/komposerd) are responsible for constructing each subsystem from cfg
// and handing them here; New performs no I/O itself.
func New(cfg config.Config, reg *registry.Registry, dispatcher *ffmpegops.Dispatcher, tm *timeoutmgr.Manager, pe *planexec.Executor, in *intake.Pipeline, hy *hygiene.Scanner) *Server {
	return &Server{
		Config:     cfg,
		Registry:   reg,
		Dispatcher: dispatcher,
		TimeoutMgr: tm,
		PlanExec:   pe,
		Intake:     in,
		Hygiene:    hy,
	}
}

// registryCatalog adapts *registry.Registry to intake.SourceCatalog.
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
		out = append(out, intake.CatalogEntry{ID: e.ID, Name: basename(e.Path)})
	}
	return out
}

// docFileResolver adapts *registry.Registry to compiler.FileResolver,
// reused by intake for pre-validating the Adapter's proposals.
type docFileResolver struct {
	reg *registry.Registry
}

func (r docFileResolver) Resolve(id string) (string, error) {
	return r.reg.Resolve(id)
}

var _ compiler.FileResolver = docFileResolver{}

func basename(p string) string {
	return filepath.Base(p)
}
