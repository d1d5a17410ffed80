// Package history records one row per cleaning run so past runs stay
// auditable after their logs rotate away.
//
// Backends register themselves from init() functions; the process entry
// point selects one by kind. When no history storage is configured the Nop
// repository keeps the pipeline free of nil checks.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is the persisted summary of one cleaning run.
type Run struct {
	ID           string
	SpecPath     string
	UsedFallback bool

	StartedAt  time.Time
	FinishedAt time.Time

	RowsIn      int
	RowsOut     int
	ColumnsIn   int
	ColumnsOut  int
	Mutated     bool

	// Error is the fatal error that aborted the run, empty on success.
	Error string
}

// NewRun starts a Run record with a fresh ID and UTC start time.
func NewRun(specPath string, usedFallback bool) Run {
	return Run{
		ID:           uuid.NewString(),
		SpecPath:     specPath,
		UsedFallback: usedFallback,
		StartedAt:    time.Now().UTC(),
	}
}

// Repository stores run records.
type Repository interface {
	// Init creates backing storage as needed. Idempotent.
	Init(ctx context.Context) error
	// Record persists one finished run.
	Record(ctx context.Context, r Run) error
	// Close releases backend resources. Call once at shutdown.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "sqlite", "postgres").
// Called from backend init() functions. Registering the same kind twice
// panics, to fail fast on ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("history: Register called with empty kind")
	}
	if f == nil {
		panic("history: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("history: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("history: missing backend kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("history: unsupported backend kind=%q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Nop is the Repository used when no history storage is configured.
type Nop struct{}

func (Nop) Init(context.Context) error        { return nil }
func (Nop) Record(context.Context, Run) error { return nil }
func (Nop) Close()                            {}
