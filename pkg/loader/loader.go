// Package loader loads and saves configuration sets with graceful
// degradation: a failed load yields the fixed fallback set for its kind,
// a failed save is reported to the caller.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Kind names a configuration kind.
type Kind string

const (
	KindScenarios   Kind = "scenarios"
	KindTechnical   Kind = "technical"
	KindOperational Kind = "operational"
)

// Provenance tells where the items of a Result came from.
type Provenance int

const (
	FromSource Provenance = iota
	FromFallback
)

func (p Provenance) String() string {
	if p == FromFallback {
		return "fallback"
	}
	return "source"
}

var (
	// ErrNoData is recorded when the source answered without a payload.
	ErrNoData = errors.New("config source returned no data")

	// ErrReadOnly is returned by Save on a loader without a save operation.
	ErrReadOnly = errors.New("configuration kind cannot be saved")
)

// Result is the outcome of a load. Items is never nil. Err holds the
// swallowed load failure when Provenance is FromFallback.
type Result[T any] struct {
	Items      []T
	Provenance Provenance
	Err        error
}

// IsFallback reports whether Items is the fallback set.
func (r Result[T]) IsFallback() bool {
	return r.Provenance == FromFallback
}

// FetchFunc fetches a set from the config source.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// SaveFunc writes a set to the config source.
type SaveFunc[T any] func(ctx context.Context, items []T) error

// Option configures loaders.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger that receives fallback warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Loader loads and saves one configuration set.
type Loader[T any] struct {
	kind     Kind
	scope    string
	fetch    FetchFunc[T]
	fallback func() []T
	save     SaveFunc[T]
	logger   *log.Logger
}

// New creates a loader. save may be nil for kinds that cannot be written.
func New[T any](kind Kind, scope string, fetch FetchFunc[T], fallback func() []T, save SaveFunc[T], opts ...Option) *Loader[T] {
	o := buildOptions(opts)
	return &Loader[T]{
		kind:     kind,
		scope:    scope,
		fetch:    fetch,
		fallback: fallback,
		save:     save,
		logger:   o.logger,
	}
}

// Kind returns the configuration kind of the loader.
func (l *Loader[T]) Kind() Kind { return l.kind }

// Scope returns the scenario id for operational loaders, or "".
func (l *Loader[T]) Scope() string { return l.scope }

// Load fetches the set. It never fails: any error is replaced by the fallback
// set and reported through Result.Err.
func (l *Loader[T]) Load(ctx context.Context) Result[T] {
	start := time.Now()
	items, err := l.fetch(ctx)
	if err == nil && items == nil {
		err = ErrNoData
	}
	LoadDuration.WithLabelValues(string(l.kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		LoadTotal.WithLabelValues(string(l.kind), FromFallback.String()).Inc()
		l.logger.Warn("config load failed, using fallback", "kind", l.kind, "scope", l.scope, "error", err)
		return Result[T]{Items: l.fallback(), Provenance: FromFallback, Err: err}
	}

	LoadTotal.WithLabelValues(string(l.kind), FromSource.String()).Inc()
	l.logger.Debug("config loaded", "kind", l.kind, "scope", l.scope, "items", len(items))
	return Result[T]{Items: items, Provenance: FromSource}
}

// LoadAsync runs Load in its own goroutine. The channel receives exactly one
// result and is then closed.
func (l *Loader[T]) LoadAsync(ctx context.Context) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		ch <- l.Load(ctx)
	}()
	return ch
}

// Save writes items to the config source. Failures are returned, never
// swallowed.
func (l *Loader[T]) Save(ctx context.Context, items []T) error {
	if l.save == nil {
		return fmt.Errorf("save %s: %w", l.kind, ErrReadOnly)
	}
	if err := l.save(ctx, items); err != nil {
		SaveTotal.WithLabelValues(string(l.kind), "error").Inc()
		return fmt.Errorf("save %s: %w", l.kind, err)
	}
	SaveTotal.WithLabelValues(string(l.kind), "ok").Inc()
	l.logger.Info("config saved", "kind", l.kind, "scope", l.scope, "items", len(items))
	return nil
}
