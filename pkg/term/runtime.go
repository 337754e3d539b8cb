package term

import (
	"errors"
	"sync"
)

// Default terminal geometry and type for new surfaces.
const (
	DefaultTermType = "xterm-256color"
	DefaultCols     = 80
	DefaultRows     = 24
)

// ErrRuntimeClosed is returned when creating a surface on a closed
// runtime.
var ErrRuntimeClosed = errors.New("term: runtime closed")

// Config configures a Runtime.
type Config struct {
	// TermType is the TERM value requested for remote PTYs.
	// Default: DefaultTermType.
	TermType string

	// Cols and Rows are the initial surface geometry.
	// Defaults: DefaultCols x DefaultRows.
	Cols int
	Rows int
}

func (c *Config) applyDefaults() {
	if c.TermType == "" {
		c.TermType = DefaultTermType
	}
	if c.Cols == 0 {
		c.Cols = DefaultCols
	}
	if c.Rows == 0 {
		c.Rows = DefaultRows
	}
}

// Runtime owns terminal surfaces for one client instance.
type Runtime struct {
	config Config

	mu       sync.Mutex
	surfaces map[*Surface]struct{}
	closed   bool
}

// NewRuntime creates a runtime with the given configuration.
func NewRuntime(config Config) *Runtime {
	config.applyDefaults()
	return &Runtime{
		config:   config,
		surfaces: make(map[*Surface]struct{}),
	}
}

// TermType returns the TERM value to request for remote PTYs.
func (r *Runtime) TermType() string {
	return r.config.TermType
}

// NewSurface allocates a PTY-backed surface at the runtime's initial
// geometry. The caller releases it with Surface.Close; Runtime.Close
// releases any still open.
func (r *Runtime) NewSurface() (*Surface, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRuntimeClosed
	}
	r.mu.Unlock()

	s, err := newSurface(r.config.Cols, r.config.Rows)
	if err != nil {
		return nil, err
	}
	s.onClose = r.forget

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return nil, ErrRuntimeClosed
	}
	r.surfaces[s] = struct{}{}
	r.mu.Unlock()
	return s, nil
}

func (r *Runtime) forget(s *Surface) {
	r.mu.Lock()
	delete(r.surfaces, s)
	r.mu.Unlock()
}

// Close releases every open surface. The runtime cannot be reused.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	open := make([]*Surface, 0, len(r.surfaces))
	for s := range r.surfaces {
		open = append(open, s)
	}
	r.surfaces = nil
	r.mu.Unlock()

	var firstErr error
	for _, s := range open {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
