package filter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager holds named filter presets and resolves the filter for a command
type Manager struct {
	compiler Compiler
	presets  map[string]Filter
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*managerOptions)

type managerOptions struct {
	compiler  Compiler
	clock     func() time.Time
	cacheSize int
	logger    zerolog.Logger
}

// WithCompiler sets a custom compiler. The cache is not applied to it.
func WithCompiler(compiler Compiler) ManagerOption {
	return func(o *managerOptions) {
		o.compiler = compiler
	}
}

// WithClock sets the clock used by date helpers such as daysSince
func WithClock(clock func() time.Time) ManagerOption {
	return func(o *managerOptions) {
		o.clock = clock
	}
}

// WithCacheSize sets the compiled expression cache size
func WithCacheSize(size int) ManagerOption {
	return func(o *managerOptions) {
		o.cacheSize = size
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{
		cacheSize: DefaultCacheSize,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	compiler := o.compiler
	if compiler == nil {
		cached, err := NewCachingCompiler(NewExprCompiler(o.clock), o.cacheSize)
		if err != nil {
			return nil, err
		}
		compiler = cached
	}

	return &Manager{
		compiler: compiler,
		presets:  make(map[string]Filter),
		logger:   o.logger,
	}, nil
}

// Compile compiles an ad-hoc expression
func (m *Manager) Compile(expression string) (Filter, error) {
	return m.compiler.Compile(expression)
}

// RegisterPreset registers a new preset or replaces an existing one
func (m *Manager) RegisterPreset(name, expression string) error {
	f, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile preset '%s': %w", name, err)
	}

	m.mu.Lock()
	m.presets[name] = f
	m.mu.Unlock()

	return nil
}

// RegisterPresets registers multiple presets at once. Nothing is registered
// if any expression fails to compile.
func (m *Manager) RegisterPresets(presets map[string]string) error {
	compiled := make(map[string]Filter, len(presets))

	// Compile all presets first
	for _, name := range slices.Sorted(maps.Keys(presets)) {
		f, err := m.compiler.Compile(presets[name])
		if err != nil {
			return fmt.Errorf("failed to compile preset '%s': %w", name, err)
		}
		compiled[name] = f
	}

	m.mu.Lock()
	maps.Copy(m.presets, compiled)
	m.mu.Unlock()

	m.logger.Debug().Int("count", len(compiled)).Msg("Registered filter presets")
	return nil
}

// Preset returns a registered preset by name
func (m *Manager) Preset(name string) (Filter, bool) {
	m.mu.RLock()
	f, exists := m.presets[name]
	m.mu.RUnlock()
	return f, exists
}

// Presets returns all registered preset names, sorted
func (m *Manager) Presets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.presets))
}

// Resolve picks the filter for a command. An explicit expression wins over a
// preset; with neither, Resolve returns a nil filter, which keeps everything.
func (m *Manager) Resolve(expression, preset string) (Filter, error) {
	if strings.TrimSpace(expression) != "" {
		if preset != "" {
			m.logger.Debug().Str("preset", preset).Msg("Filter expression overrides preset")
		}
		return m.compiler.Compile(expression)
	}

	if preset != "" {
		f, ok := m.Preset(preset)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, preset)
		}
		return f, nil
	}

	return nil, nil
}
