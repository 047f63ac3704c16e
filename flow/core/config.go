package core

import (
	"context"
	"fmt"
	"strings"
)

// Mode selects the execution strategy of a run.
type Mode int

const (
	// ModeAuto composes lazy sequences when every operation supports it and
	// falls back to push dispatch otherwise.
	ModeAuto Mode = iota
	// ModePull requires sequence composition.
	ModePull
	// ModePush drives every item through Handle calls.
	ModePush
)

func (m Mode) String() string {
	switch m {
	case ModePull:
		return "pull"
	case ModePush:
		return "push"
	default:
		return "auto"
	}
}

// ParseMode converts a mode name ("auto", "pull", "push") into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "pull":
		return ModePull, nil
	case "push":
		return ModePush, nil
	}
	return ModeAuto, InvalidArgument("unknown mode %q", s)
}

// RunConfig holds the settings of one execution.
type RunConfig struct {
	Mode   Mode
	Errors ErrorChain
}

// Option is a functional option for configuring a run.
type Option func(*RunConfig)

// WithMode forces an execution strategy.
func WithMode(m Mode) Option {
	return func(c *RunConfig) {
		c.Mode = m
	}
}

// WithErrorHandlers appends handlers to the error chain of the run.
func WithErrorHandlers(handlers ...ErrorHandler) Option {
	return func(c *RunConfig) {
		c.Errors = c.Errors.With(handlers...)
	}
}

// NewRunConfig builds the configuration of a run. A *RunConfig attached to
// ctx with WithConfig provides the defaults; opts are applied on top.
func NewRunConfig(ctx context.Context, opts ...Option) RunConfig {
	var cfg RunConfig
	if base, ok := GetConfig[*RunConfig](ctx); ok && base != nil {
		cfg.Mode = base.Mode
		cfg.Errors = base.Errors.With()
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c RunConfig) String() string {
	return fmt.Sprintf("mode=%s handlers=%d", c.Mode, len(c.Errors))
}

// configKey is a typed context key for config injection.
// Each config type gets its own unique key.
type configKey[C any] struct{}

// WithConfig attaches a configuration value to the context.
// The config is keyed by its type, so only one instance of each config type
// can be stored. Later calls with the same type will override earlier ones.
//
// Example:
//
//	ctx := core.WithConfig(ctx, &core.RunConfig{Mode: core.ModePush})
func WithConfig[C any](ctx context.Context, cfg C) context.Context {
	return context.WithValue(ctx, configKey[C]{}, cfg)
}

// GetConfig retrieves a configuration of type C from the context.
// Returns the config and true if found, or zero value and false if not present.
func GetConfig[C any](ctx context.Context) (C, bool) {
	if cfg, ok := ctx.Value(configKey[C]{}).(C); ok {
		return cfg, true
	}
	return *new(C), false
}
