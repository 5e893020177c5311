package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Engine walks a Settings container to convergence: every visible option
// either resolves to a value or the pass fails cleanly. Blocks resolve in
// declaration order, options within a block likewise. Declaration order is
// resolution order; a hook that populates shared scratch state must belong
// to an earlier-declared option than the one consuming it. The engine does
// not enforce that edge, it only guarantees the order.
type Engine struct {
	settings    *Settings
	console     Console
	supplied    map[string]string
	interactive bool
	logger      *slog.Logger
}

// EngineOpt customizes engine construction.
type EngineOpt func(*Engine)

// WithInteractive toggles the interactive prompt path. When disabled,
// options without a pre-supplied value fall back to their defaults;
// required options with neither fail the pass.
func WithInteractive(on bool) EngineOpt {
	return func(e *Engine) { e.interactive = on }
}

// NewEngine creates an engine over s. supplied carries pre-resolved raw
// values (flags, config file, environment) keyed by option key; those
// options resolve via programmatic init, skipping hooks and validation.
func NewEngine(s *Settings, console Console, supplied map[string]string, handler slog.Handler, opts ...EngineOpt) *Engine {
	if console == nil {
		console = NopConsole{}
	}
	if handler == nil {
		handler = slog.Default().Handler()
	}
	e := &Engine{
		settings:    s,
		console:     console,
		supplied:    supplied,
		interactive: true,
		logger:      slog.New(handler).With(slog.String("component", "engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one resolution pass. The context is checked between options;
// prompts themselves block on operator input.
func (e *Engine) Run(ctx context.Context) error {
	for _, b := range e.settings.Blocks {
		if !b.visible(e.settings) {
			e.logger.Debug("Block hidden, skipping", slog.String("block", b.Label))
			continue
		}
		if e.interactive {
			e.console.Info("\n%s", b.Label)
		}
		for _, o := range b.Options {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !o.visible() {
				e.logger.Debug("Option hidden, skipping", slog.String("key", o.Key))
				continue
			}
			if err := e.resolveOption(o); err != nil {
				return fmt.Errorf("resolving %q: %w", o.Key, err)
			}
		}
	}
	return nil
}

// resolveOption picks the value source for one visible option and runs the
// resolution contract.
func (e *Engine) resolveOption(o *Option) error {
	if raw, ok := e.supplied[o.Key]; ok {
		val, err := coerceSupplied(o.Kind, raw)
		if err != nil {
			return err
		}
		e.logger.Debug("Resolving from supplied value", slog.String("key", o.Key))
		return o.Resolve(FromInit(val), e.console)
	}
	if e.interactive && !o.SkipPrompt {
		return o.Resolve(FromPrompt(), e.console)
	}
	if o.Default != nil {
		e.logger.Debug("Resolving from default", slog.String("key", o.Key))
		return o.Resolve(FromInit(o.Default), e.console)
	}
	if o.required() {
		return fmt.Errorf("%w: %s (no value supplied and prompting disabled)", ErrRequired, o.Key)
	}
	return nil
}

// coerceSupplied types a pre-supplied raw string for programmatic init.
// Init bypasses hooks and validation, not the kind tag: predicates need the
// stored value in its declared type. An explicit false commits here, unlike
// the interactive assignment path.
func coerceSupplied(kind Kind, raw string) (any, error) {
	switch kind {
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "t", "yes", "y":
			return true, nil
		case "0", "false", "f", "no", "n", "":
			return false, nil
		default:
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrParse, raw)
		}
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrParse, raw)
		}
		return n, nil
	default:
		return raw, nil
	}
}
