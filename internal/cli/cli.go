// Package cli wires the settings framework, application hooks, and decoder
// into the bootstrap flow the root command runs.
package cli

import (
	"context"
	"log/slog"

	"github.com/adscale/bq-bootstrap/internal/cli/config"
	"github.com/adscale/bq-bootstrap/internal/cli/hooks"
	"github.com/adscale/bq-bootstrap/pkg/decoder"
	"github.com/adscale/bq-bootstrap/pkg/settings"
)

// Run executes one full bootstrap pass with production hooks.
func Run(ctx context.Context, cfg config.Config, console settings.Console, handler slog.Handler) error {
	_, err := Bootstrap(ctx, cfg, console, handler, hooks.New(ctx, console, handler))
	return err
}

// Bootstrap resolves every settings block, then makes sure the historical
// data was normalized even when every answer came in pre-supplied. The
// resolved container is returned for inspection.
func Bootstrap(ctx context.Context, cfg config.Config, console settings.Console, handler slog.Handler, h *hooks.Hooks) (*settings.Settings, error) {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	logger := slog.New(handler).With(slog.String("component", "cli"))

	s, err := NewAppSettings(h)
	if err != nil {
		return nil, err
	}

	engine := settings.NewEngine(s, console, cfg.Supplied, handler,
		settings.WithInteractive(!cfg.NonInteractive))
	if err := engine.Run(ctx); err != nil {
		return s, err
	}

	if err := finalize(s, h); err != nil {
		return s, err
	}

	if out, ok := s.Custom[hooks.KeyNormalizedOutput].(string); ok {
		logger.Info("Bootstrap complete", slog.String("output", out))
		console.Success("Configuration complete. Normalized data at %s", out)
	} else {
		logger.Info("Bootstrap complete, no historical data processed")
		console.Success("Configuration complete.")
	}
	return s, nil
}

// finalize covers the pre-supplied path: values fed from flags, config
// file, or environment resolve without their post-set hooks, so the column
// map and the decoder run may still be outstanding after the pass.
func finalize(s *settings.Settings, h *hooks.Hooks) error {
	if !s.Bool("has_historical_data") {
		return nil
	}
	if _, ok := s.Custom[hooks.KeyColumnMap]; !ok {
		var mappings []decoder.ColumnMapping
		for _, ct := range columnTargets {
			o := s.Option(ct.Key)
			if o == nil || !o.IsSet() || o.String() == "" {
				continue
			}
			mappings = append(mappings, decoder.ColumnMapping{
				Source: o.String(),
				Target: ct.Canonical,
			})
		}
		if len(mappings) > 0 {
			s.Custom[hooks.KeyColumnMap] = mappings
		}
	}
	if !s.Bool("process_files") {
		return nil
	}
	if _, ok := s.Custom[hooks.KeyNormalizedOutput]; ok {
		return nil
	}
	return h.ProcessHistoricalFiles(s.Option("process_files"))
}
