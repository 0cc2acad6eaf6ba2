package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SeedWatcher re-applies seed.yaml whenever its modification time moves forward.
type SeedWatcher struct {
	path     string
	interval time.Duration
	apply    func(context.Context, *Seed) error
	logger   zerolog.Logger
	lastMod  time.Time
}

// NewSeedWatcher creates a watcher. apply receives every successfully parsed seed.
func NewSeedWatcher(path string, interval time.Duration, apply func(context.Context, *Seed) error, logger zerolog.Logger) *SeedWatcher {
	if path == "" {
		path = "configs/seed.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SeedWatcher{
		path:     path,
		interval: interval,
		apply:    apply,
		logger:   logger.With().Str("component", "seed").Str("path", path).Logger(),
	}
}

// Load applies the seed once. A failing initial seed is fatal for the caller.
func (w *SeedWatcher) Load(ctx context.Context) error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}
	seed, err := LoadSeed(w.path)
	if err != nil {
		return err
	}
	if err := w.apply(ctx, seed); err != nil {
		return err
	}
	w.lastMod = info.ModTime()
	return nil
}

// Run polls until ctx is done. Bad edits are logged and the last good seed stays.
func (w *SeedWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *SeedWatcher) poll(ctx context.Context) {
	info, err := os.Stat(w.path)
	if err != nil {
		return // transient
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}
	// Don't retry the same broken file every tick.
	w.lastMod = info.ModTime()

	seed, err := LoadSeed(w.path)
	if err != nil {
		w.logger.Error().Err(err).Msg("Seed reload rejected")
		return
	}
	if err := w.apply(ctx, seed); err != nil {
		w.logger.Error().Err(err).Msg("Seed apply failed")
		return
	}
	w.logger.Info().Int("rooms", len(seed.Rooms)).Int("clients", len(seed.Clients)).Msg("Seed reloaded")
}
