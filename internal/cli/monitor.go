package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/vitals/internal/config"
	"github.com/Dicklesworthstone/vitals/internal/errors"
	"github.com/Dicklesworthstone/vitals/internal/logger"
	"github.com/Dicklesworthstone/vitals/internal/sampler"
	"github.com/Dicklesworthstone/vitals/internal/series"
	"github.com/Dicklesworthstone/vitals/internal/store"
	"github.com/Dicklesworthstone/vitals/internal/ui"
)

// newSource builds the platform collector. Tests swap it for a fake.
var newSource = func(cfg config.Config, log *zap.Logger) sampler.Source {
	temps := sampler.NewTempResolver(sampler.TempOptions{
		Command:     cfg.SensorsCommand,
		ToolTimeout: cfg.ToolTimeout,
		ThermalRoot: cfg.ThermalRoot,
		Logger:      log.Named("temp"),
	})
	var gpu *sampler.GPUReader
	if cfg.GPU {
		gpu = sampler.NewGPUReader(sampler.NvidiaSMI(nil, cfg.ToolTimeout), log.Named("gpu"))
	}
	return sampler.NewCollector(temps, gpu, log)
}

// runDashboard blocks on the TUI. Tests swap it to avoid a terminal.
var runDashboard = ui.Run

// runMonitor samples until ctx is done (headless) or the dashboard quits.
// The store must open and migrate cleanly before the first tick; otherwise
// nothing runs. The store is closed once, after the loop has returned.
func runMonitor(ctx context.Context, cfg config.Config, withUI bool) error {
	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel(),
		File:    cfg.Log.File,
		Console: !withUI,
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid logging configuration",
			"Use one of debug, info, warn, error for log.level")
	}
	defer func() { _ = log.Sync() }()

	st, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("schema check failed", zap.String("path", cfg.DB), zap.Error(err))
		return err
	}

	board := series.NewBoard(cfg.History)
	loop := sampler.NewLoop(cfg.Interval, newSource(cfg, log), board, st, log)
	log.Info("sampling",
		zap.String("path", st.Path()),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("gpu", cfg.GPU))

	if !withUI {
		err := loop.Run(ctx)
		logStopped(log, loop.Stats())
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	uiErr := runDashboard(ui.New(board, loop.Stats, st.Path(), cfg.Interval, cancel))
	cancel()
	loopErr := <-done
	logStopped(log, loop.Stats())

	if uiErr != nil {
		return fmt.Errorf("dashboard: %w", uiErr)
	}
	return loopErr
}

func logStopped(log *zap.Logger, st sampler.Stats) {
	fields := []zap.Field{zap.Int("ticks", st.Ticks), zap.Int("store_failures", st.StoreFailures)}
	if st.LastError != nil {
		fields = append(fields, zap.NamedError("last_error", st.LastError))
	}
	log.Info("stopped", fields...)
}
