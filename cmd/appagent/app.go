package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"appagent/internal/agent"
	"appagent/internal/command"
	"appagent/internal/config"
	"appagent/internal/database"
	"appagent/internal/manager"
	"appagent/internal/metrics"
	"appagent/internal/panel"
	"appagent/internal/predict"
	"appagent/internal/textctl"
	"appagent/internal/tracker"
	"appagent/internal/web"
	"appagent/pkg/detector"
	"appagent/pkg/integrations/hybrid"
	"appagent/pkg/keyboard"
	"appagent/pkg/window"
)

// app is one running engine: agents, focus tracking, persistence and,
// optionally, the web API.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	db       *database.DB
	repo     *database.Repository
	rec      *tracker.Recorder
	hub      *panel.Hub
	mgr      *manager.Manager
	registry *command.Registry

	probe   *hybrid.Probe
	monitor *window.PollingMonitor
	tracker *tracker.Service
	watcher *config.Watcher
	server  *web.Server
}

func newApp(cfg *config.Config, logger *zap.Logger, withWeb bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	a.repo = database.NewRepository(db)

	a.rec = tracker.NewRecorder(a.repo, logger)
	a.rec.Start()

	var kb keyboard.Synthesizer = keyboard.NewRecorder()
	if !cfg.Tracker.Headless {
		monitor, probe, err := detector.New(logger, cfg.Tracker.Backend, cfg.Tracker.PollInterval)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "failed to initialize focus detection")
		}
		a.monitor, a.probe = monitor, probe
		a.monitor.OnError = func(err error) { a.rec.ReportError("monitor", err) }
		kb = detector.NewKeyboard(logger, probe)
	}

	a.hub = panel.NewHub(logger.Named("panels"), a.metrics)
	panels := panel.Observed(a.hub, func(req panel.Request) {
		a.metrics.RecordPanel(req.Panel)
		a.rec.RecordPanel(req)
	})

	dict := textctl.NewDictionary(cfg.Agents.Abbreviations, cfg.Agents.Spellings)
	a.mgr = manager.New(manager.Options{
		Logger:     logger,
		Metrics:    a.metrics,
		Keyboard:   kb,
		Dictionary: dict,
		OnCommand:  a.rec.RecordCommand,
	})

	actx := agent.Context{
		Keyboard:   kb,
		Panels:     panels,
		Foreground: a.mgr.Foreground,
		Dictionary: dict,
		Audit:      a.rec.RecordAudit,
		Logger:     logger,
		Metrics:    a.metrics,
	}
	for _, ag := range []*agent.AppAgent{agent.NewChromeAgent(actx), agent.NewFirefoxAgent(actx)} {
		if err := a.mgr.Register(ag); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.mgr.RegisterFunctional(agent.NewPhraseSpeakAgent(actx))
	a.mgr.RegisterFunctional(agent.NewSwitchWindowsAgent(actx))

	a.registry = command.NewRegistry(command.Env{Agents: a.mgr, Logger: logger})
	a.mgr.SetFallback(a.registry)
	a.mgr.ApplyConfig(cfg)

	if cfg.Agents.File != "" {
		a.watcher = config.NewWatcher(cfg.Agents.File, logger)
		a.watcher.OnChange(a.reload)
	}

	if a.monitor != nil {
		a.tracker = tracker.NewService(cfg, a.rec, a.monitor, a.mgr, logger)
	}

	if withWeb {
		a.server = web.NewServer(a.webDeps(), a.metrics, 0)
	}
	return a, nil
}

func (a *app) webDeps() web.Deps {
	return web.Deps{
		Config:    a.cfg,
		Engine:    a.mgr,
		Store:     a.repo,
		Global:    a.registry,
		Predictor: a.predictor(),
		Panels:    a.hub,
		Metrics:   a.metrics.Handler(),
		Logger:    a.logger,
	}
}

// predictor wraps the configured command, or disables prediction.
func (a *app) predictor() predict.Predictor {
	if len(a.cfg.Predictor.Command) == 0 {
		return predict.Disabled
	}
	p, err := predict.NewExecPredictor(a.cfg.Predictor.Command, a.cfg.Predictor.Timeout)
	if err != nil {
		a.logger.Warn("word prediction disabled", zap.Error(err))
		return predict.Disabled
	}
	return predict.NewGuard(p, a.cfg.Predictor.WordCount, a.logger, a.metrics)
}

// reload applies an edited agent file. The shared config is not mutated;
// the agents get a fresh copy.
func (a *app) reload(fc *config.FileConfig) {
	next := *a.cfg
	fc.Apply(&next)
	a.mgr.ApplyConfig(&next)
	a.logger.Info("agent configuration reloaded",
		zap.String("file", a.cfg.Agents.File),
		zap.Int("abbreviations", len(next.Agents.Abbreviations)),
		zap.Int("spellings", len(next.Agents.Spellings)),
	)
}

// Run blocks until ctx ends or focus tracking fails.
func (a *app) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			a.logger.Warn("agent file will not be reloaded", zap.Error(err))
		}
	}

	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				a.logger.Error("web server failed", zap.Error(err))
				cancel()
			}
		}()
		a.logger.Info("web API listening", zap.String("address", "http://"+a.server.GetAddress()))
	}

	var err error
	if a.tracker != nil {
		a.logger.Info("focus tracking started", zap.String("display", a.monitor.GetDisplayServer()))
		err = a.tracker.Start(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	} else {
		if a.server != nil {
			a.logger.Info("running headless; focus arrives through POST /api/focus")
		} else {
			a.logger.Warn("running headless without the web API; no agent will receive focus")
		}
		<-ctx.Done()
	}

	if a.server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if serr := a.server.Shutdown(shutdownCtx); serr != nil {
			a.logger.Warn("web server shutdown", zap.Error(serr))
		}
	}
	return err
}

// Close releases everything newApp acquired, in reverse order.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.mgr != nil {
		a.mgr.Close()
	}
	if a.probe != nil {
		a.probe.Close()
	}
	a.rec.Close()
	a.db.Close()
}
