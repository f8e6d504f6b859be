package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	_ "time/tzdata" // schedule.timezone must resolve on hosts without zoneinfo

	"github.com/gin-gonic/gin"

	"taskmate/internal/auth"
	"taskmate/internal/config"
	"taskmate/internal/eventbus"
	"taskmate/internal/insights"
	"taskmate/internal/metrics"
	rtsup "taskmate/internal/runtime/supervisor"
	"taskmate/internal/schedule"
	"taskmate/internal/storage"
	"taskmate/internal/tasks"
	"taskmate/internal/web"
	logx "taskmate/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   *eventbus.MemBus
	store storage.Store

	metrics  *metrics.Metrics
	auth     *auth.Authenticator
	sched    atomic.Pointer[scheduleState]
	tasks    *tasks.Service
	insights *insights.Service
	web      *web.Server
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     eventbus.New(),
		metrics: metrics.New(),
		auth:    auth.New(mapAuthConfig(cfg)),
	}

	st, err := mapScheduleConfig(cfg)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	a.sched.Store(st)

	// Storage (optional)
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		logSvc.Close()
		return nil, err
	} else if enabled {
		store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			logSvc.Close()
			return nil, err
		}
		a.store = store
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	var model insights.Model
	if gc, enabled, err := mapGeminiConfig(cfg); err != nil {
		a.closeStore()
		logSvc.Close()
		return nil, err
	} else if enabled {
		g, err := insights.NewGemini(gc, log)
		if err != nil {
			a.closeStore()
			logSvc.Close()
			return nil, err
		}
		model = g
		log.Info("ai enabled", logx.String("model", g.Name()))
	}

	a.tasks = tasks.NewService(a.builder, a.bus, a.metrics, log)
	a.insights = insights.New(model,
		insights.WithStore(a.store),
		insights.WithBus(a.bus),
		insights.WithMetrics(a.metrics),
		insights.WithLogger(log),
	)
	return a, nil
}

func (a *App) builder() schedule.Builder { return a.sched.Load().builder }

func (a *App) previewCount() int { return a.sched.Load().preview }

// modelTimeout follows http.write_timeout across reloads.
func (a *App) modelTimeout() time.Duration {
	hc, err := mapHTTPConfig(a.cfgm.Get())
	if err != nil {
		return 0
	}
	return web.FlowBudget(hc.WriteTimeout)
}

func (a *App) closeStore() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Addr is the bound API address, or "" before the listener is up.
func (a *App) Addr() string {
	if a.web == nil {
		return ""
	}
	return a.web.Addr()
}

// Ready is closed once the API listener is bound.
func (a *App) Ready() <-chan struct{} {
	if a.web == nil {
		ch := make(chan struct{})
		return ch
	}
	return a.web.Ready()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *Config) error {
		if _, err := mapHTTPConfig(cfg); err != nil {
			return err
		}
		if _, err := mapScheduleConfig(cfg); err != nil {
			return err
		}
		if _, _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		if _, _, err := mapGeminiConfig(cfg); err != nil {
			return err
		}
		return nil
	})

	cfg := a.cfgm.Get()
	hc, err := mapHTTPConfig(cfg)
	if err != nil {
		return err
	}
	gin.SetMode(ginMode(cfg))
	router := web.NewRouter(web.Deps{
		Auth:         a.auth,
		Builder:      a.builder,
		PreviewCount: a.previewCount,
		Tasks:        a.tasks,
		Insights:     a.insights,
		Metrics:      a.metrics,
		ModelTimeout: a.modelTimeout,
		Health:       a.health,
		Log:          a.log,
	})
	a.web = web.NewServer(hc, router, a.log)
	a.web.Start(a.sup.Context())

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	// A broken fsnotify watcher is recreated; edits made meanwhile are
	// picked up by the next change event.
	a.sup.GoRestart("config.watch", a.cfgm.Watch, rtsup.WithRestartBackoff(250*time.Millisecond, 5*time.Second))

	a.log.Info("app started", logx.String("addr", hc.Addr))
	return nil
}

// applyConfig pushes a validated config into the live components. The ai and
// storage sections are bound at startup and only produce a warning.
func (a *App) applyConfig(ctx context.Context, prev, next *Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	for _, s := range sections {
		switch s {
		case "logging":
			if err := a.logs.Apply(mapLogConfig(next)); err != nil {
				a.log.Warn("log file sink unavailable; using console", logx.Err(err))
			}
		case "auth":
			a.auth.Reconfigure(mapAuthConfig(next))
		case "schedule":
			st, err := mapScheduleConfig(next)
			if err != nil {
				a.log.Warn("invalid schedule config; keeping previous", logx.Err(err))
				continue
			}
			a.sched.Store(st)
		case "http":
			hc, err := mapHTTPConfig(next)
			if err != nil {
				a.log.Warn("invalid http config; keeping previous", logx.Err(err))
				continue
			}
			if mode := ginMode(next); mode != gin.Mode() {
				a.log.Warn("http.mode changed; restart required for changes to take effect")
			}
			a.web.Reconfigure(ctx, hc)
		case "ai", "storage":
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}

	a.bus.Publish(eventbus.Event{Type: eventbus.ConfigReloaded, Time: time.Now(), Data: sections})
	a.log.Info("config reloaded", fields...)
}

func (a *App) health() any {
	published, dropped := a.bus.Stats()
	out := map[string]any{
		"ai_enabled":      a.insights.Enabled(),
		"storage_enabled": a.store != nil,
		"auth_enabled":    a.auth.Enabled(),
		"events": map[string]uint64{
			"published": published,
			"dropped":   dropped,
		},
	}
	if a.sup != nil {
		out["app"] = a.sup.Snapshot()
	}
	if a.web != nil {
		if ws := a.web.Supervisor(); ws != nil {
			out["web"] = ws.Snapshot()
		}
	}
	return out
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeStore()
		if a.logs != nil {
			a.logs.Close()
		}
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	var errs []error
	// step bounds one shutdown step so a stuck component cannot stall Stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			took := time.Since(start)
			if took >= 500*time.Millisecond {
				a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
			} else {
				a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
			go func() {
				err := <-done
				if err != nil {
					a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.Err(err))
				}
			}()
		}
	}

	step("web", 3*time.Second, func(c context.Context) error {
		if a.web != nil {
			a.web.Stop(c)
		}
		return nil
	})
	step("storage", 1*time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	// Wait for supervised goroutines (config watch/reload, event log).
	step("supervisor", 2*time.Second, func(c context.Context) error {
		err := a.sup.Wait(c)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return errors.Join(errs...)
}
