package commands

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/hxshowcase/internal/chat"
	"git.home.luguber.info/inful/hxshowcase/internal/config"
	"git.home.luguber.info/inful/hxshowcase/internal/contacts"
	"git.home.luguber.info/inful/hxshowcase/internal/examples"
	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/livereload"
	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
	"git.home.luguber.info/inful/hxshowcase/internal/preview"
	"git.home.luguber.info/inful/hxshowcase/internal/server/httpserver"
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
	"git.home.luguber.info/inful/hxshowcase/internal/version"
	"git.home.luguber.info/inful/hxshowcase/static"
)

// ServeCmd starts the examples server.
type ServeCmd struct {
	Port int  `name:"port" help:"Server port (overrides server.port and PORT)."`
	Dev  bool `name:"dev" help:"Reload templates per request and watch sources for changes."`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if s.Port > 0 {
		cfg.Server.Port = s.Port
	}
	if s.Dev {
		cfg.Server.Dev = true
	}

	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(sigctx, cfg)
}

// assets are the view templates and stylesheets the server uses.
type assets struct {
	views    fs.FS
	styles   fs.FS
	viewsDir string
}

func loadAssets(cfg *config.Config) (assets, error) {
	dir := cfg.Server.StaticDir
	if dir == "" {
		return assets{views: static.Views(), styles: static.Styles()}, nil
	}
	viewsDir := filepath.Join(dir, "views")
	if st, err := os.Stat(viewsDir); err != nil || !st.IsDir() {
		return assets{}, derrors.ConfigError("static_dir has no views directory").
			WithContext("path", viewsDir).Build()
	}
	return assets{
		views:    os.DirFS(viewsDir),
		styles:   os.DirFS(filepath.Join(dir, "styles")),
		viewsDir: viewsDir,
	}, nil
}

// warnUncoveredPalette logs every target whose safelist misses a colour the
// /color example can render, and returns the names of those targets.
func warnUncoveredPalette(targets []stylecfg.Target) []string {
	var uncovered []string
	for _, t := range targets {
		missing := stylecfg.MissingFromSafelist(t.Record, stylecfg.ColorPalette)
		if len(missing) == 0 {
			continue
		}
		slog.Warn("safelist misses colours the color example renders",
			logfields.Target(t.Name), slog.Any("classes", missing))
		uncovered = append(uncovered, t.Name)
	}
	return uncovered
}

// RunServe wires every component and serves until ctx is cancelled.
func RunServe(ctx context.Context, cfg *config.Config) error {
	a, err := loadAssets(cfg)
	if err != nil {
		return err
	}
	warnUncoveredPalette(cfg.Styles.Targets)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Monitoring.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom := metrics.NewPrometheusRecorder(reg)
		recorder, metricsHandler = prom, prom.Handler()
	}

	renderer, err := examples.NewRenderer(a.views, cfg.Server.Dev)
	if err != nil {
		return err
	}
	catalog, err := examples.DefaultCatalog()
	if err != nil {
		return err
	}

	store, err := contacts.Open(ctx, cfg.Contacts.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing contact store", logfields.Error(err))
		}
	}()
	if interval := cfg.Contacts.ResetIntervalDuration(); interval > 0 {
		sched, err := contacts.NewScheduler(store, interval, recorder)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("stopping contacts scheduler", logfields.Error(err))
			}
		}()
	}

	reloadHub := livereload.NewHub(version.ServerVersion(time.Now()), cfg.Server.ReloadHeartbeatDuration(), recorder)
	chatHub := chat.NewHub(recorder)
	if cfg.Chat.NATSURL != "" {
		relay, err := chat.NewNATSRelay(cfg.Chat.NATSURL, cfg.Chat.Subject)
		if err != nil {
			return err
		}
		if err := chatHub.UseRelay(relay); err != nil {
			_ = relay.Close()
			return err
		}
		slog.Info("Chat relay connected", slog.String("subject", cfg.Chat.Subject))
	}

	srv, err := httpserver.New(cfg, httpserver.Options{
		Renderer:       renderer,
		Catalog:        catalog,
		Reload:         reloadHub,
		Chat:           chatHub,
		Contacts:       store,
		Styles:         a.styles,
		Recorder:       recorder,
		MetricsHandler: metricsHandler,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if cfg.Server.Dev {
		w, err := preview.New(preview.Options{
			Root:     cfg.Styles.Root,
			Targets:  cfg.Styles.Targets,
			ViewsDir: a.viewsDir,
			Renderer: renderer,
			Hub:      reloadHub,
			Recorder: recorder,
		})
		if err != nil {
			slog.Warn("dev watcher disabled", logfields.Error(err))
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					slog.Warn("dev watcher stopped", logfields.Error(err))
				}
			}()
		}
	}

	<-ctx.Done()
	slog.Info("Shutting down server...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "stop server").Build()
	}
	slog.Info("Server stopped")
	return nil
}
