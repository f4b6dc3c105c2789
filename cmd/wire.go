package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/bnema/weibo-autopilot/internal/adapters/chrome"
	statusadapter "github.com/bnema/weibo-autopilot/internal/adapters/render/status"
	"github.com/bnema/weibo-autopilot/internal/adapters/store/jsonfile"
	"github.com/bnema/weibo-autopilot/internal/adapters/weibo"
	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/bnema/weibo-autopilot/internal/config"
	"github.com/bnema/weibo-autopilot/internal/logging"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/bnema/weibo-autopilot/internal/ports"
	"github.com/spf13/viper"
)

// browserSession is what commands need from a launched browser.
type browserSession interface {
	ports.Page
	Close() error
	Done() <-chan struct{}
}

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	store          *jsonfile.Store
	journal        *application.Journal
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	launcher       func(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) browserLauncher
	now            func() time.Time
}

type browserLauncher interface {
	Launch(ctx context.Context, startURL string) (browserSession, error)
}

type chromeLauncher struct {
	launcher *chrome.Launcher
}

func (l chromeLauncher) Launch(ctx context.Context, startURL string) (browserSession, error) {
	session, err := l.launcher.Launch(ctx, startURL)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New(), "")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	store := jsonfile.NewStore(cfg.Data.Dir, logger)

	return &app{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		journal:        application.NewJournal(store, ports.SystemClock{}),
		statusRenderer: statusadapter.Render,
		launcher:       newChromeLauncher,
		now:            time.Now,
	}, nil
}

func newChromeLauncher(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) browserLauncher {
	return chromeLauncher{launcher: chrome.NewLauncher(chrome.Config{
		ExecutablePath: cfg.Browser.ChromePath,
		ProfileDir:     cfg.Browser.ProfileDir,
		SiteHost:       siteHost(cfg.Site.BaseURL),
		LaunchTimeout:  cfg.Browser.LaunchTimeout,
		PollInterval:   cfg.Browser.PollInterval,
		CommandTimeout: cfg.Browser.CommandTimeout,
	}, logger, ports.SystemClock{}, m)}
}

func (a *app) newEngine(page ports.Page) *weibo.Engine {
	return weibo.NewEngine(page, a.journal, weibo.Config{
		BaseURL:   a.cfg.Site.BaseURL,
		Selectors: a.cfg.Selectors,
		Labels:    weibo.DefaultLabels(),
		Signature: a.cfg.Autopilot.CommentSignature(),
	}, weibo.WithLogger(a.logger))
}

func siteHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "weibo.com"
	}
	return parsed.Hostname()
}
