package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/bnema/weibo-autopilot/internal/adapters/cdp"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/bnema/weibo-autopilot/internal/ports"
)

const (
	defaultLaunchTimeout  = 30 * time.Second
	defaultPollInterval   = 200 * time.Millisecond
	defaultConnectTimeout = 30 * time.Second
	profileDirMode        = 0o700
)

type Config struct {
	// ExecutablePath is tried before the platform candidates.
	ExecutablePath string
	ProfileDir     string
	SiteHost       string
	LaunchTimeout  time.Duration
	PollInterval   time.Duration
	CommandTimeout time.Duration
	Timings        Timings
}

func (c Config) withDefaults() Config {
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = defaultLaunchTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = cdp.DefaultCommandTimeout
	}
	if c.Timings == (Timings{}) {
		c.Timings = DefaultTimings()
	}
	return c
}

type Launcher struct {
	cfg     Config
	logger  *slog.Logger
	clock   ports.Clock
	metrics *metrics.Metrics
}

func NewLauncher(cfg Config, logger *slog.Logger, clock ports.Clock, m *metrics.Metrics) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Launcher{
		cfg:     cfg.withDefaults(),
		logger:  logger.With("component", "launcher"),
		clock:   clock,
		metrics: m,
	}
}

// Launch starts a browser on a persistent profile, connects to its debugging
// endpoint and returns a session attached to a page showing startURL.
func (l *Launcher) Launch(ctx context.Context, startURL string) (*BrowserSession, error) {
	started := time.Now()
	session, err := l.launch(ctx, startURL)
	l.metrics.ObserveLaunch(time.Since(started), err)
	return session, err
}

func (l *Launcher) launch(ctx context.Context, startURL string) (*BrowserSession, error) {
	executable, err := ResolveExecutable(l.cfg.ExecutablePath)
	if err != nil {
		return nil, err
	}

	profileDir, err := filepath.Abs(l.cfg.ProfileDir)
	if err != nil {
		return nil, fmt.Errorf("resolve profile dir: %w", err)
	}
	if err := os.MkdirAll(profileDir, profileDirMode); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("allocate debugging port: %w", err)
	}

	l.logger.Info("launching browser", "executable", executable, "profile", profileDir, "port", port)

	cmd := exec.Command(executable, launchArgs(port, profileDir, startURL)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	waitDone := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(waitDone)
	}()

	abort := func() {
		_ = cmd.Process.Kill()
		<-waitDone
	}

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	wsURL, err := waitForDebuggerURL(ctx, l.clock, baseURL, l.cfg.LaunchTimeout, l.cfg.PollInterval)
	if err != nil {
		abort()
		return nil, fmt.Errorf("%w; check that %s starts on its own", err, executable)
	}

	transport, err := cdp.Connect(ctx, wsURL, defaultConnectTimeout,
		cdp.WithLogger(l.logger),
		cdp.WithDefaultTimeout(l.cfg.CommandTimeout),
	)
	if err != nil {
		abort()
		return nil, err
	}

	session, err := Attach(ctx, transport, startURL, l.cfg.SiteHost,
		WithClock(l.clock),
		WithTimings(l.cfg.Timings),
		WithSessionLogger(l.logger),
	)
	if err != nil {
		_ = transport.Close()
		abort()
		return nil, err
	}
	session.process = cmd.Process
	session.waitDone = waitDone

	l.logger.Info("browser session ready", "target", session.TargetID(), "session", session.SessionID())
	return session, nil
}

func launchArgs(port int, profileDir, startURL string) []string {
	return []string{
		fmt.Sprintf("--remote-debugging-port=%d", port),
		"--user-data-dir=" + profileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-blink-features=AutomationControlled",
		"--start-maximized",
		startURL,
	}
}

// freePort binds an ephemeral loopback port and releases it for the browser.
func freePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
