package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"

	"github.com/bnema/weibo-autopilot/internal/adapters/cdp"
	"github.com/bnema/weibo-autopilot/internal/ports"
)

var ErrScriptException = errors.New("page script threw")

const (
	gracefulCloseTimeout = 5 * time.Second
	killGrace            = 2 * time.Second
)

// Timings are the fixed settle delays the session inserts after actions.
type Timings struct {
	NavigateSettle time.Duration
	ScrollSettle   time.Duration
	PollInterval   time.Duration
	ClickHold      time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		NavigateSettle: 3 * time.Second,
		ScrollSettle:   time.Second,
		PollInterval:   time.Second,
		ClickHold:      50 * time.Millisecond,
	}
}

type SessionOption func(*BrowserSession)

func WithClock(clock ports.Clock) SessionOption {
	return func(s *BrowserSession) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithTimings(timings Timings) SessionOption {
	return func(s *BrowserSession) {
		s.timings = timings
	}
}

func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *BrowserSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// BrowserSession is a transport attached to one page target. Every command
// carries the target's session id.
type BrowserSession struct {
	transport *cdp.Transport
	targetID  string
	sessionID string

	clock   ports.Clock
	logger  *slog.Logger
	timings Timings

	process  *os.Process
	waitDone <-chan struct{}

	closeOnce sync.Once
}

var _ ports.Page = (*BrowserSession)(nil)

// Attach picks a page target on transport, reusing one already showing
// siteHost or opening startURL in a new one, attaches to it and enables the
// Page, Runtime and Input domains.
func Attach(ctx context.Context, transport *cdp.Transport, startURL, siteHost string, opts ...SessionOption) (*BrowserSession, error) {
	s := &BrowserSession{
		transport: transport,
		clock:     ports.SystemClock{},
		logger:    slog.Default(),
		timings:   DefaultTimings(),
	}
	for _, opt := range opts {
		opt(s)
	}

	targetID, err := selectTarget(ctx, transport, startURL, siteHost)
	if err != nil {
		return nil, err
	}
	s.targetID = targetID

	var attached target.AttachToTargetReturns
	err = transport.Call(ctx, target.CommandAttachToTarget, &target.AttachToTargetParams{
		TargetID: target.ID(targetID),
		Flatten:  true,
	}, &attached)
	if err != nil {
		return nil, fmt.Errorf("attach to target %s: %w", targetID, err)
	}
	s.sessionID = string(attached.SessionID)
	s.logger = s.logger.With("target", targetID)

	if err := s.call(ctx, page.CommandEnable, nil, nil); err != nil {
		return nil, fmt.Errorf("enable page domain: %w", err)
	}
	if err := s.call(ctx, runtime.CommandEnable, nil, nil); err != nil {
		return nil, fmt.Errorf("enable runtime domain: %w", err)
	}
	if err := s.call(ctx, input.CommandSetIgnoreInputEvents, &input.SetIgnoreInputEventsParams{Ignore: false}, nil); err != nil {
		return nil, fmt.Errorf("enable input dispatch: %w", err)
	}

	return s, nil
}

func selectTarget(ctx context.Context, transport *cdp.Transport, startURL, siteHost string) (string, error) {
	var targets target.GetTargetsReturns
	if err := transport.Call(ctx, target.CommandGetTargets, nil, &targets); err != nil {
		return "", fmt.Errorf("list targets: %w", err)
	}

	for _, info := range targets.TargetInfos {
		if info == nil || string(info.Type) != "page" {
			continue
		}
		if siteHost != "" && strings.Contains(info.URL, siteHost) {
			return string(info.TargetID), nil
		}
	}

	var created target.CreateTargetReturns
	if err := transport.Call(ctx, target.CommandCreateTarget, &target.CreateTargetParams{URL: startURL}, &created); err != nil {
		return "", fmt.Errorf("create target: %w", err)
	}
	return string(created.TargetID), nil
}

// SessionID is the flattened CDP session attached to the page target.
func (s *BrowserSession) SessionID() string {
	return s.sessionID
}

func (s *BrowserSession) TargetID() string {
	return s.targetID
}

// Done is closed when the underlying connection is gone.
func (s *BrowserSession) Done() <-chan struct{} {
	return s.transport.Done()
}

func (s *BrowserSession) call(ctx context.Context, method string, params, out any) error {
	return s.transport.Call(ctx, method, params, out, cdp.WithSession(s.sessionID))
}

// Navigate loads url and waits a fixed settle delay. Load events are not
// awaited; callers poll for the elements they need.
func (s *BrowserSession) Navigate(ctx context.Context, url string) error {
	var ret page.NavigateReturns
	if err := s.call(ctx, page.CommandNavigate, &page.NavigateParams{URL: url}, &ret); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if ret.ErrorText != "" {
		s.logger.Warn("navigation reported an error", "url", url, "error", ret.ErrorText)
	}
	return s.clock.Sleep(ctx, s.timings.NavigateSettle)
}

// Evaluate runs expression in the page and decodes its by-value result into
// out. An undefined result leaves out untouched.
func (s *BrowserSession) Evaluate(ctx context.Context, expression string, out any) error {
	var ret runtime.EvaluateReturns
	err := s.call(ctx, runtime.CommandEvaluate, &runtime.EvaluateParams{
		Expression:    expression,
		ReturnByValue: true,
	}, &ret)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if ret.ExceptionDetails != nil {
		text := ret.ExceptionDetails.Text
		if ret.ExceptionDetails.Exception != nil && ret.ExceptionDetails.Exception.Description != "" {
			text = ret.ExceptionDetails.Exception.Description
		}
		return fmt.Errorf("%w: %s", ErrScriptException, text)
	}

	if out == nil || ret.Result == nil || len(ret.Result.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal([]byte(ret.Result.Value), out); err != nil {
		return fmt.Errorf("decode evaluation result: %w", err)
	}
	return nil
}

// WaitForElement polls for selector every PollInterval. It reports false,
// not an error, when timeout elapses first.
func (s *BrowserSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	expression := fmt.Sprintf("!!document.querySelector(%s)", jsString(selector))
	deadline := s.clock.Now().Add(timeout)

	for s.clock.Now().Before(deadline) {
		var found bool
		if err := s.Evaluate(ctx, expression, &found); err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		if err := s.clock.Sleep(ctx, s.timings.PollInterval); err != nil {
			return false, err
		}
	}

	s.logger.Debug("element did not appear", "selector", selector, "timeout", timeout)
	return false, nil
}

func (s *BrowserSession) ScrollDown(ctx context.Context, pixels int) error {
	if err := s.Evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %d)", pixels), nil); err != nil {
		return err
	}
	return s.clock.Sleep(ctx, s.timings.ScrollSettle)
}

// ClickAt dispatches a trusted left-button press and release at a viewport
// coordinate.
func (s *BrowserSession) ClickAt(ctx context.Context, x, y float64) error {
	press := &input.DispatchMouseEventParams{Type: input.MousePressed, X: x, Y: y, Button: input.Left, ClickCount: 1}
	if err := s.call(ctx, input.CommandDispatchMouseEvent, press, nil); err != nil {
		return fmt.Errorf("mouse press: %w", err)
	}
	if err := s.clock.Sleep(ctx, s.timings.ClickHold); err != nil {
		return err
	}
	release := &input.DispatchMouseEventParams{Type: input.MouseReleased, X: x, Y: y, Button: input.Left, ClickCount: 1}
	if err := s.call(ctx, input.CommandDispatchMouseEvent, release, nil); err != nil {
		return fmt.Errorf("mouse release: %w", err)
	}
	return nil
}

type elementCenter struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ClickElement clicks the center of the first element matching selector. It
// reports false when nothing matches.
func (s *BrowserSession) ClickElement(ctx context.Context, selector string) (bool, error) {
	expression := fmt.Sprintf(`(function() {
  const el = document.querySelector(%s);
  if (!el) return { found: false, x: 0, y: 0 };
  const rect = el.getBoundingClientRect();
  return { found: true, x: rect.left + rect.width / 2, y: rect.top + rect.height / 2 };
})()`, jsString(selector))

	var center elementCenter
	if err := s.Evaluate(ctx, expression, &center); err != nil {
		return false, err
	}
	if !center.Found {
		s.logger.Debug("click target not found", "selector", selector)
		return false, nil
	}
	if err := s.ClickAt(ctx, center.X, center.Y); err != nil {
		return false, err
	}
	return true, nil
}

// CaptureScreenshot returns the visible viewport as base64 PNG data.
func (s *BrowserSession) CaptureScreenshot(ctx context.Context) (string, error) {
	var ret page.CaptureScreenshotReturns
	if err := s.call(ctx, page.CommandCaptureScreenshot, &page.CaptureScreenshotParams{Format: page.CaptureScreenshotFormatPng}, &ret); err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	return ret.Data, nil
}

// Close asks the browser to exit, closes the transport and makes sure the
// process is gone, escalating from SIGTERM to SIGKILL. Later calls are no-ops.
func (s *BrowserSession) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulCloseTimeout)
		defer cancel()

		if err := s.transport.Call(ctx, browser.CommandClose, nil, nil, cdp.WithTimeout(gracefulCloseTimeout)); err != nil {
			s.logger.Debug("graceful browser close failed", "error", err)
		}
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("close transport", "error", err)
		}
		s.terminate()
	})
	return nil
}

func (s *BrowserSession) terminate() {
	if s.process == nil {
		return
	}

	select {
	case <-s.waitDone:
		return
	default:
	}

	if err := s.process.Signal(syscall.SIGTERM); err != nil {
		_ = s.process.Kill()
	}

	select {
	case <-s.waitDone:
	case <-time.After(killGrace):
		s.logger.Warn("browser ignored SIGTERM, killing", "pid", s.process.Pid)
		_ = s.process.Kill()
		<-s.waitDone
	}
}

// jsString renders value as a JavaScript string literal.
func jsString(value string) string {
	encoded, _ := json.Marshal(value)
	return string(encoded)
}
