package weibo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type point struct {
	X, Y float64
}

// fakePage answers Evaluate from per-expression queues. The last queued
// value keeps being returned once the queue drains; an expression with no
// queue evaluates to undefined.
type fakePage struct {
	mu          sync.Mutex
	responses   map[string][]any
	errs        map[string]error
	waitResults map[string]bool
	navigations []string
	evaluations []string
	scrolls     []int
	clicks      []point
}

func newFakePage() *fakePage {
	return &fakePage{
		responses:   map[string][]any{},
		errs:        map[string]error{},
		waitResults: map[string]bool{},
	}
}

func (p *fakePage) respond(expression string, values ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[expression] = append(p.responses[expression], values...)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, expression string, out any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evaluations = append(p.evaluations, expression)
	if err := p.errs[expression]; err != nil {
		return err
	}
	queue := p.responses[expression]
	if len(queue) == 0 || out == nil {
		return nil
	}
	value := queue[0]
	if len(queue) > 1 {
		p.responses[expression] = queue[1:]
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

func (p *fakePage) WaitForElement(_ context.Context, selector string, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	found, ok := p.waitResults[selector]
	if !ok {
		return true, nil
	}
	return found, nil
}

func (p *fakePage) ScrollDown(_ context.Context, pixels int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls = append(p.scrolls, pixels)
	return nil
}

func (p *fakePage) ClickAt(_ context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, point{X: x, Y: y})
	return nil
}

func (p *fakePage) ClickElement(context.Context, string) (bool, error) {
	return false, nil
}

func (p *fakePage) CaptureScreenshot(context.Context) (string, error) {
	return "", nil
}

func (p *fakePage) evaluated(expression string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.evaluations {
		if e == expression {
			n++
		}
	}
	return n
}

type fakeJournal struct {
	mu      sync.Mutex
	ops     []string
	pending *domain.PendingTask
}

func (j *fakeJournal) SavePending(_ context.Context, task domain.PendingTask) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops = append(j.ops, "save")
	j.pending = &task
	return nil
}

func (j *fakeJournal) ClearPending(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops = append(j.ops, "clear")
	j.pending = nil
	return nil
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func newTestEngine(page *fakePage, journal *fakeJournal, signature string) (*Engine, *fakeClock) {
	clock := newFakeClock()
	engine := NewEngine(page, journal, Config{Signature: signature},
		WithClock(clock),
		WithLogger(discardLogger),
		WithJitter(func(time.Duration) time.Duration { return 0 }),
	)
	return engine, clock
}

func testingEngine(t *testing.T) (*Engine, *fakePage, *fakeJournal, *fakeClock) {
	t.Helper()
	page := newFakePage()
	journal := &fakeJournal{}
	engine, clock := newTestEngine(page, journal, "")
	return engine, page, journal, clock
}
