package weibo

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bnema/weibo-autopilot/internal/ports"
)

const DefaultBaseURL = "https://weibo.com"

type Config struct {
	BaseURL   string
	Selectors Selectors
	Labels    Labels
	// Signature is appended to every repost comment.
	Signature string
}

// Engine drives the site through a page: feed harvests, group lookup,
// repost submission and the reads used for preference learning. It is not
// safe for concurrent use.
type Engine struct {
	page      ports.Page
	journal   ports.TaskJournal
	clock     ports.Clock
	logger    *slog.Logger
	baseURL   string
	selectors Selectors
	labels    Labels
	signature string
	jitter    func(limit time.Duration) time.Duration
}

type Option func(*Engine)

func WithClock(clock ports.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJitter replaces the source of randomized settle delays.
func WithJitter(jitter func(limit time.Duration) time.Duration) Option {
	return func(e *Engine) {
		if jitter != nil {
			e.jitter = jitter
		}
	}
}

func NewEngine(page ports.Page, journal ports.TaskJournal, cfg Config, opts ...Option) *Engine {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	labels := cfg.Labels
	if labels.RepostCount == "" {
		labels = DefaultLabels()
	}

	e := &Engine{
		page:      page,
		journal:   journal,
		clock:     ports.SystemClock{},
		logger:    slog.Default(),
		baseURL:   baseURL,
		selectors: cfg.Selectors.WithDefaults(),
		labels:    labels,
		signature: cfg.Signature,
		jitter:    randomJitter,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "weibo")
	return e
}

func (e *Engine) BaseURL() string {
	return e.baseURL
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
