package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultCommandTimeout = 15 * time.Second
	closeWriteTimeout     = time.Second
)

// EventHandler receives the params of an event notification. Handlers run on
// the read loop and must not block or call Send synchronously.
type EventHandler func(params json.RawMessage)

// Transport multiplexes commands and event notifications over one debugging
// protocol websocket.
type Transport struct {
	conn           *websocket.Conn
	logger         *slog.Logger
	defaultTimeout time.Duration

	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   int64
	pending  map[int64]*pendingCommand
	handlers map[string][]EventHandler
	closed   bool
	closeErr error

	closeOnce sync.Once
	done      chan struct{}
}

type pendingCommand struct {
	method string
	result chan commandResult
	timer  *time.Timer
}

type commandResult struct {
	payload json.RawMessage
	err     error
}

type request struct {
	ID        int64  `json:"id"`
	Method    string `json:"method"`
	Params    any    `json:"params,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type inboundMessage struct {
	ID        int64           `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type Option func(*Transport)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithDefaultTimeout sets the timeout applied to commands sent without
// WithTimeout. Zero disables it.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		t.defaultTimeout = timeout
	}
}

type sendOptions struct {
	sessionID string
	timeout   time.Duration
}

type SendOption func(*sendOptions)

// WithSession addresses the command to an attached target session.
func WithSession(sessionID string) SendOption {
	return func(o *sendOptions) {
		o.sessionID = sessionID
	}
}

// WithTimeout overrides the command timeout. Zero waits until a response
// arrives, the context ends or the connection closes.
func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		o.timeout = timeout
	}
}

// Connect dials endpoint and starts the read loop. It fails with
// ErrConnection when the handshake does not complete within timeout.
func Connect(ctx context.Context, endpoint string, timeout time.Duration, opts ...Option) (*Transport, error) {
	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, endpoint, err)
	}

	t := newTransport(conn, opts...)
	go t.readLoop()
	return t, nil
}

func newTransport(conn *websocket.Conn, opts ...Option) *Transport {
	t := &Transport{
		conn:           conn,
		logger:         slog.Default(),
		defaultTimeout: DefaultCommandTimeout,
		pending:        make(map[int64]*pendingCommand),
		handlers:       make(map[string][]EventHandler),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "cdp")
	return t
}

// Send issues method and waits for the matching response. The returned
// payload is the raw "result" member.
func (t *Transport) Send(ctx context.Context, method string, params any, opts ...SendOption) (json.RawMessage, error) {
	options := sendOptions{timeout: t.defaultTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	t.mu.Lock()
	if t.closed {
		err := t.closeErr
		t.mu.Unlock()
		return nil, err
	}
	t.nextID++
	id := t.nextID
	cmd := &pendingCommand{method: method, result: make(chan commandResult, 1)}
	if options.timeout > 0 {
		timeout := options.timeout
		cmd.timer = time.AfterFunc(timeout, func() { t.expire(id, timeout) })
	}
	t.pending[id] = cmd
	t.mu.Unlock()

	data, err := json.Marshal(request{ID: id, Method: method, Params: params, SessionID: options.sessionID})
	if err != nil {
		t.take(id)
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}

	if err := t.write(data); err != nil {
		t.take(id)
		return nil, fmt.Errorf("%w: write %s: %w", ErrConnectionClosed, method, err)
	}

	select {
	case res := <-cmd.result:
		return res.payload, res.err
	case <-ctx.Done():
		t.take(id)
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// Call sends method and decodes the result into out when out is non-nil.
func (t *Transport) Call(ctx context.Context, method string, params any, out any, opts ...SendOption) error {
	payload, err := t.Send(ctx, method, params, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// On registers handler for event notifications named event. Handlers stay
// registered for the life of the transport.
func (t *Transport) On(event string, handler EventHandler) {
	if handler == nil {
		return
	}
	t.mu.Lock()
	t.handlers[event] = append(t.handlers[event], handler)
	t.mu.Unlock()
}

// Done is closed once the connection is gone and every pending command has
// been rejected.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Close rejects all pending commands and closes the websocket.
func (t *Transport) Close() error {
	t.shutdown(ErrConnectionClosed)

	t.writeMu.Lock()
	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWriteTimeout),
	)
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *Transport) write(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *Transport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.shutdown(fmt.Errorf("%w: %w", ErrConnectionClosed, err))
			return
		}
		t.dispatch(data)
	}
}

func (t *Transport) dispatch(data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.logger.Warn("discard malformed message", "error", err)
		return
	}

	if msg.ID == 0 {
		if msg.Method != "" {
			t.emit(msg.Method, msg.Params)
		}
		return
	}

	cmd, ok := t.take(msg.ID)
	if !ok {
		t.logger.Debug("response without pending command", "id", msg.ID)
		return
	}

	if msg.Error != nil {
		cmd.result <- commandResult{err: &RemoteError{Method: cmd.method, Code: msg.Error.Code, Message: msg.Error.Message}}
		return
	}
	cmd.result <- commandResult{payload: msg.Result}
}

func (t *Transport) emit(event string, params json.RawMessage) {
	t.mu.Lock()
	handlers := append([]EventHandler(nil), t.handlers[event]...)
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(params)
	}
}

// take removes the pending entry for id and stops its timer. Whoever takes
// the entry owns its single delivery.
func (t *Transport) take(id int64) (*pendingCommand, bool) {
	t.mu.Lock()
	cmd, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if ok && cmd.timer != nil {
		cmd.timer.Stop()
	}
	return cmd, ok
}

func (t *Transport) expire(id int64, timeout time.Duration) {
	cmd, ok := t.take(id)
	if !ok {
		return
	}
	t.logger.Warn("command timed out", "method", cmd.method, "id", id, "timeout", timeout)
	cmd.result <- commandResult{err: &CommandTimeoutError{Method: cmd.method, Timeout: timeout}}
}

func (t *Transport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.closeErr = cause
		pending := t.pending
		t.pending = make(map[int64]*pendingCommand)
		t.mu.Unlock()

		for _, cmd := range pending {
			if cmd.timer != nil {
				cmd.timer.Stop()
			}
			cmd.result <- commandResult{err: cause}
		}
		if len(pending) > 0 {
			t.logger.Warn("connection closed with pending commands", "count", len(pending), "error", cause)
		}
		close(t.done)
	})
}

func (t *Transport) pendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
