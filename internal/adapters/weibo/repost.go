package weibo

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

// RepostState names the steps of a repost submission.
type RepostState string

const (
	StateIdle              RepostState = "idle"
	StateNavigated         RepostState = "navigated"
	StateToolbarLocated    RepostState = "toolbar_located"
	StateRepostModeEntered RepostState = "repost_mode_entered"
	StateTextareaFound     RepostState = "textarea_found"
	StateCommentFilled     RepostState = "comment_filled"
	StateSubmitted         RepostState = "submitted"
)

const (
	postNavigateSettle = 4 * time.Second
	postReadyTimeout   = 30 * time.Second
	postReadySettle    = 2 * time.Second
	toolbarScrollDelay = 500 * time.Millisecond
	repostModeSettle   = 3 * time.Second
	textareaRetryDelay = 2 * time.Second
	commentFillSettle  = 1500 * time.Millisecond
	overlaySettle      = 500 * time.Millisecond
	submitSettle       = 3 * time.Second
)

type repostAttempt struct {
	postURL      string
	comment      string
	toolbarIndex int
}

type repostStep struct {
	to  RepostState
	run func(ctx context.Context, a *repostAttempt) (bool, error)
}

// Repost reposts postURL with comment plus the configured signature.
//
// A pending task is recorded before anything else and cleared only once
// the submit control has been clicked. A step that cannot find what it
// needs returns false with the pending task left in place; page and
// connection failures are returned as errors.
func (e *Engine) Repost(ctx context.Context, postURL, comment string) (bool, error) {
	state, err := e.repost(ctx, postURL, comment)
	if err != nil {
		return false, fmt.Errorf("repost %s at %s: %w", postURL, state, err)
	}
	return state == StateSubmitted, nil
}

func (e *Engine) repost(ctx context.Context, postURL, comment string) (RepostState, error) {
	logger := e.logger.With("post", postURL)
	a := &repostAttempt{postURL: postURL, comment: comment + e.signature}

	err := e.journal.SavePending(ctx, domain.PendingTask{
		PostURL:   postURL,
		Comment:   comment,
		StartedAt: e.clock.Now(),
	})
	if err != nil {
		return StateIdle, fmt.Errorf("save pending task: %w", err)
	}

	steps := []repostStep{
		{to: StateNavigated, run: e.openPost},
		{to: StateToolbarLocated, run: e.locateToolbar},
		{to: StateRepostModeEntered, run: e.enterRepostMode},
		{to: StateTextareaFound, run: e.findTextarea},
		{to: StateCommentFilled, run: e.fillComment},
		{to: StateSubmitted, run: e.submit},
	}

	state := StateIdle
	for _, step := range steps {
		ok, err := step.run(ctx, a)
		if err != nil {
			return state, err
		}
		if !ok {
			logger.Warn("repost stopped", "state", state, "failed_step", step.to)
			return state, nil
		}
		state = step.to
		logger.Debug("repost step done", "state", state)
	}

	if err := e.journal.ClearPending(ctx); err != nil {
		return state, fmt.Errorf("clear pending task: %w", err)
	}
	logger.Info("repost submitted")
	return state, nil
}

func (e *Engine) openPost(ctx context.Context, a *repostAttempt) (bool, error) {
	if err := e.page.Navigate(ctx, a.postURL); err != nil {
		return false, err
	}
	if err := e.clock.Sleep(ctx, postNavigateSettle); err != nil {
		return false, err
	}

	ready, err := e.page.WaitForElement(ctx, e.selectors.PostReady, postReadyTimeout)
	if err != nil {
		return false, err
	}
	if !ready {
		// The toolbar lookup decides; this selector alone is not conclusive.
		e.logger.Warn("post body not detected", "selector", e.selectors.PostReady)
	}
	return true, e.clock.Sleep(ctx, postReadySettle)
}

// locateToolbar scrolls the last toolbar into view. Post pages render a
// toolbar for quoted content before the post's own one.
func (e *Engine) locateToolbar(ctx context.Context, a *repostAttempt) (bool, error) {
	var offsets []float64
	if err := e.page.Evaluate(ctx, toolbarOffsetsScript(e.selectors), &offsets); err != nil {
		return false, err
	}
	index, scrollTo, ok := lastToolbar(offsets)
	if !ok {
		e.logger.Warn("no toolbar on post page", "error", domain.ErrElementNotFound)
		return false, nil
	}
	a.toolbarIndex = index
	e.logger.Debug("toolbars found", "count", len(offsets), "scroll_to", scrollTo)

	if err := e.page.Evaluate(ctx, scrollToScript(scrollTo), nil); err != nil {
		return false, err
	}
	return true, e.clock.Sleep(ctx, toolbarScrollDelay)
}

func (e *Engine) enterRepostMode(ctx context.Context, a *repostAttempt) (bool, error) {
	var control pointPayload
	if err := e.page.Evaluate(ctx, repostControlScript(e.selectors, a.toolbarIndex), &control); err != nil {
		return false, err
	}
	if !control.Found {
		e.logger.Warn("repost control not found", "error", domain.ErrElementNotFound)
		return false, nil
	}

	if err := e.page.ClickAt(ctx, control.X, control.Y); err != nil {
		return false, err
	}
	if err := e.clock.Sleep(ctx, repostModeSettle); err != nil {
		return false, err
	}

	var signals repostModeSignals
	if err := e.page.Evaluate(ctx, repostModeSignalsScript(e.selectors), &signals); err != nil {
		return false, err
	}
	if !signals.entered(e.labels) {
		e.logger.Warn("repost mode not entered", "hash", signals.Hash)
		return false, nil
	}
	return true, nil
}

func (e *Engine) findTextarea(ctx context.Context, _ *repostAttempt) (bool, error) {
	present, err := e.shareTextareaPresent(ctx)
	if err != nil || present {
		return present, err
	}

	e.logger.Debug("repost textarea not ready, waiting")
	if err := e.clock.Sleep(ctx, textareaRetryDelay); err != nil {
		return false, err
	}
	present, err = e.shareTextareaPresent(ctx)
	if err != nil {
		return false, err
	}
	if !present {
		e.logger.Warn("repost textarea did not appear", "error", domain.ErrElementNotFound)
	}
	return present, nil
}

func (e *Engine) shareTextareaPresent(ctx context.Context) (bool, error) {
	var placeholders []string
	if err := e.page.Evaluate(ctx, textareaPlaceholdersScript, &placeholders); err != nil {
		return false, err
	}
	return hasShareTextarea(placeholders, e.labels), nil
}

func (e *Engine) fillComment(ctx context.Context, a *repostAttempt) (bool, error) {
	var filled bool
	if err := e.page.Evaluate(ctx, fillCommentScript(e.labels, a.comment), &filled); err != nil {
		return false, err
	}
	if !filled {
		e.logger.Warn("repost textarea vanished before fill")
		return false, nil
	}
	if err := e.clock.Sleep(ctx, commentFillSettle); err != nil {
		return false, err
	}

	var dismissed bool
	if err := e.page.Evaluate(ctx, dismissOverlayScript(e.labels), &dismissed); err != nil {
		e.logger.Debug("overlay dismissal failed", "error", err)
	} else if dismissed {
		e.logger.Debug("assist overlay dismissed")
	}
	return true, e.clock.Sleep(ctx, overlaySettle)
}

func (e *Engine) submit(ctx context.Context, _ *repostAttempt) (bool, error) {
	var clicked bool
	if err := e.page.Evaluate(ctx, submitScript(e.selectors, e.labels), &clicked); err != nil {
		return false, err
	}
	if !clicked {
		e.logger.Warn("submit control not found", "error", domain.ErrElementNotFound)
		return false, nil
	}
	return true, e.clock.Sleep(ctx, submitSettle)
}
