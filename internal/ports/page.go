package ports

import (
	"context"
	"time"
)

type Page interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, expression string, out any) error
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	ScrollDown(ctx context.Context, pixels int) error
	ClickAt(ctx context.Context, x, y float64) error
	ClickElement(ctx context.Context, selector string) (bool, error)
	CaptureScreenshot(ctx context.Context) (string, error)
}
