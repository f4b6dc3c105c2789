package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/weibo-autopilot/internal/ports"
)

type devtoolsVersionInfo struct {
	Browser              string `json:"Browser"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// fetchDebuggerURL asks the debugging HTTP endpoint at baseURL for the
// browser-level websocket URL.
func fetchDebuggerURL(ctx context.Context, client *http.Client, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("version endpoint returned %s", resp.Status)
	}

	var info devtoolsVersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode version endpoint: %w", err)
	}
	wsURL := strings.TrimSpace(info.WebSocketDebuggerURL)
	if wsURL == "" {
		return "", errors.New("version endpoint returned empty webSocketDebuggerUrl")
	}
	return wsURL, nil
}

// waitForDebuggerURL polls baseURL every interval until it advertises a
// websocket URL. It fails with ErrLaunchTimeout once timeout has elapsed.
func waitForDebuggerURL(ctx context.Context, clock ports.Clock, baseURL string, timeout, interval time.Duration) (string, error) {
	client := &http.Client{Timeout: interval + time.Second}
	deadline := clock.Now().Add(timeout)

	var lastErr error
	for clock.Now().Before(deadline) {
		wsURL, err := fetchDebuggerURL(ctx, client, baseURL)
		if err == nil {
			return wsURL, nil
		}
		lastErr = err

		if err := clock.Sleep(ctx, interval); err != nil {
			return "", err
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w after %s at %s: %w", ErrLaunchTimeout, timeout, baseURL, lastErr)
	}
	return "", fmt.Errorf("%w after %s at %s", ErrLaunchTimeout, timeout, baseURL)
}
