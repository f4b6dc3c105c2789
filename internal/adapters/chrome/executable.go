package chrome

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrExecutableNotFound = errors.New("browser executable not found")
	ErrLaunchTimeout      = errors.New("browser debugging endpoint not ready")
)

const ExecutableEnv = "WEIBO_BROWSER_CHROME_PATH"

// candidateExecutables lists the locations probed for a Chromium-family
// browser, in preference order.
func candidateExecutables(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
	case "windows":
		candidates := []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			candidates = append(candidates, filepath.Join(local, "Google", "Chrome", "Application", "chrome.exe"))
		}
		return candidates
	default:
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	}
}

// ResolveExecutable returns override when it names an existing file, else the
// first candidate for the running platform that exists.
func ResolveExecutable(override string) (string, error) {
	return resolveExecutable(override, candidateExecutables(runtime.GOOS), fileExists)
}

func resolveExecutable(override string, candidates []string, exists func(string) bool) (string, error) {
	override = strings.TrimSpace(override)
	if override != "" && exists(override) {
		return override, nil
	}

	for _, candidate := range candidates {
		if exists(candidate) {
			return candidate, nil
		}
	}

	if override != "" {
		return "", fmt.Errorf("%w: %s does not exist; point %s at a Chrome or Chromium binary", ErrExecutableNotFound, override, ExecutableEnv)
	}
	return "", fmt.Errorf("%w: install Chrome or set %s", ErrExecutableNotFound, ExecutableEnv)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
