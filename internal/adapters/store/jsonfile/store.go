package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/weibo-autopilot/internal/ports"
)

const (
	storeDirMode    = 0o700
	documentMode    = 0o600
	tempFilePattern = ".document-*.tmp"
)

// Store keeps JSON documents as files under one directory.
type Store struct {
	root   string
	logger *slog.Logger
	mu     sync.RWMutex
}

var _ ports.DocumentStore = (*Store)(nil)

func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: filepath.Clean(root), logger: logger.With("component", "store")}
}

func (s *Store) Root() string {
	return s.root
}

// Load decodes the named document into dst. It reports false when the
// document is missing, unreadable, corrupt or the JSON literal null.
func (s *Store) Load(ctx context.Context, name string, dst any) bool {
	if ctx.Err() != nil {
		return false
	}

	path, err := s.pathForName(name)
	if err != nil {
		s.logger.Warn("invalid document name", "name", name, "error", err)
		return false
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read document", "name", name, "error", err)
		}
		return false
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("corrupt document ignored", "name", name, "error", err)
		return false
	}
	return true
}

// Save writes value as indented JSON, replacing the document atomically.
func (s *Store) Save(ctx context.Context, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForName(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %q: %w", name, err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, storeDirMode); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp document: %w", err)
	}

	if err := tempFile.Chmod(documentMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp document: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp document: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace document %s: %w", filepath.Base(path), err)
	}
	cleanup = false

	return nil
}

func (s *Store) pathForName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.New("document name is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid document name %q", name)
	}

	return filepath.Join(s.root, cleaned), nil
}
