package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
)

// AuditLog appends outcomes to a file that is never truncated.
type AuditLog struct {
	file *os.File
	path string
}

// OpenAuditLog creates dir if needed and opens its audit log for appending.
func OpenAuditLog(dir string) (*AuditLog, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create raw dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, AuditLogFile)
	// #nosec G304 -- path is built from the configured raw directory.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	return &AuditLog{file: f, path: path}, nil
}

// Append writes one outcome line and syncs it to disk before returning.
func (a *AuditLog) Append(_ context.Context, outcome catalog.FetchOutcome) error {
	line, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	line = append(line, '\n')
	if _, err := a.file.Write(line); err != nil {
		return fmt.Errorf("append audit log %s: %w", a.path, err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("sync audit log %s: %w", a.path, err)
	}
	return nil
}

// Path returns the audit log location.
func (a *AuditLog) Path() string {
	return a.path
}

// Close closes the file.
func (a *AuditLog) Close() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("close audit log %s: %w", a.path, err)
	}
	return nil
}

// ReadAuditLog loads every outcome in the log, tolerating a truncated final line.
func ReadAuditLog(path string, logger *zap.Logger) ([]catalog.FetchOutcome, error) {
	logger = logging.OrNop(logger)
	// #nosec G304 -- path is built from the configured raw directory.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("close audit log failed", zap.String("path", path), zap.Error(cerr))
		}
	}()

	var outcomes []catalog.FetchOutcome
	err = eachLine(f, func(lineNo int, line []byte, terminated bool) error {
		var outcome catalog.FetchOutcome
		if err := json.Unmarshal(line, &outcome); err != nil {
			if !terminated {
				logger.Warn("dropping truncated final outcome", zap.String("path", path), zap.Int("line", lineNo))
				return nil
			}
			return fmt.Errorf("decode %s line %d: %w", path, lineNo, err)
		}
		outcomes = append(outcomes, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
