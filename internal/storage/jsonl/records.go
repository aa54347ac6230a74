// Package jsonl persists raw records and audit outcomes as newline-delimited JSON.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
)

// File names inside the raw directory.
const (
	RawStoreFile = "data.jsonl"
	AuditLogFile = "audit_log.jsonl"
)

// RecordWriter writes one record per line, unbuffered, so a crash keeps every
// record written so far.
type RecordWriter struct {
	file  *os.File
	enc   *json.Encoder
	path  string
	count int
}

// CreateRecordWriter creates dir if needed and truncates its raw store.
func CreateRecordWriter(dir string) (*RecordWriter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create raw dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, RawStoreFile)
	// #nosec G304 -- path is built from the configured raw directory.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open raw store %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &RecordWriter{file: f, enc: enc, path: path}, nil
}

// WriteRecord appends rec as one JSON line.
func (w *RecordWriter) WriteRecord(rec catalog.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write record to %s: %w", w.path, err)
	}
	w.count++
	return nil
}

// Path returns the raw store location.
func (w *RecordWriter) Path() string {
	return w.path
}

// Count returns how many records were written.
func (w *RecordWriter) Count() int {
	return w.count
}

// Close syncs and closes the file.
func (w *RecordWriter) Close() error {
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	if err := errors.Join(syncErr, closeErr); err != nil {
		return fmt.Errorf("close raw store %s: %w", w.path, err)
	}
	return nil
}

// ReadRecords loads a raw store. Blank lines are skipped. A final line without
// a newline that fails to decode is treated as an interrupted write and dropped.
func ReadRecords(path string, logger *zap.Logger) ([]catalog.Record, error) {
	logger = logging.OrNop(logger)
	// #nosec G304 -- path is built from the configured raw directory.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw store %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("close raw store failed", zap.String("path", path), zap.Error(cerr))
		}
	}()

	var records []catalog.Record
	err = eachLine(f, func(lineNo int, line []byte, terminated bool) error {
		var rec catalog.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			if !terminated {
				logger.Warn("dropping truncated final record", zap.String("path", path), zap.Int("line", lineNo))
				return nil
			}
			return fmt.Errorf("decode %s line %d: %w", path, lineNo, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// eachLine calls fn for every non-blank line. terminated is false only for a
// final line with no trailing newline.
func eachLine(r io.Reader, fn func(lineNo int, line []byte, terminated bool) error) error {
	reader := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		raw, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read line %d: %w", lineNo, err)
		}
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			if fnErr := fn(lineNo, line, err == nil); fnErr != nil {
				return fnErr
			}
		}
		if err != nil {
			return nil
		}
	}
}
