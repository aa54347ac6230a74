// Package publish archives the artifacts of a run and announces them.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
)

// Content types of the archived artifacts.
const (
	ContentTypeJSONL = "application/x-ndjson"
	ContentTypeCSV   = "text/csv"
)

// Run describes the artifacts produced by one run.
type Run struct {
	ID         string
	RawPath    string
	ExportPath string
	Rows       int
}

// Notification is the JSON payload announcing a published export.
type Notification struct {
	RunID     string    `json:"run_id"`
	ExportURI string    `json:"export_uri"`
	RawURI    string    `json:"raw_uri"`
	Rows      int       `json:"rows"`
	SHA256    string    `json:"sha256"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher uploads run artifacts to a blob store under prefix/runID/.
type Publisher struct {
	store    catalog.BlobStore
	notifier catalog.Publisher
	hasher   catalog.Hasher
	clock    catalog.Clock
	prefix   string
	logger   *zap.Logger
}

// New returns a Publisher. notifier may be nil.
func New(
	store catalog.BlobStore,
	notifier catalog.Publisher,
	hasher catalog.Hasher,
	clock catalog.Clock,
	prefix string,
	logger *zap.Logger,
) *Publisher {
	return &Publisher{
		store:    store,
		notifier: notifier,
		hasher:   hasher,
		clock:    clock,
		prefix:   strings.Trim(prefix, "/"),
		logger:   logging.OrNop(logger),
	}
}

// Publish uploads the raw store and the export, then sends the notification
// when a notifier is configured.
func (p *Publisher) Publish(ctx context.Context, run Run) (Notification, error) {
	if run.ID == "" {
		return Notification{}, errors.New("run id is required")
	}

	export, err := os.ReadFile(run.ExportPath)
	if err != nil {
		return Notification{}, fmt.Errorf("read export: %w", err)
	}
	digest, err := p.hasher.Hash(export)
	if err != nil {
		return Notification{}, fmt.Errorf("hash export: %w", err)
	}

	rawURI, err := p.uploadFile(ctx, run.ID, run.RawPath, ContentTypeJSONL)
	if err != nil {
		return Notification{}, err
	}
	exportURI, err := p.store.PutObject(ctx, p.objectPath(run.ID, run.ExportPath), ContentTypeCSV, bytes.NewReader(export))
	if err != nil {
		return Notification{}, fmt.Errorf("upload export: %w", err)
	}

	note := Notification{
		RunID:     run.ID,
		ExportURI: exportURI,
		RawURI:    rawURI,
		Rows:      run.Rows,
		SHA256:    digest,
		Timestamp: p.clock.Now().UTC(),
	}
	p.logger.Info("artifacts published",
		zap.String("export_uri", exportURI),
		zap.String("raw_uri", rawURI),
		zap.String("sha256", digest),
		zap.Int("rows", run.Rows),
	)

	if p.notifier == nil {
		return note, nil
	}
	msgID, err := p.notifier.Publish(ctx, note)
	if err != nil {
		return note, fmt.Errorf("notify: %w", err)
	}
	p.logger.Info("run notification sent", zap.String("message_id", msgID))
	return note, nil
}

func (p *Publisher) uploadFile(ctx context.Context, runID, localPath, contentType string) (string, error) {
	// #nosec G304 -- path is built from the configured raw directory.
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() {
		_ = f.Close()
	}()
	uri, err := p.store.PutObject(ctx, p.objectPath(runID, localPath), contentType, f)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(localPath), err)
	}
	return uri, nil
}

func (p *Publisher) objectPath(runID, localPath string) string {
	return path.Join(p.prefix, runID, filepath.Base(localPath))
}
