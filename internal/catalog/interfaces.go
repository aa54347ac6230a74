package catalog

import (
	"context"
	"io"
	"time"
)

// Fetcher returns the UTF-8 text of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RecordSink receives each record as soon as it is extracted.
type RecordSink interface {
	WriteRecord(rec Record) error
}

// AuditLog appends fetch outcomes.
type AuditLog interface {
	Append(ctx context.Context, outcome FetchOutcome) error
}

// OutcomeMirror stores audit outcomes outside the file log.
type OutcomeMirror interface {
	StoreOutcome(ctx context.Context, runID string, outcome FetchOutcome) error
}

// BlobStore writes run artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
}

// Hasher computes digests of exported artifacts.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
