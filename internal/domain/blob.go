package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// ArchivedReport describes one stored daily report.
type ArchivedReport struct {
	Date      time.Time
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// ReportArchiver stores rendered reports and graded exports.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, date time.Time, markdown string) (string, error)
	ArchiveGraded(ctx context.Context, date time.Time, picks []Pick) (string, error)
}
