package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// multipartThreshold switches uploads to the multipart manager.
const multipartThreshold = 8 * 1024 * 1024

const (
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeJSONL    = "application/x-ndjson"
)

// Archiver implements domain.ReportArchiver. Objects are laid out as
//
//	reports/2025/01/15.md
//	graded/2025-01-15.jsonl
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	audit  domain.AuditStore
}

// NewArchiver creates an Archiver. reader and audit may be nil.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, audit domain.AuditStore) *Archiver {
	return &Archiver{writer: writer, reader: reader, audit: audit}
}

const reportPrefix = "reports/"

// ReportPath is the object key of the daily report for date.
func ReportPath(date time.Time) string {
	return reportPrefix + date.Format("2006/01/02") + ".md"
}

// reportDate parses a ReportPath key back into its date.
func reportDate(path string) (time.Time, bool) {
	name, ok := strings.CutPrefix(path, reportPrefix)
	if !ok {
		return time.Time{}, false
	}
	name, ok = strings.CutSuffix(name, ".md")
	if !ok {
		return time.Time{}, false
	}
	d, err := time.Parse("2006/01/02", name)
	return d, err == nil
}

// GradedPath is the object key of the graded-pick export for date.
func GradedPath(date time.Time) string {
	return "graded/" + date.Format("2006-01-02") + ".jsonl"
}

// ArchiveReport uploads a rendered report and returns its key. Re-running a
// day overwrites the previous object.
func (a *Archiver) ArchiveReport(ctx context.Context, date time.Time, markdown string) (string, error) {
	path := ReportPath(date)
	if err := a.upload(ctx, path, []byte(markdown), contentTypeMarkdown); err != nil {
		return "", err
	}
	a.log(ctx, "archive.report", map[string]any{"path": path, "bytes": len(markdown)})
	return path, nil
}

// ArchiveGraded writes picks as JSONL and returns the key. Nothing is
// written for an empty slice.
func (a *Archiver) ArchiveGraded(ctx context.Context, date time.Time, picks []domain.Pick) (string, error) {
	if len(picks) == 0 {
		return "", nil
	}
	records := make([]gradedRecord, 0, len(picks))
	for _, p := range picks {
		records = append(records, newGradedRecord(p))
	}
	buf, err := marshalJSONL(records)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive graded marshal: %w", err)
	}

	path := GradedPath(date)
	if err := a.upload(ctx, path, buf, contentTypeJSONL); err != nil {
		return "", err
	}
	a.log(ctx, "archive.graded", map[string]any{"path": path, "count": len(picks)})
	return path, nil
}

// LoadReport returns the archived report for date, or domain.ErrNotFound.
func (a *Archiver) LoadReport(ctx context.Context, date time.Time) (string, error) {
	if a.reader == nil {
		return "", fmt.Errorf("s3blob: load report: %w", domain.ErrNotFound)
	}
	path := ReportPath(date)
	ok, err := a.reader.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("s3blob: load report %s: %w", path, domain.ErrNotFound)
	}
	rc, err := a.reader.Get(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", domain.External("s3blob: read report", err)
	}
	return string(data), nil
}

// ListReports returns the archived daily reports, newest first. Keys under
// the report prefix that do not follow the date layout are ignored.
func (a *Archiver) ListReports(ctx context.Context) ([]domain.ArchivedReport, error) {
	if a.reader == nil {
		return nil, nil
	}
	infos, err := a.reader.List(ctx, reportPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ArchivedReport, 0, len(infos))
	for _, info := range infos {
		d, ok := reportDate(info.Path)
		if !ok {
			continue
		}
		out = append(out, domain.ArchivedReport{
			Date:      d,
			Path:      info.Path,
			Size:      info.Size,
			UpdatedAt: info.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (a *Archiver) upload(ctx context.Context, path string, data []byte, contentType string) error {
	if len(data) > multipartThreshold {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(data), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(data), contentType)
}

// log records an audit entry. The upload already succeeded, so a failure
// here is not returned.
func (a *Archiver) log(ctx context.Context, event string, detail map[string]any) {
	if a.audit == nil {
		return
	}
	_ = a.audit.Log(ctx, event, detail)
}

type gradedRecord struct {
	ID          string     `json:"id"`
	GameID      string     `json:"game_id"`
	Title       string     `json:"title,omitempty"`
	Type        string     `json:"pick_type"`
	Side        string     `json:"side"`
	Line        *float64   `json:"line,omitempty"`
	Stake       float64    `json:"stake"`
	Consensus   string     `json:"consensus,omitempty"`
	Result      string     `json:"result"`
	HomeScore   *int       `json:"home_score,omitempty"`
	AwayScore   *int       `json:"away_score,omitempty"`
	Note        string     `json:"note,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty"`
}

func newGradedRecord(p domain.Pick) gradedRecord {
	return gradedRecord{
		ID:          p.ID,
		GameID:      p.GameID,
		Title:       p.Title,
		Type:        string(p.Type),
		Side:        string(p.Side),
		Line:        p.Line,
		Stake:       p.StakeOrDefault(),
		Consensus:   p.Consensus,
		Result:      string(p.Result),
		HomeScore:   p.HomeScore,
		AwayScore:   p.AwayScore,
		Note:        p.ResultNote,
		PublishedAt: p.PublishedAt,
		RecordedAt:  p.Recorded.Timestamp(),
	}
}

// marshalJSONL encodes one compact JSON object per line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.ReportArchiver = (*Archiver)(nil)
