package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// OpportunityHistorySource provides read access to stored opportunity
// records for archival. The Postgres store satisfies it through its
// Recent method adapted to a time-ranged query.
type OpportunityHistorySource interface {
	Recent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error)
}

// Archiver uploads raw venue snapshots and opportunity history to an
// S3-compatible bucket for later inspection. Failures are logged and
// reported but never fatal to a scan cycle.
type Archiver struct {
	writer  domain.BlobWriter
	history OpportunityHistorySource
	clock   domain.Clock
	logger  *slog.Logger
}

// NewArchiver creates an Archiver. history may be nil when only raw
// snapshot archival is wanted.
func NewArchiver(writer domain.BlobWriter, history OpportunityHistorySource, clock domain.Clock, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:  writer,
		history: history,
		clock:   clock,
		logger:  logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveSnapshot uploads a raw venue payload under a time-partitioned key:
//
//	snapshots/{venue}/2006/01/02/150405.json
func (a *Archiver) ArchiveSnapshot(ctx context.Context, venue domain.Venue, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	now := a.clock.Now().UTC()
	key := fmt.Sprintf("snapshots/%s/%s.json", venue, now.Format("2006/01/02/150405"))
	if err := a.writer.Write(ctx, key, payload); err != nil {
		return fmt.Errorf("s3blob: archive snapshot %s: %w", venue, err)
	}
	a.logger.Debug("snapshot archived",
		slog.String("venue", string(venue)),
		slog.String("key", key),
		slog.Int("bytes", len(payload)))
	return nil
}

// ArchiveHistory serializes the most recent opportunity records to JSONL
// and uploads them under a month-partitioned key. Returns the number of
// archived records.
func (a *Archiver) ArchiveHistory(ctx context.Context, limit int) (int, error) {
	if a.history == nil {
		return 0, nil
	}
	records, err := a.history.Recent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive history query: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive history marshal: %w", err)
	}

	now := a.clock.Now().UTC()
	key := fmt.Sprintf("archive/opportunities/%s.jsonl", now.Format("2006-01"))
	if err := a.writer.Write(ctx, key, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive history upload: %w", err)
	}

	a.logger.Info("opportunity history archived",
		slog.String("key", key),
		slog.Int("count", len(records)))
	return len(records), nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
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
