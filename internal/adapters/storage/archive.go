package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

const contentTypeJSON = "application/json"

// ObjectWriter is the subset of ObjectStore the archiver needs.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error
}

var _ ObjectWriter = (*ObjectStore)(nil)

// archivedSignal is the stored document. Field names are stable for downstream readers.
type archivedSignal struct {
	LeadID     uuid.UUID      `json:"leadId"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Signal     domain.RawLead `json:"signal"`
}

// RawSignalArchiver writes every accepted payload to the raw signals bucket.
type RawSignalArchiver struct {
	store  ObjectWriter
	bucket string
}

// NewRawSignalArchiver creates an archiver writing to bucket.
func NewRawSignalArchiver(store ObjectWriter, bucket string) *RawSignalArchiver {
	return &RawSignalArchiver{store: store, bucket: bucket}
}

// Archive stores raw as JSON under <yyyy>/<mm>/<dd>/<leadID>/<unix-nanos>.json.
func (a *RawSignalArchiver) Archive(ctx context.Context, leadID uuid.UUID, raw domain.RawLead, receivedAt time.Time) error {
	data, err := json.Marshal(archivedSignal{LeadID: leadID, ReceivedAt: receivedAt.UTC(), Signal: raw})
	if err != nil {
		return fmt.Errorf("marshal raw signal: %w", err)
	}
	return a.store.PutObject(ctx, a.bucket, ObjectKey(leadID, receivedAt), contentTypeJSON, bytes.NewReader(data), int64(len(data)))
}

// ObjectKey returns the storage key for a payload received at t.
func ObjectKey(leadID uuid.UUID, t time.Time) string {
	t = t.UTC()
	return path.Join(t.Format("2006/01/02"), leadID.String(), fmt.Sprintf("%d.json", t.UnixNano()))
}
