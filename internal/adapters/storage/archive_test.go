package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

type fakeWriter struct {
	bucket      string
	key         string
	contentType string
	body        []byte
	size        int64
	err         error
}

func (f *fakeWriter) PutObject(_ context.Context, bucket, key, contentType string, reader io.Reader, size int64) error {
	if f.err != nil {
		return f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.bucket, f.key, f.contentType, f.body, f.size = bucket, key, contentType, body, size
	return nil
}

func TestArchiveWritesJSONDocument(t *testing.T) {
	w := &fakeWriter{}
	a := NewRawSignalArchiver(w, "raw-signals")
	leadID := uuid.MustParse("7d3c2a9e-1f5b-4a8e-9c6d-2b1e0f4a5c7d")
	received := time.Date(2026, 3, 1, 9, 30, 0, 42, time.UTC)

	raw := domain.RawLead{Name: "Jessica Park", Source: "reddit.com/r/cars", RawText: "ready to buy"}
	if err := a.Archive(context.Background(), leadID, raw, received); err != nil {
		t.Fatalf("archive: %v", err)
	}

	if w.bucket != "raw-signals" || w.contentType != contentTypeJSON {
		t.Fatalf("unexpected destination %q %q", w.bucket, w.contentType)
	}
	wantKey := "2026/03/01/7d3c2a9e-1f5b-4a8e-9c6d-2b1e0f4a5c7d/" + "1772357400000000042.json"
	if w.key != wantKey {
		t.Fatalf("expected key %q, got %q", wantKey, w.key)
	}
	if w.size != int64(len(w.body)) {
		t.Fatalf("size %d does not match body length %d", w.size, len(w.body))
	}

	var doc archivedSignal
	if err := json.Unmarshal(w.body, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.LeadID != leadID || doc.Signal.Name != "Jessica Park" || !doc.ReceivedAt.Equal(received) {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestArchivePropagatesStoreErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("bucket missing")}
	a := NewRawSignalArchiver(w, "raw-signals")

	err := a.Archive(context.Background(), uuid.New(), domain.RawLead{Name: "Sam"}, time.Now())
	if !errors.Is(err, w.err) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestObjectKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	leadID := uuid.New()
	key := ObjectKey(leadID, time.Date(2026, 3, 2, 5, 0, 0, 0, loc))
	if key[:10] != "2026/03/01" {
		t.Fatalf("expected UTC date prefix, got %q", key)
	}
}

func TestNewObjectStoreRequiresEndpoint(t *testing.T) {
	if _, err := NewObjectStore(disabledConfig{}); err == nil {
		t.Fatalf("expected error when MinIO is disabled")
	}
}

type disabledConfig struct{}

func (disabledConfig) GetMinIOEndpoint() string  { return "" }
func (disabledConfig) GetMinIOAccessKey() string { return "" }
func (disabledConfig) GetMinIOSecretKey() string { return "" }
func (disabledConfig) GetMinIOUseSSL() bool      { return false }
func (disabledConfig) IsMinIOEnabled() bool      { return false }
