package petition

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/casedesk/internal/cache"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/store"
)

type recordingBlobs struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (b *recordingBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if b.err != nil {
		return b.err
	}
	_, _ = io.Copy(io.Discard, r)
	b.mu.Lock()
	b.keys = append(b.keys, key)
	b.mu.Unlock()
	return nil
}

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "petitions.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var fixedNow = time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

func TestService_Upload_PDF(t *testing.T) {
	st := openStore(t)
	blobs := &recordingBlobs{}
	svc := NewService(st, blobs, WithClock(func() time.Time { return fixedNow }))

	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("0"), 2<<20)...)

	result, err := svc.Upload(context.Background(), UploadRequest{
		UserID:    "2b7e1516-28ae-d2a6-abf7-158809cf4f3c",
		FileName:  "complaint.pdf",
		MediaType: TypePDF,
		Data:      data,
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !NumberPattern.MatchString(result.PetitionNumber) {
		t.Errorf("Unexpected petition number %s", result.PetitionNumber)
	}
	if result.Message != UploadedMessage {
		t.Errorf("Unexpected message %q", result.Message)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
	if len(blobs.keys) != 1 || blobs.keys[0] != result.PetitionNumber+"-complaint.pdf" {
		t.Errorf("Unexpected blob keys %v", blobs.keys)
	}

	p, err := st.GetPetition(context.Background(), result.PetitionID)
	if err != nil {
		t.Fatalf("Expected stored petition: %v", err)
	}
	if p.Title != "Petition from complaint.pdf" || p.Status != model.PetitionStatusPending {
		t.Errorf("Unexpected petition %+v", p)
	}
	if p.PetitionerName != model.PendingExtraction {
		t.Errorf("Expected pending petitioner name, got %s", p.PetitionerName)
	}

	u, err := st.GetUser(context.Background(), "2b7e1516-28ae-d2a6-abf7-158809cf4f3c")
	if err != nil {
		t.Fatalf("Expected placeholder user: %v", err)
	}
	if u.FullName != "System User" || u.BadgeNumber != "USRCF4F3C" || u.Role != model.RoleIO {
		t.Errorf("Unexpected placeholder user %+v", u)
	}
	if u.Email != "user-09cf4f3c@system.local" {
		t.Errorf("Unexpected placeholder email %s", u.Email)
	}
}

func TestService_Upload_ZeroBytes(t *testing.T) {
	st := openStore(t)
	blobs := &recordingBlobs{}
	svc := NewService(st, blobs)

	_, err := svc.Upload(context.Background(), UploadRequest{
		UserID:    "u1",
		FileName:  "empty.txt",
		MediaType: TypeText,
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, err := st.GetUser(context.Background(), "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected no side effects, got user lookup %v", err)
	}
	if len(blobs.keys) != 0 {
		t.Errorf("Expected no blobs, got %v", blobs.keys)
	}
}

func TestService_Upload_UnreadableContentCreatesNoUser(t *testing.T) {
	st := openStore(t)
	blobs := &recordingBlobs{}
	svc := NewService(st, blobs)

	_, err := svc.Upload(context.Background(), UploadRequest{
		UserID:    "u2",
		FileName:  "blank.txt",
		MediaType: TypeText,
		Data:      []byte("   \n\t  \n"),
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, err := st.GetUser(context.Background(), "u2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected no placeholder user, got user lookup %v", err)
	}
	if len(blobs.keys) != 0 {
		t.Errorf("Expected no blobs, got %v", blobs.keys)
	}
}

func TestService_Upload_BlobFailureIsWarning(t *testing.T) {
	st := openStore(t)
	svc := NewService(st, &recordingBlobs{err: errors.New("bucket unavailable")})

	result, err := svc.Upload(context.Background(), UploadRequest{
		UserID:   "u1",
		FileName: "complaint.txt",
		Data:     []byte("The accused threatened my family on 2 March."),
	})
	if err != nil {
		t.Fatalf("Expected success despite blob failure, got %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "bucket unavailable") {
		t.Errorf("Expected storage warning, got %v", result.Warnings)
	}
	if result.FileType != TypeText {
		t.Errorf("Expected sniffed text/plain, got %s", result.FileType)
	}
	if _, err := st.GetPetition(context.Background(), result.PetitionID); err != nil {
		t.Errorf("Expected petition to persist: %v", err)
	}
}

func TestService_Upload_IdempotencyKey(t *testing.T) {
	st := openStore(t)
	blobs := &recordingBlobs{}
	c := cache.NewMemoryCache(time.Hour, time.Hour)

	tick := fixedNow
	svc := NewService(st, blobs, WithCache(c), WithClock(func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}))

	req := UploadRequest{
		UserID:         "u1",
		FileName:       "complaint.txt",
		MediaType:      TypeText,
		Data:           []byte("The accused threatened my family on 2 March."),
		IdempotencyKey: "retry-1",
	}

	first, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("First upload failed: %v", err)
	}
	second, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Second upload failed: %v", err)
	}

	if first.PetitionID != second.PetitionID || first.PetitionNumber != second.PetitionNumber {
		t.Errorf("Expected replayed result, got %s and %s", first.PetitionNumber, second.PetitionNumber)
	}
	if len(blobs.keys) != 1 {
		t.Errorf("Expected one stored file, got %d", len(blobs.keys))
	}

	req.IdempotencyKey = "retry-2"
	third, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Third upload failed: %v", err)
	}
	if third.PetitionID == first.PetitionID {
		t.Error("Expected a new petition for a new key")
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) GetUser(context.Context, string) (*model.User, error) {
	return nil, errors.New("connection refused")
}

func TestService_Upload_UserLookupFails(t *testing.T) {
	svc := NewService(failingStore{}, nil)

	_, err := svc.Upload(context.Background(), UploadRequest{
		UserID:   "u1",
		FileName: "a.txt",
		Data:     []byte("some petition text"),
	})

	var serr *StoreError
	if !errors.As(err, &serr) || serr.Message != "Failed to verify user" {
		t.Errorf("Expected verify user StoreError, got %v", err)
	}
}
