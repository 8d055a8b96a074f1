package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/casedesk/internal/model"
)

func TestSupabaseStore_CreatePetition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/petitions" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("Expected service key headers, got %v", r.Header)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Expected return=representation, got %s", r.Header.Get("Prefer"))
		}

		var row map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if row["petition_number"] != "P-2024/00042" {
			t.Errorf("Unexpected petition number: %v", row["petition_number"])
		}
		if _, ok := row["file_attachments"].([]interface{}); !ok {
			t.Errorf("Expected file_attachments array, got %T", row["file_attachments"])
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id": "9f1c", "petition_number": "P-2024/00042", "created_at": "2024-05-02T09:30:00Z"}]`))
	}))
	defer server.Close()

	s, err := NewSupabaseStore(server.URL, "service-key", server.Client())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	p := &model.Petition{
		PetitionNumber:  "P-2024/00042",
		Status:          model.PetitionStatusPending,
		FileAttachments: []model.FileAttachment{{FileName: "a.txt"}},
	}
	if err := s.CreatePetition(context.Background(), p); err != nil {
		t.Fatalf("CreatePetition failed: %v", err)
	}
	if p.ID != "9f1c" {
		t.Errorf("Expected id 9f1c, got %s", p.ID)
	}
	if p.CreatedAt.IsZero() {
		t.Error("Expected created_at to be read back")
	}
}

func TestSupabaseStore_GetUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "eq.abc" {
			t.Errorf("Expected id filter eq.abc, got %s", r.URL.Query().Get("id"))
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	s, _ := NewSupabaseStore(server.URL, "k", server.Client())

	if _, err := s.GetUser(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSupabaseStore_CreateUser_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value"}`))
	}))
	defer server.Close()

	s, _ := NewSupabaseStore(server.URL, "k", server.Client())

	err := s.CreateUser(context.Background(), &model.User{Email: "a@b.c"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestSupabaseStore_Ping_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer server.Close()

	s, _ := NewSupabaseStore(server.URL, "bad", server.Client())

	err := s.Ping(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 APIError, got %v", err)
	}
}

func TestNewSupabaseStore_MissingConfig(t *testing.T) {
	if _, err := NewSupabaseStore("", "", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestSupabaseBlobStore_Put(t *testing.T) {
	var gotPath, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.Header.Get("x-upsert") != "false" {
			t.Errorf("Expected x-upsert false, got %s", r.Header.Get("x-upsert"))
		}
		_, _ = w.Write([]byte(`{"Key":"petition-files/x"}`))
	}))
	defer server.Close()

	b := NewSupabaseBlobStore(server.URL, "k", "petition-files", server.Client())

	err := b.Put(context.Background(), "P-2024/00042-my file.txt", stringsReader("hello"), 5, "text/plain")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if gotPath != "/storage/v1/object/petition-files/P-2024/00042-my%20file.txt" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotBody != "hello" || gotType != "text/plain" {
		t.Errorf("Unexpected upload body %q type %q", gotBody, gotType)
	}
}
