// Package store persists officers, petitions and AI results.
//
// Three relational backends implement Store: an embedded SQLite database,
// MySQL through gorm, and a Supabase project through its REST API. Raw
// petition files go to a BlobStore, either a local directory or Supabase
// Storage.
package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/ppiankov/casedesk/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique column already holds the value
	ErrConflict = errors.New("record already exists")

	// ErrNotConfigured is returned when a backend lacks its credentials
	ErrNotConfigured = errors.New("store not configured")
)

// Store is the relational store for officers, petitions and AI results
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	TouchLogin(ctx context.Context, id string, at time.Time) error

	// CreatePetition inserts p and fills in its ID and CreatedAt
	CreatePetition(ctx context.Context, p *model.Petition) error
	GetPetition(ctx context.Context, id string) (*model.Petition, error)

	// SaveAnalysis records an analysis and copies its summary onto the petition
	SaveAnalysis(ctx context.Context, petitionID string, a *model.PetitionAnalysis) error
	SaveEvaluation(ctx context.Context, evidenceID string, e *model.EvidenceEvaluation) error

	Close() error
}

// BlobStore holds raw petition files
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// attachments stores file metadata as a JSON text column
type attachments []model.FileAttachment

// Value implements driver.Valuer
func (a attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]model.FileAttachment(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *attachments) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.Errorf("unsupported attachments type %T", value)
	}

	var out []model.FileAttachment
	if err := json.Unmarshal(raw, &out); err != nil {
		return errors.Wrap(err, "decode attachments")
	}
	*a = out
	return nil
}
