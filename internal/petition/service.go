package petition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/cache"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/store"
)

// IdempotencyTTL is how long a replayable upload result is kept
const IdempotencyTTL = 24 * time.Hour

// UploadedMessage is returned with every successful upload
const UploadedMessage = "File uploaded successfully and ready for analysis"

// StoreError is a failed store operation with a user-facing message
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// UploadRequest is one petition file submission
type UploadRequest struct {
	UserID    string
	FileName  string
	MediaType string
	Data      []byte

	// IdempotencyKey makes retries of the same submission return the first result
	IdempotencyKey string
}

// UploadResult is returned to the uploader
type UploadResult struct {
	PetitionID     string   `json:"petitionId"`
	PetitionNumber string   `json:"petitionNumber"`
	FileName       string   `json:"fileName"`
	FileType       string   `json:"fileType"`
	FileSize       int64    `json:"fileSize"`
	ContentPreview string   `json:"contentPreview"`
	Message        string   `json:"message"`
	Warnings       []string `json:"warnings,omitempty"`

	// Content is the full extracted text, kept for local pipelines
	Content string `json:"-"`
}

// Service records petition uploads
type Service struct {
	store  store.Store
	blobs  store.BlobStore
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCache enables idempotent replays
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an upload service. blobs may be nil to skip file storage.
func NewService(st store.Store, blobs store.BlobStore, opts ...Option) *Service {
	s := &Service{
		store:  st,
		blobs:  blobs,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload validates the file, records the petition and stores the raw file.
// The file write is best-effort: its failure becomes a warning on the result.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	replayKey := ""
	if req.IdempotencyKey != "" && s.cache != nil {
		replayKey = cache.Key("upload", req.UserID+"|"+req.IdempotencyKey)
		if cached, ok := s.cache.Get(ctx, replayKey); ok {
			var result UploadResult
			if err := json.Unmarshal(cached, &result); err == nil {
				s.logger.Info("upload replayed",
					zap.String("petition_number", result.PetitionNumber),
					zap.String("user_id", req.UserID))
				return &result, nil
			}
		}
	}

	info := FileInfo{
		Name:      req.FileName,
		MediaType: ResolveType(req.MediaType, req.Data),
		Size:      int64(len(req.Data)),
	}
	if err := ValidateUpload(info, req.UserID); err != nil {
		return nil, err
	}

	text, err := ExtractText(info, req.Data)
	if err != nil {
		return nil, err
	}

	// Only accepted uploads create the placeholder user
	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	number := Number(now)

	p := &model.Petition{
		PetitionNumber:    number,
		Title:             "Petition from " + info.Name,
		Description:       Description(text),
		PetitionerName:    model.PendingExtraction,
		PetitionerContact: model.PendingExtraction,
		PetitionerAddress: model.PendingExtraction,
		Status:            model.PetitionStatusPending,
		Priority:          model.PetitionPriorityMedium,
		CreatedBy:         req.UserID,
		FileAttachments: []model.FileAttachment{{
			FileName:   info.Name,
			FileType:   info.MediaType,
			FileSize:   info.Size,
			UploadedAt: now.UTC(),
		}},
	}
	if err := s.store.CreatePetition(ctx, p); err != nil {
		s.logger.Error("create petition failed", zap.Error(err))
		return nil, &StoreError{Message: "Failed to create petition record", Err: err}
	}

	result := &UploadResult{
		PetitionID:     p.ID,
		PetitionNumber: number,
		FileName:       info.Name,
		FileType:       info.MediaType,
		FileSize:       info.Size,
		ContentPreview: Preview(text),
		Message:        UploadedMessage,
		Content:        text,
	}

	if s.blobs != nil {
		key := BlobKey(number, info.Name)
		if err := s.blobs.Put(ctx, key, bytes.NewReader(req.Data), info.Size, info.MediaType); err != nil {
			s.logger.Warn("file storage failed (non-critical)", zap.String("key", key), zap.Error(err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("File storage failed: %v. The petition record was created.", err))
		}
	}

	s.logger.Info("petition uploaded",
		zap.String("petition_number", number),
		zap.String("file", info.Name),
		zap.String("type", info.MediaType),
		zap.String("user_id", req.UserID))

	if replayKey != "" {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, replayKey, data, IdempotencyTTL); err != nil {
				s.logger.Warn("cache upload result failed", zap.Error(err))
			}
		}
	}

	return result, nil
}

// ensureUser creates a placeholder officer row for unknown user ids
func (s *Service) ensureUser(ctx context.Context, userID string) error {
	_, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return &StoreError{Message: "Failed to verify user", Err: err}
	}

	u := PlaceholderUser(userID)
	if err := s.store.CreateUser(ctx, u); err != nil && !errors.Is(err, store.ErrConflict) {
		s.logger.Error("create user failed", zap.String("user_id", userID), zap.Error(err))
		return &StoreError{Message: "Failed to create user record", Err: err}
	}

	s.logger.Info("placeholder user created", zap.String("user_id", userID))
	return nil
}

// PlaceholderUser is the officer row created for an unknown uploader
func PlaceholderUser(userID string) *model.User {
	return &model.User{
		ID:          userID,
		Email:       fmt.Sprintf("user-%s@system.local", tail(userID, 8)),
		FullName:    "System User",
		BadgeNumber: "USR" + strings.ToUpper(tail(userID, 6)),
		Role:        model.RoleIO,
		Department:  model.DefaultDepartment,
		IsActive:    true,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
