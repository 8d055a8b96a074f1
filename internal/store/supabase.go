package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ppiankov/casedesk/internal/model"
)

// SupabaseStore talks to a Supabase project's PostgREST endpoint with the
// service role key. Row-level security is bypassed by that key.
type SupabaseStore struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewSupabaseStore creates a REST-backed store
func NewSupabaseStore(baseURL, serviceKey string, httpClient *http.Client) (*SupabaseStore, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, errors.Wrap(ErrNotConfigured, "supabase url and service role key are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SupabaseStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        serviceKey,
		httpClient: httpClient,
	}, nil
}

type supabaseUser struct {
	ID           string     `json:"id,omitempty"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	BadgeNumber  string     `json:"badge_number"`
	StationID    *string    `json:"station_id,omitempty"`
	Department   string     `json:"department"`
	Designation  *string    `json:"designation,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

type supabasePetition struct {
	ID                   string                 `json:"id,omitempty"`
	PetitionNumber       string                 `json:"petition_number"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description"`
	PetitionerName       string                 `json:"petitioner_name"`
	PetitionerContact    string                 `json:"petitioner_contact"`
	PetitionerAddress    string                 `json:"petitioner_address"`
	Status               string                 `json:"status"`
	Priority             string                 `json:"priority"`
	CreatedBy            string                 `json:"created_by"`
	AISummary            *string                `json:"ai_summary"`
	CompletionPercentage int                    `json:"completion_percentage"`
	FileAttachments      []model.FileAttachment `json:"file_attachments"`
	CreatedAt            *time.Time             `json:"created_at,omitempty"`
}

// Ping requests the PostgREST root
func (s *SupabaseStore) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, "/rest/v1/", nil, nil, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Close is a no-op; the HTTP client holds no exclusive resources
func (s *SupabaseStore) Close() error {
	return nil
}

// GetUser loads a user by id
func (s *SupabaseStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, url.Values{"id": {"eq." + id}})
}

// GetUserByEmail loads a user by e-mail, case-insensitively
func (s *SupabaseStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, url.Values{"email": {"ilike." + email}})
}

func (s *SupabaseStore) getUser(ctx context.Context, query url.Values) (*model.User, error) {
	query.Set("select", "*")
	query.Set("limit", "1")

	var rows []supabaseUser
	if err := s.getJSON(ctx, "/rest/v1/users", query, &rows); err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	r := rows[0]
	u := &model.User{
		ID:           r.ID,
		Email:        r.Email,
		FullName:     r.FullName,
		Role:         model.Role(r.Role),
		BadgeNumber:  r.BadgeNumber,
		Department:   r.Department,
		IsActive:     r.IsActive,
		LastLogin:    r.LastLogin,
		PasswordHash: r.PasswordHash,
	}
	if r.StationID != nil {
		u.StationID = *r.StationID
	}
	if r.Designation != nil {
		u.Designation = *r.Designation
	}
	if r.CreatedAt != nil {
		u.CreatedAt = *r.CreatedAt
	}
	return u, nil
}

// CreateUser inserts u
func (s *SupabaseStore) CreateUser(ctx context.Context, u *model.User) error {
	row := supabaseUser{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         string(u.Role),
		BadgeNumber:  u.BadgeNumber,
		Department:   u.Department,
		IsActive:     u.IsActive,
		PasswordHash: u.PasswordHash,
	}
	if u.StationID != "" {
		row.StationID = &u.StationID
	}
	if u.Designation != "" {
		row.Designation = &u.Designation
	}

	var created []supabaseUser
	err := s.insert(ctx, "users", row, &created)
	if err != nil {
		return errors.Wrap(err, "create user")
	}
	if len(created) > 0 {
		u.ID = created[0].ID
		if created[0].CreatedAt != nil {
			u.CreatedAt = *created[0].CreatedAt
		}
	}
	return nil
}

// TouchLogin records a successful login
func (s *SupabaseStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	var updated []supabaseUser
	err := s.update(ctx, "users", url.Values{"id": {"eq." + id}}, map[string]interface{}{"last_login": at}, &updated)
	if err != nil {
		return errors.Wrap(err, "update last login")
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePetition inserts p and reads back the generated id
func (s *SupabaseStore) CreatePetition(ctx context.Context, p *model.Petition) error {
	row := supabasePetition{
		ID:                   p.ID,
		PetitionNumber:       p.PetitionNumber,
		Title:                p.Title,
		Description:          p.Description,
		PetitionerName:       p.PetitionerName,
		PetitionerContact:    p.PetitionerContact,
		PetitionerAddress:    p.PetitionerAddress,
		Status:               p.Status,
		Priority:             p.Priority,
		CreatedBy:            p.CreatedBy,
		AISummary:            p.AISummary,
		CompletionPercentage: p.CompletionPercentage,
		FileAttachments:      p.FileAttachments,
	}

	var created []supabasePetition
	if err := s.insert(ctx, "petitions", row, &created); err != nil {
		return errors.Wrap(err, "create petition")
	}
	if len(created) == 0 {
		return errors.New("create petition: no row returned")
	}

	p.ID = created[0].ID
	if created[0].CreatedAt != nil {
		p.CreatedAt = *created[0].CreatedAt
	}
	return nil
}

// GetPetition loads a petition by id
func (s *SupabaseStore) GetPetition(ctx context.Context, id string) (*model.Petition, error) {
	var rows []supabasePetition
	query := url.Values{"id": {"eq." + id}, "select": {"*"}, "limit": {"1"}}
	if err := s.getJSON(ctx, "/rest/v1/petitions", query, &rows); err != nil {
		return nil, errors.Wrap(err, "get petition")
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	r := rows[0]
	p := &model.Petition{
		ID:                   r.ID,
		PetitionNumber:       r.PetitionNumber,
		Title:                r.Title,
		Description:          r.Description,
		PetitionerName:       r.PetitionerName,
		PetitionerContact:    r.PetitionerContact,
		PetitionerAddress:    r.PetitionerAddress,
		Status:               r.Status,
		Priority:             r.Priority,
		CreatedBy:            r.CreatedBy,
		AISummary:            r.AISummary,
		CompletionPercentage: r.CompletionPercentage,
		FileAttachments:      r.FileAttachments,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	return p, nil
}

// SaveAnalysis updates the petition summary, then records the analysis.
// PostgREST has no multi-statement transactions; the summary is written first
// so a missing petition fails before anything is recorded.
func (s *SupabaseStore) SaveAnalysis(ctx context.Context, petitionID string, a *model.PetitionAnalysis) error {
	var updated []supabasePetition
	patch := map[string]interface{}{
		"ai_summary":            a.Summary,
		"completion_percentage": AnalyzedCompletion,
	}
	err := s.update(ctx, "petitions", url.Values{"id": {"eq." + petitionID}}, patch, &updated)
	if err != nil {
		return errors.Wrap(err, "update petition summary")
	}
	if len(updated) == 0 {
		return ErrNotFound
	}

	row := map[string]interface{}{
		"petition_id":      petitionID,
		"claims":           len(a.Claims),
		"overall_severity": a.OverallSeverity,
		"payload":          a,
	}
	return errors.Wrap(s.insert(ctx, "petition_analyses", row, nil), "insert analysis")
}

// SaveEvaluation records an evidence evaluation
func (s *SupabaseStore) SaveEvaluation(ctx context.Context, evidenceID string, e *model.EvidenceEvaluation) error {
	row := map[string]interface{}{
		"evidence_id":   evidenceID,
		"overall_score": e.OverallScore,
		"rating":        e.Rating,
		"payload":       e,
	}
	return errors.Wrap(s.insert(ctx, "evidence_evaluations", row, nil), "insert evaluation")
}

func (s *SupabaseStore) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := s.do(ctx, http.MethodGet, path, query, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

func (s *SupabaseStore) insert(ctx context.Context, table string, row interface{}, out interface{}) error {
	return s.write(ctx, http.MethodPost, table, nil, row, out)
}

func (s *SupabaseStore) update(ctx context.Context, table string, query url.Values, patch interface{}, out interface{}) error {
	return s.write(ctx, http.MethodPatch, table, query, patch, out)
}

func (s *SupabaseStore) write(ctx context.Context, method, table string, query url.Values, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal row")
	}

	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"Prefer":       prefer,
	}

	resp, err := s.do(ctx, method, "/rest/v1/"+table, query, bytes.NewReader(payload), headers)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

// do sends an authenticated request and turns non-2xx answers into errors
func (s *SupabaseStore) do(ctx context.Context, method, path string, query url.Values, body io.Reader, headers map[string]string) (*http.Response, error) {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "execute request")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusConflict {
		return nil, ErrConflict
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}

// APIError is a non-2xx answer from Supabase
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase API error (%d): %s", e.StatusCode, e.Body)
}
