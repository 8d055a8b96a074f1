package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/casedesk/internal/model"
)

// SQLiteStore is the embedded backend.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens or creates the database at path. ":memory:" opens a
// shared in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "enable WAL mode")
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create tables")
	}

	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL,
		badge_number TEXT NOT NULL,
		station_id TEXT,
		department TEXT NOT NULL,
		designation TEXT,
		is_active INTEGER DEFAULT 1,
		last_login TEXT,
		password_hash TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS petitions (
		id TEXT PRIMARY KEY,
		petition_number TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		petitioner_name TEXT,
		petitioner_contact TEXT,
		petitioner_address TEXT,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		created_by TEXT NOT NULL REFERENCES users(id),
		ai_summary TEXT,
		completion_percentage INTEGER DEFAULT 0,
		file_attachments TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS petition_analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		petition_id TEXT NOT NULL,
		claims INTEGER NOT NULL,
		overall_severity TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS evidence_evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		evidence_id TEXT NOT NULL,
		overall_score INTEGER NOT NULL,
		rating TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_petitions_created_by ON petitions(created_by);
	CREATE INDEX IF NOT EXISTS idx_analyses_petition ON petition_analyses(petition_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_evidence ON evidence_evaluations(evidence_id);
	`

	_, err := s.db.Exec(schema)
	return errors.Wrap(err, "execute schema")
}

// Ping checks the database answers
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping sqlite")
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const userColumns = `id, email, full_name, role, badge_number, station_id, department,
	designation, is_active, last_login, password_hash, created_at`

// GetUser loads a user by id
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail loads a user by e-mail, case-insensitively
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u                            model.User
		role                         string
		stationID, designation, hash sql.NullString
		lastLogin                    sql.NullString
		createdAt                    string
		active                       int
	)

	err := row.Scan(&u.ID, &u.Email, &u.FullName, &role, &u.BadgeNumber, &stationID,
		&u.Department, &designation, &active, &lastLogin, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan user")
	}

	u.Role = model.Role(role)
	u.StationID = stationID.String
	u.Designation = designation.String
	u.PasswordHash = hash.String
	u.IsActive = active != 0
	u.CreatedAt = parseTime(createdAt)
	if lastLogin.Valid {
		t := parseTime(lastLogin.String)
		u.LastLogin = &t
	}

	return &u, nil
}

// CreateUser inserts u, assigning an id when empty
func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, string(u.Role), u.BadgeNumber, nullString(u.StationID),
		u.Department, nullString(u.Designation), boolInt(u.IsActive), nullTime(u.LastLogin),
		nullString(u.PasswordHash), formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

// TouchLogin records a successful login
func (s *SQLiteStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return errors.Wrap(err, "update last login")
	}
	return requireRow(res)
}

// CreatePetition inserts p
func (s *SQLiteStore) CreatePetition(ctx context.Context, p *model.Petition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO petitions (id, petition_number, title, description, petitioner_name,
			petitioner_contact, petitioner_address, status, priority, created_by, ai_summary,
			completion_percentage, file_attachments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PetitionNumber, p.Title, p.Description, p.PetitionerName,
		p.PetitionerContact, p.PetitionerAddress, p.Status, p.Priority, p.CreatedBy,
		p.AISummary, p.CompletionPercentage, attachments(p.FileAttachments), formatTime(p.CreatedAt))
	return errors.Wrap(err, "insert petition")
}

// GetPetition loads a petition by id
func (s *SQLiteStore) GetPetition(ctx context.Context, id string) (*model.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p         model.Petition
		summary   sql.NullString
		files     attachments
		createdAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, petition_number, title, description, petitioner_name, petitioner_contact,
			petitioner_address, status, priority, created_by, ai_summary, completion_percentage,
			file_attachments, created_at
		FROM petitions WHERE id = ?`, id).Scan(
		&p.ID, &p.PetitionNumber, &p.Title, &p.Description, &p.PetitionerName, &p.PetitionerContact,
		&p.PetitionerAddress, &p.Status, &p.Priority, &p.CreatedBy, &summary, &p.CompletionPercentage,
		&files, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan petition")
	}

	if summary.Valid {
		p.AISummary = &summary.String
	}
	p.FileAttachments = files
	p.CreatedAt = parseTime(createdAt)

	return &p, nil
}

// SaveAnalysis records the analysis and updates the petition summary
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, petitionID string, a *model.PetitionAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "marshal analysis")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE petitions SET ai_summary = ?, completion_percentage = MAX(completion_percentage, ?)
		WHERE id = ?`, a.Summary, AnalyzedCompletion, petitionID)
	if err != nil {
		return errors.Wrap(err, "update petition summary")
	}
	if err := requireRow(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO petition_analyses (petition_id, claims, overall_severity, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		petitionID, len(a.Claims), string(a.OverallSeverity), string(payload), formatTime(time.Now()))
	if err != nil {
		return errors.Wrap(err, "insert analysis")
	}

	return errors.Wrap(tx.Commit(), "commit analysis")
}

// SaveEvaluation records an evidence evaluation
func (s *SQLiteStore) SaveEvaluation(ctx context.Context, evidenceID string, e *model.EvidenceEvaluation) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal evaluation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evidence_evaluations (evidence_id, overall_score, rating, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		evidenceID, e.OverallScore, string(e.Rating), string(payload), formatTime(time.Now()))
	return errors.Wrap(err, "insert evaluation")
}

// AnalyzedCompletion is the completion percentage recorded once claims exist
const AnalyzedCompletion = 25

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
