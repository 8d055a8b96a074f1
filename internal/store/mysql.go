package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/ppiankov/casedesk/internal/model"
)

type userRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	FullName     string `gorm:"size:255;not null"`
	Role         string `gorm:"size:16;not null"`
	BadgeNumber  string `gorm:"size:32;not null"`
	StationID    string `gorm:"size:64"`
	Department   string `gorm:"size:128;not null"`
	Designation  string `gorm:"size:128"`
	IsActive     bool   `gorm:"default:true"`
	LastLogin    *time.Time
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type petitionRow struct {
	ID                   string  `gorm:"primaryKey;size:64"`
	PetitionNumber       string  `gorm:"size:32;index;not null"`
	Title                string  `gorm:"size:512;not null"`
	Description          string  `gorm:"type:text"`
	PetitionerName       string  `gorm:"size:255"`
	PetitionerContact    string  `gorm:"size:255"`
	PetitionerAddress    string  `gorm:"size:512"`
	Status               string  `gorm:"size:32;not null"`
	Priority             string  `gorm:"size:32;not null"`
	CreatedBy            string  `gorm:"size:64;index;not null"`
	AISummary            *string `gorm:"type:text"`
	CompletionPercentage int
	FileAttachments      attachments `gorm:"type:text"`
	CreatedAt            time.Time
}

func (petitionRow) TableName() string { return "petitions" }

type analysisRow struct {
	ID              uint   `gorm:"primaryKey"`
	PetitionID      string `gorm:"size:64;index;not null"`
	Claims          int
	OverallSeverity string `gorm:"size:16"`
	Payload         string `gorm:"type:longtext"`
	CreatedAt       time.Time
}

func (analysisRow) TableName() string { return "petition_analyses" }

type evaluationRow struct {
	ID           uint   `gorm:"primaryKey"`
	EvidenceID   string `gorm:"size:64;index;not null"`
	OverallScore int
	Rating       string `gorm:"size:16"`
	Payload      string `gorm:"type:longtext"`
	CreatedAt    time.Time
}

func (evaluationRow) TableName() string { return "evidence_evaluations" }

// GormStore is the MySQL backend. Reads are spread over replicas when any
// are configured.
type GormStore struct {
	db *gorm.DB
}

// OpenMySQL connects to dsn, registers read replicas and migrates the schema
func OpenMySQL(dsn string, replicas []string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	return newGormStore(db, replicas, func(dsn string) gorm.Dialector { return mysql.Open(dsn) })
}

func newGormStore(db *gorm.DB, replicas []string, dial func(string) gorm.Dialector) (*GormStore, error) {
	if len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, r := range replicas {
			dialectors = append(dialectors, dial(r))
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, errors.Wrap(err, "register replicas")
		}
	}

	if err := db.AutoMigrate(&userRow{}, &petitionRow{}, &analysisRow{}, &evaluationRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}

	return &GormStore{db: db}, nil
}

// Ping checks the primary answers
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "ping mysql")
}

// Close closes the connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetUser loads a user by id
func (s *GormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "get user")
	}
	return row.toModel(), nil
}

// GetUserByEmail loads a user by e-mail
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&row).Error; err != nil {
		return nil, notFound(err, "get user by email")
	}
	return row.toModel(), nil
}

// CreateUser inserts u
func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	row := userRow{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         string(u.Role),
		BadgeNumber:  u.BadgeNumber,
		StationID:    u.StationID,
		Department:   u.Department,
		Designation:  u.Designation,
		IsActive:     u.IsActive,
		LastLogin:    u.LastLogin,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}

	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return errors.Wrap(err, "create user")
}

// TouchLogin records a successful login
func (s *GormStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update last login")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePetition inserts p
func (s *GormStore) CreatePetition(ctx context.Context, p *model.Petition) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	row := petitionRow{
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
		FileAttachments:      attachments(p.FileAttachments),
		CreatedAt:            p.CreatedAt,
	}

	return errors.Wrap(s.db.WithContext(ctx).Create(&row).Error, "create petition")
}

// GetPetition loads a petition by id
func (s *GormStore) GetPetition(ctx context.Context, id string) (*model.Petition, error) {
	var row petitionRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "get petition")
	}

	return &model.Petition{
		ID:                   row.ID,
		PetitionNumber:       row.PetitionNumber,
		Title:                row.Title,
		Description:          row.Description,
		PetitionerName:       row.PetitionerName,
		PetitionerContact:    row.PetitionerContact,
		PetitionerAddress:    row.PetitionerAddress,
		Status:               row.Status,
		Priority:             row.Priority,
		CreatedBy:            row.CreatedBy,
		AISummary:            row.AISummary,
		CompletionPercentage: row.CompletionPercentage,
		FileAttachments:      row.FileAttachments,
		CreatedAt:            row.CreatedAt,
	}, nil
}

// SaveAnalysis records the analysis and updates the petition summary
func (s *GormStore) SaveAnalysis(ctx context.Context, petitionID string, a *model.PetitionAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "marshal analysis")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&petitionRow{}).Where("id = ?", petitionID).Updates(map[string]interface{}{
			"ai_summary":            a.Summary,
			"completion_percentage": gorm.Expr("GREATEST(completion_percentage, ?)", AnalyzedCompletion),
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update petition summary")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		row := analysisRow{
			PetitionID:      petitionID,
			Claims:          len(a.Claims),
			OverallSeverity: string(a.OverallSeverity),
			Payload:         string(payload),
		}
		return errors.Wrap(tx.Create(&row).Error, "insert analysis")
	})
}

// SaveEvaluation records an evidence evaluation
func (s *GormStore) SaveEvaluation(ctx context.Context, evidenceID string, e *model.EvidenceEvaluation) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal evaluation")
	}

	row := evaluationRow{
		EvidenceID:   evidenceID,
		OverallScore: e.OverallScore,
		Rating:       string(e.Rating),
		Payload:      string(payload),
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(&row).Error, "insert evaluation")
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Email:        r.Email,
		FullName:     r.FullName,
		Role:         model.Role(r.Role),
		BadgeNumber:  r.BadgeNumber,
		StationID:    r.StationID,
		Department:   r.Department,
		Designation:  r.Designation,
		IsActive:     r.IsActive,
		LastLogin:    r.LastLogin,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}
