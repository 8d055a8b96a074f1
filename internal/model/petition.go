package model

import "time"

// Petition status and priority values written on intake
const (
	PetitionStatusPending  = "pending"
	PetitionPriorityMedium = "medium"
	PendingExtraction      = "To be extracted"
)

// Petition is a submitted case document as stored in the petitions table
type Petition struct {
	ID                   string           `json:"id"`
	PetitionNumber       string           `json:"petitionNumber"` // P-<year>/<5 digits>
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	PetitionerName       string           `json:"petitionerName"`
	PetitionerContact    string           `json:"petitionerContact"`
	PetitionerAddress    string           `json:"petitionerAddress"`
	Status               string           `json:"status"`
	Priority             string           `json:"priority"`
	CreatedBy            string           `json:"createdBy"`
	AISummary            *string          `json:"aiSummary"`
	CompletionPercentage int              `json:"completionPercentage"`
	FileAttachments      []FileAttachment `json:"fileAttachments"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// FileAttachment describes the raw file behind a petition
type FileAttachment struct {
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
}
