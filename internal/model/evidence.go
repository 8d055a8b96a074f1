package model

// Evidence is a supporting file attached to a claim
type Evidence struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`              // Display name of the file
	Type    string    `json:"type"`              // Document, Photo, Video, Audio, ...
	FileRef string    `json:"fileRef,omitempty"` // Blob key or external reference
	ClaimID string    `json:"claimId"`
	Rating  Rating    `json:"rating"`
	Issues  string    `json:"issues,omitempty"`
	Scores  SubScores `json:"metadata"`
}

// Rating is the qualitative evidence grade, always derived from the overall score
type Rating string

const (
	RatingGood     Rating = "Good"
	RatingModerate Rating = "Moderate"
	RatingBad      Rating = "Bad"
)

func (r Rating) String() string {
	return string(r)
}

// SubScoreCount is the number of evaluation criteria
const SubScoreCount = 8

// SubScores are the eight 0-100 evaluation criteria
type SubScores struct {
	Relevance    float64 `json:"relevance"`    // Supports the legal claim
	Clarity      float64 `json:"clarity"`      // Readability and visual quality
	Completeness float64 `json:"completeness"` // Full context and details
	Specificity  float64 `json:"specificity"`  // What, when, where, how
	Timeliness   float64 `json:"timeliness"`   // Captured close to the incident
	Credibility  float64 `json:"credibility"`  // Source verification
	Metadata     float64 `json:"metadata"`     // Timestamp, GPS, author
	ContextMatch float64 `json:"contextMatch"` // Alignment with the complaint
}

// SubScoreNames returns the JSON names of the criteria in canonical order
func SubScoreNames() [SubScoreCount]string {
	return [SubScoreCount]string{
		"relevance", "clarity", "completeness", "specificity",
		"timeliness", "credibility", "metadata", "contextMatch",
	}
}

// Values returns the criteria in the order of SubScoreNames
func (s SubScores) Values() [SubScoreCount]float64 {
	return [SubScoreCount]float64{
		s.Relevance, s.Clarity, s.Completeness, s.Specificity,
		s.Timeliness, s.Credibility, s.Metadata, s.ContextMatch,
	}
}

// SubScoresFromValues is the inverse of Values
func SubScoresFromValues(v [SubScoreCount]float64) SubScores {
	return SubScores{
		Relevance:    v[0],
		Clarity:      v[1],
		Completeness: v[2],
		Specificity:  v[3],
		Timeliness:   v[4],
		Credibility:  v[5],
		Metadata:     v[6],
		ContextMatch: v[7],
	}
}

// EvidenceEvaluation is the normalized output of evidence evaluation
type EvidenceEvaluation struct {
	SubScores
	OverallScore    int      `json:"overallScore"`
	Rating          Rating   `json:"rating"`
	Issues          string   `json:"issues"`
	Recommendations []string `json:"recommendations"`
	ProcessingTime  int64    `json:"processingTime"` // milliseconds
}
