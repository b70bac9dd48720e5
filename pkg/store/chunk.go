package store

import "github.com/google/uuid"

// Source categories of the portfolio corpus. The set is closed; ingestion
// (external to this service) guarantees every chunk carries one of these.
const (
	SourceEducation  = "education"
	SourceExperience = "experience"
	SourceProjects   = "projects"
	SourceCaseStudy  = "case-study"
	SourceResume     = "resume"
	SourceAbout      = "about"
)

// SourceCategories lists every known category.
func SourceCategories() []string {
	return []string{
		SourceEducation,
		SourceExperience,
		SourceProjects,
		SourceCaseStudy,
		SourceResume,
		SourceAbout,
	}
}

// SourcePriority ranks categories for deterministic tie-breaking when merged
// retrieval scores are equal. Lower value wins.
var SourcePriority = map[string]int{
	SourceProjects:   0,
	SourceCaseStudy:  1,
	SourceExperience: 2,
	SourceEducation:  3,
	SourceResume:     4,
	SourceAbout:      5,
}

// Chunk is the smallest retrievable unit of portfolio content. Chunks are
// created by an external ingestion process and are read-only here.
type Chunk struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	SourceCategory string         `json:"source_category"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// SourceRef records a chunk that was actually part of the context handed to
// a responder, in retrieval order.
type SourceRef struct {
	ChunkID        uuid.UUID `json:"chunk_id"`
	Title          string    `json:"title"`
	SourceCategory string    `json:"source_category"`
	Score          float64   `json:"score"`
	Methods        []string  `json:"methods"`
}
