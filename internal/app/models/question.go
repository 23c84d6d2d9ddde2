package models

import "time"

// Intent classifies what a question is asking about.
type Intent string

const (
	IntentPrerequisites Intent = "prerequisites"
	IntentOutcomes      Intent = "outcomes"
	IntentGrading       Intent = "grading"
	IntentCredits       Intent = "credits"
	IntentInstructor    Intent = "instructor"
	IntentSchedule      Intent = "schedule"
	IntentHistory       Intent = "history"
	IntentDescription   Intent = "description"
	IntentRequirements  Intent = "requirements"
	IntentPassRate      Intent = "passRate"
	IntentGeneral       Intent = "general"
)

// ParsedQuestion is the heuristic parser's reading of a raw question.
// Absent fields are empty strings; the parser never fails.
type ParsedQuestion struct {
	Subject    string
	CatalogNbr string
	Intent     Intent
	RawQuery   string

	// TitleQuery holds leftover free text treated as a course-title search
	// when no course code was found.
	TitleQuery string
}

// ChatMessage is one prior turn of the conversation, as supplied by the client.
type ChatMessage struct {
	Role      string    `json:"role" binding:"required"`
	Content   string    `json:"content" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryUnderstanding is the LLM's structured reading of a question.
type QueryUnderstanding struct {
	Relevant   bool   `json:"relevant"`
	Subject    string `json:"subject"`
	CatalogNbr string `json:"catalogNbr"`
	Intent     Intent `json:"intent"`

	// TermSeason/TermYear are set when the user asked about an explicit term
	// ("fall 2025"). Season is one of winter/spring/summer/fall.
	TermSeason string `json:"termSeason"`
	TermYear   int    `json:"termYear"`
}

// HasCourse reports whether understanding extracted a full course code.
func (u QueryUnderstanding) HasCourse() bool {
	return u.Subject != "" && u.CatalogNbr != ""
}

// HasSubject reports whether understanding extracted at least a subject.
func (u QueryUnderstanding) HasSubject() bool {
	return u.Subject != ""
}
