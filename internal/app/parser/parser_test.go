package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rosterchat/internal/app/models"
)

func TestParse_CourseCodeExtraction(t *testing.T) {
	p := New()

	tests := []struct {
		name       string
		query      string
		subject    string
		catalogNbr string
	}{
		{name: "spaced code", query: "Is CS 4780 pass/fail?", subject: "CS", catalogNbr: "4780"},
		{name: "unspaced code", query: "tell me about cs4780", subject: "CS", catalogNbr: "4780"},
		{name: "five letter subject", query: "What is ANTHR 1101 about?", subject: "ANTHR", catalogNbr: "1101"},
		{name: "graduate code", query: "How many credits is NBAY 5500?", subject: "NBAY", catalogNbr: "5500"},
		{name: "lowercase", query: "who teaches info 2950", subject: "INFO", catalogNbr: "2950"},
		{name: "no code at all", query: "What should I take next semester?", subject: "", catalogNbr: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := p.Parse(tt.query)
			assert.Equal(t, tt.subject, parsed.Subject)
			assert.Equal(t, tt.catalogNbr, parsed.CatalogNbr)
		})
	}
}

func TestParse_TemporalQueriesDoNotYieldYears(t *testing.T) {
	p := New()

	tests := []struct {
		name    string
		query   string
		subject string
	}{
		{name: "subject before courses word", query: "Show me CS courses for fall 2025", subject: "CS"},
		{name: "subject before classes word", query: "INFO classes offered in spring 2024?", subject: "INFO"},
		{name: "year token alone", query: "Which courses are taught in summer 2026?", subject: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := p.Parse(tt.query)
			if tt.subject != "" {
				assert.Equal(t, tt.subject, parsed.Subject)
			}
			// The 20xx year must never come back as a catalog number.
			assert.Empty(t, parsed.CatalogNbr)
		})
	}
}

func TestParse_NonTemporalYearlikeNumberIsACatalogNumber(t *testing.T) {
	p := New()

	// Not a temporal sentence (no offered/courses word), so a 202x number is
	// a legitimate catalog number.
	parsed := p.Parse("Is ART 2021 graded pass/fail?")
	assert.Equal(t, "ART", parsed.Subject)
	assert.Equal(t, "2021", parsed.CatalogNbr)
}

func TestParse_SubjectOnly(t *testing.T) {
	p := New()

	parsed := p.Parse("What does the CS department offer?")
	assert.Equal(t, "CS", parsed.Subject)
	assert.Empty(t, parsed.CatalogNbr)

	parsed = p.Parse("Recommend an INFO course")
	assert.Equal(t, "INFO", parsed.Subject)
	assert.Empty(t, parsed.CatalogNbr)
}

func TestParse_IntentDetection(t *testing.T) {
	p := New()

	tests := []struct {
		query  string
		intent models.Intent
	}{
		{"Is CS 4780 pass/fail?", models.IntentGrading},
		{"What's the grading basis for INFO 2950?", models.IntentGrading},
		{"How many credits is NBAY 5500?", models.IntentCredits},
		{"How many credit hours is CS 2110?", models.IntentCredits},
		{"Who teaches CS 4780?", models.IntentInstructor},
		{"What professor runs INFO 2950?", models.IntentInstructor},
		{"When does CS 4780 meet?", models.IntentSchedule},
		{"What are the prerequisites for CS 4780?", models.IntentPrerequisites},
		{"What will I learn in CS 4780?", models.IntentOutcomes},
		{"Show me the roster history for CS 4780", models.IntentHistory},
		{"Tell me about CS 4780", models.IntentDescription},
		{"Does CS 4780 satisfy a breadth?", models.IntentRequirements},
		{"What is the pass rate of CS 4780?", models.IntentPassRate},
		{"CS 4780", models.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.intent, p.Parse(tt.query).Intent)
		})
	}
}

func TestParse_TitleFallback(t *testing.T) {
	p := New()

	parsed := p.Parse("Tell me about Designing and Building AI Solutions")
	assert.Empty(t, parsed.Subject)
	assert.Equal(t, "Designing and Building AI Solutions", parsed.TitleQuery)

	// A course code means no title query.
	parsed = p.Parse("Tell me about CS 4780")
	assert.Empty(t, parsed.TitleQuery)

	// Too little left over after stripping boilerplate.
	parsed = p.Parse("What is it?")
	assert.Empty(t, parsed.TitleQuery)
}

func TestParse_QuestionWordsAreNotSubjects(t *testing.T) {
	p := New()

	parsed := p.Parse("What classes are offered in fall 2025?")
	assert.Empty(t, parsed.Subject)
	assert.Empty(t, parsed.CatalogNbr)
	// No title search either; the caller should prompt for a subject.
	assert.Empty(t, parsed.TitleQuery)
}

func TestIsValid(t *testing.T) {
	p := New()

	assert.True(t, p.IsValid(models.ParsedQuestion{Subject: "CS", CatalogNbr: "4780"}))
	assert.True(t, p.IsValid(models.ParsedQuestion{Subject: "CS"}))
	assert.False(t, p.IsValid(models.ParsedQuestion{CatalogNbr: "4780"}))
	assert.False(t, p.IsValid(models.ParsedQuestion{}))
}
