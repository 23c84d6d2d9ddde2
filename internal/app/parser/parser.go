package parser

import (
	"regexp"
	"strings"

	"rosterchat/internal/app/models"
)

// Parser extracts course codes, intents and title queries from raw questions.
// It never fails: fields it cannot resolve stay empty and the caller decides.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

var (
	// Temporal queries mention a term/year word plus a courses/offered word.
	// They risk having their year misread as a catalog number.
	termWordPattern    = regexp.MustCompile(`(?i)\b(fall|spring|summer|winter|semester|term|year|20\d{2})\b`)
	offeredWordPattern = regexp.MustCompile(`(?i)\b(classes|courses|offered|available|teaching|taught)\b`)

	// Subject codes are 2-5 letters (CS, INFO, ANTHR, BIOBM, CHEME); catalog
	// numbers are exactly 4 digits.
	coursePattern = regexp.MustCompile(`(?i)\b([A-Za-z]{2,5})\s*(\d{4})\b`)

	// Subject extraction patterns for temporal queries.
	subjectCoursesPattern = regexp.MustCompile(`(?i)\b([A-Za-z]{2,5})\s+(?:classes|courses|offerings?)\b`)
	subjectLeadPattern    = regexp.MustCompile(`(?i)\b(?:what|which|show|list|find|tell)\s+(?:are\s+)?(?:the\s+)?([A-Za-z]{2,5})\s+`)

	// A bare token only counts as a subject when followed by a course word.
	subjectOnlyPattern = regexp.MustCompile(`(?i)\b([A-Za-z]{2,5})\s+(?:class|course|courses|classes|department|subject)\b`)

	// Question boilerplate stripped before treating leftover text as a title.
	titleBoilerplate = regexp.MustCompile(`(?i)\b(what|is|are|about|tell me about|describe|who teaches|how many credits|when does|credits for|syllabus for|does|meet|grading for|prerequisites for|pass/?fail)\b`)
)

// Ordered intent classification: the first matching category wins.
var intentPatterns = []struct {
	intent  models.Intent
	pattern *regexp.Regexp
}{
	{models.IntentPassRate, regexp.MustCompile(`(?i)\b(pass\s*rate|passing\s*rate|fail\s*rate|median\s*grade|average\s*grade|grade\s*distribution)\b`)},
	{models.IntentPrerequisites, regexp.MustCompile(`(?i)\b(prereq|pre-req|prerequisite|coreq|co-req|corequisite|requirement)\b`)},
	{models.IntentOutcomes, regexp.MustCompile(`(?i)\b(outcome|learning\s*outcome|objective|learn|cover|topic)\b`)},
	{models.IntentGrading, regexp.MustCompile(`(?i)\b(pass\s*fail|pass/fail|s/u|letter|grading|grade\s*basis|student\s*option)\b`)},
	{models.IntentCredits, regexp.MustCompile(`(?i)\b(credit|credits|credit\s*hours?|units?)\b`)},
	{models.IntentInstructor, regexp.MustCompile(`(?i)\b(instructor|professor|prof|teacher|taught\s*by|who\s*teaches)\b`)},
	{models.IntentSchedule, regexp.MustCompile(`(?i)\b(time|times?|schedule|meet|meets?|when|days?|hours?)\b`)},
	{models.IntentHistory, regexp.MustCompile(`(?i)\b(history|last\s*offered|when\s*offered|previous|past\s*term)\b`)},
	{models.IntentDescription, regexp.MustCompile(`(?i)\b(about|describe|description|what\s*is|tell\s*me)\b`)},
	{models.IntentRequirements, regexp.MustCompile(`(?i)\b(breadth|distribution|satisfy|satisfies)\b`)},
}

var creditHoursPattern = regexp.MustCompile(`(?i)\bcredit\s*hours?\b`)

// Question words that the subject patterns would otherwise capture, e.g.
// "What classes" or "Which courses".
var subjectStopwords = map[string]struct{}{
	"WHAT": {}, "WHICH": {}, "SHOW": {}, "LIST": {}, "FIND": {}, "TELL": {},
	"THE": {}, "ALL": {}, "ANY": {}, "SOME": {}, "THIS": {}, "THAT": {},
	"ARE": {}, "MY": {}, "NEW": {}, "GOOD": {}, "BEST": {}, "EASY": {},
	"OTHER": {}, "MORE": {},
}

func isSubjectStopword(token string) bool {
	_, ok := subjectStopwords[strings.ToUpper(token)]
	return ok
}

// IsTemporalQuery reports whether the question asks about a specific term,
// e.g. "What are the CS classes for fall 2025?".
func (p *Parser) IsTemporalQuery(query string) bool {
	return termWordPattern.MatchString(query) && offeredWordPattern.MatchString(query)
}

// extractCourseCode pulls a subject and optional catalog number out of the
// question. Supports "NBAY 5500", "CS4780", "INFO 2950" and the like.
func (p *Parser) extractCourseCode(query string) (subject, catalogNbr string) {
	temporal := p.IsTemporalQuery(query)
	if temporal {
		// In temporal questions years must not be read as catalog numbers,
		// so prefer pulling out just the subject.
		for _, m := range subjectCoursesPattern.FindAllStringSubmatch(query, -1) {
			if !isSubjectStopword(m[1]) {
				return strings.ToUpper(m[1]), ""
			}
		}
		for _, m := range subjectLeadPattern.FindAllStringSubmatch(query, -1) {
			if !isSubjectStopword(m[1]) {
				return strings.ToUpper(m[1]), ""
			}
		}
	}

	for _, m := range coursePattern.FindAllStringSubmatch(query, -1) {
		// Within a temporal sentence a 2020-2029 number is a year, not a
		// catalog number ("fall 2025" would otherwise match).
		if temporal && strings.HasPrefix(m[2], "202") {
			continue
		}
		return strings.ToUpper(m[1]), m[2]
	}

	for _, m := range subjectOnlyPattern.FindAllStringSubmatch(query, -1) {
		if !isSubjectStopword(m[1]) {
			return strings.ToUpper(m[1]), ""
		}
	}

	return "", ""
}

// detectIntent classifies the question by ordered keyword sets.
func (p *Parser) detectIntent(query string) models.Intent {
	for _, candidate := range intentPatterns {
		if !candidate.pattern.MatchString(query) {
			continue
		}
		// "credit hours" belongs to credits, not schedule, even though
		// "hours" is a schedule word.
		if candidate.intent == models.IntentSchedule && creditHoursPattern.MatchString(query) {
			continue
		}
		return candidate.intent
	}
	return models.IntentGeneral
}

// extractTitleQuery strips question boilerplate and returns leftover text
// long enough to plausibly be a course title.
func (p *Parser) extractTitleQuery(query string) string {
	cleaned := titleBoilerplate.ReplaceAllString(query, "")
	cleaned = strings.ReplaceAll(cleaned, "?", "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if len(cleaned) > 3 {
		return cleaned
	}
	return ""
}

// Parse turns a natural language question into structured data.
func (p *Parser) Parse(query string) models.ParsedQuestion {
	subject, catalogNbr := p.extractCourseCode(query)
	parsed := models.ParsedQuestion{
		Subject:    subject,
		CatalogNbr: catalogNbr,
		Intent:     p.detectIntent(query),
		RawQuery:   query,
	}

	// Temporal questions without a subject need a subject prompt, not a title
	// search over their leftover words.
	if subject == "" && catalogNbr == "" && !p.IsTemporalQuery(query) {
		parsed.TitleQuery = p.extractTitleQuery(query)
	}

	return parsed
}

// IsValid reports whether the parse carries enough information to answer.
// A bare subject is answerable; a question with neither subject nor catalog
// number is not.
func (p *Parser) IsValid(parsed models.ParsedQuestion) bool {
	return parsed.Subject != ""
}
