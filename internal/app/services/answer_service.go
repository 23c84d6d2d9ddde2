package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"rosterchat/internal/app/ai"
	"rosterchat/internal/app/models"
	"rosterchat/internal/app/models/dto"
	"rosterchat/internal/app/parser"
	"rosterchat/internal/app/store"
	"rosterchat/internal/pkg/grading"
)

// DefaultBrowseBaseURL is the public class-page base used when config leaves
// it unset.
const DefaultBrowseBaseURL = "https://classes.cornell.edu/browse/roster"

const (
	// browseListLimit caps subject-browse course lists.
	browseListLimit = 20
	// disambiguationLimit caps candidate lists on ambiguous title matches.
	disambiguationLimit = 5
	// subjectFetchLimit is how many deduplicated courses are pulled before
	// term filtering.
	subjectFetchLimit = 200
)

const (
	passRateMessage = "Cornell does not publish current pass rates/median grades via the Class Roster; I can share grading basis and link the official class page."

	redirectAnswer = "I'm a Cornell course assistant, so I can only help with questions about Cornell classes - things like prerequisites, grading, credits, schedules and instructors. Try me with one of those!"

	noCourseCodeError = "Could not identify a course code in your question. Please include a course code like 'NBAY 5500' or 'CS 4780'."

	subjectPromptMessage = "Which subject are you interested in? Try something like 'What CS classes are offered in the fall?'."
)

var defaultSuggestions = []string{
	"What are the prerequisites for CS 4780?",
	"Is NBAY 5500 graded pass/fail?",
	"What CS classes are offered this fall?",
}

var seasonTermCodes = map[string]int{
	"winter": models.TermWinter,
	"spring": models.TermSpring,
	"summer": models.TermSummer,
	"fall":   models.TermFall,
}

// AnswerService turns questions into grounded answers. Resolution runs
// through the primary (LLM) resolver first and falls back to the heuristic
// parser when the LLM fails or yields no usable entities; the two results are
// never merged.
type AnswerService struct {
	store      store.CourseStore
	ai         ai.Client
	primary    QueryResolver
	fallback   QueryResolver
	browseBase string
	logger     zerolog.Logger
}

// NewAnswerService creates the answer orchestrator.
func NewAnswerService(courseStore store.CourseStore, aiClient ai.Client, browseBase string, logger zerolog.Logger) *AnswerService {
	if browseBase == "" {
		browseBase = DefaultBrowseBaseURL
	}
	return &AnswerService{
		store:      courseStore,
		ai:         aiClient,
		primary:    &aiResolver{client: aiClient},
		fallback:   &heuristicResolver{parser: parser.New()},
		browseBase: strings.TrimRight(browseBase, "/"),
		logger:     logger.With().Str("component", "answer").Logger(),
	}
}

// Answer processes one question. Business-logic failures come back as
// Success=false payloads, never as errors.
func (s *AnswerService) Answer(ctx context.Context, question string, history []models.ChatMessage) *dto.AnswerResponse {
	if res, err := s.primary.Resolve(ctx, question, history); err == nil {
		if !res.Relevant {
			return s.redirectResponse()
		}
		if res.Intent == models.IntentPassRate {
			return s.passRateResponse(ctx, res)
		}
		if res.HasCourse() {
			return s.answerCourse(ctx, res, question, history, true)
		}
		if res.HasSubject() {
			return s.answerBrowse(ctx, res, question, history)
		}
		// Relevant but no usable entities: fall through to the parser.
	} else {
		s.logger.Warn().Err(err).Msg("Query understanding unavailable, using heuristic parser")
	}

	res, _ := s.fallback.Resolve(ctx, question, history)

	if res.Intent == models.IntentPassRate {
		return s.passRateResponse(ctx, res)
	}
	if !res.HasSubject() {
		if res.TitleQuery != "" {
			return s.answerTitle(ctx, res, question, history)
		}
		if res.Temporal {
			return &dto.AnswerResponse{
				Success:     false,
				Message:     subjectPromptMessage,
				Suggestions: defaultSuggestions,
			}
		}
		return s.answerGeneric(ctx, res, question, history)
	}
	if !res.HasCourse() {
		return s.answerBrowse(ctx, res, question, history)
	}
	return s.answerCourse(ctx, res, question, history, false)
}

// redirectResponse politely declines off-topic questions.
func (s *AnswerService) redirectResponse() *dto.AnswerResponse {
	return &dto.AnswerResponse{
		Success:     true,
		AIAnswer:    redirectAnswer,
		AnswerType:  models.IntentGeneral,
		Suggestions: defaultSuggestions,
	}
}

// passRateResponse explains that pass rates are not published, linking the
// class page when the course resolves.
func (s *AnswerService) passRateResponse(ctx context.Context, res *Resolution) *dto.AnswerResponse {
	response := &dto.AnswerResponse{
		Success:    false,
		Message:    passRateMessage,
		AnswerType: models.IntentPassRate,
	}
	if res.HasCourse() {
		course, err := s.store.GetLatestCourse(ctx, res.Subject, res.CatalogNbr)
		if err == nil && course != nil {
			response.ClassPageUrl = s.classPageURL(course.RosterSlug, course.Subject, course.CatalogNbr)
		}
	}
	return response
}

// answerCourse resolves a specific course code to its latest snapshot and
// builds the full answer. On the AI path a course already mentioned in the
// conversation is treated as a follow-up and skips the redundant course card.
func (s *AnswerService) answerCourse(ctx context.Context, res *Resolution, question string, history []models.ChatMessage, aiPath bool) *dto.AnswerResponse {
	course, err := s.store.GetLatestCourse(ctx, res.Subject, res.CatalogNbr)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", res.Subject).Str("catalogNbr", res.CatalogNbr).Msg("Course lookup failed")
		course = nil
	}
	if course == nil {
		return s.notFoundResponse(ctx, res, question, history)
	}

	if aiPath && historyMentions(history, course.Subject, course.CatalogNbr) {
		answer := s.ai.GenerateAnswer(ctx, question, courseGrounding(course), history)
		return &dto.AnswerResponse{
			Success:      true,
			AIAnswer:     answer,
			RosterSlug:   course.RosterSlug,
			RosterDescr:  course.RosterDescr,
			ClassPageUrl: s.classPageURL(course.RosterSlug, course.Subject, course.CatalogNbr),
			AnswerType:   res.Intent,
			Suggestions:  s.courseSuggestions(course, res.Intent),
		}
	}

	return s.buildCourseAnswer(ctx, course, res.Intent, question, history)
}

// buildCourseAnswer assembles the full structured answer for one snapshot.
func (s *AnswerService) buildCourseAnswer(ctx context.Context, course *models.Course, intent models.Intent, question string, history []models.ChatMessage) *dto.AnswerResponse {
	isOldData := false
	if latest, err := s.store.GetLatestRoster(ctx); err == nil && latest != nil {
		isOldData = course.RosterSlug != latest.Slug
	}

	info := &dto.CourseInfo{
		Subject:          course.Subject,
		CatalogNbr:       course.CatalogNbr,
		TitleLong:        course.TitleLong,
		Description:      course.Description,
		UnitsMinimum:     course.UnitsMinimum,
		UnitsMaximum:     course.UnitsMaximum,
		Instructors:      course.Instructors,
		MeetingPatterns:  course.MeetingPatterns,
		Prerequisites:    course.Prerequisites,
		Outcomes:         course.Outcomes,
		LastTermsOffered: course.LastTermsOffered,
	}
	// Sections with differing grading bases surface every variant instead of
	// a single misleading value.
	if len(course.GradingBasisVariations) > 1 {
		info.GradingBasisVariations = course.GradingBasisVariations
	} else if course.GradingBasis != "" {
		info.GradingBasis = grading.Format(course.GradingBasis)
	}

	answer := s.ai.GenerateAnswer(ctx, question, courseGrounding(course), history)

	return &dto.AnswerResponse{
		Success:      true,
		AIAnswer:     answer,
		CourseInfo:   info,
		RosterSlug:   course.RosterSlug,
		RosterDescr:  course.RosterDescr,
		IsOldData:    isOldData,
		ClassPageUrl: s.classPageURL(course.RosterSlug, course.Subject, course.CatalogNbr),
		AnswerType:   intent,
		Suggestions:  s.courseSuggestions(course, intent),
	}
}

// notFoundResponse answers a valid course code that has no stored history.
func (s *AnswerService) notFoundResponse(ctx context.Context, res *Resolution, question string, history []models.ChatMessage) *dto.AnswerResponse {
	grounding := fmt.Sprintf("No stored roster data exists for %s %s.", res.Subject, res.CatalogNbr)
	if stats, err := s.store.GetStats(ctx); err == nil {
		grounding += " " + statsGrounding(stats)
	}
	answer := s.ai.GenerateAnswer(ctx, question, grounding, history)

	return &dto.AnswerResponse{
		Success:     false,
		AIAnswer:    answer,
		Error:       fmt.Sprintf("No roster history found for %s %s. This may be a new course or there's no public data yet.", res.Subject, res.CatalogNbr),
		AnswerType:  res.Intent,
		Suggestions: defaultSuggestions,
	}
}

// answerBrowse lists a subject's offerings for the term the user meant.
func (s *AnswerService) answerBrowse(ctx context.Context, res *Resolution, question string, history []models.ChatMessage) *dto.AnswerResponse {
	courses, err := s.store.GetCoursesBySubject(ctx, res.Subject, subjectFetchLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", res.Subject).Msg("Subject lookup failed")
	}
	if len(courses) == 0 {
		return &dto.AnswerResponse{
			Success:     false,
			Error:       fmt.Sprintf("No courses found for subject %s.", res.Subject),
			AnswerType:  res.Intent,
			Suggestions: defaultSuggestions,
		}
	}

	note := ""
	if target := s.requestedRoster(ctx, res); target != nil {
		filtered := make([]models.Course, 0, len(courses))
		for _, course := range courses {
			if course.RosterSlug == target.Slug {
				filtered = append(filtered, course)
			}
		}
		if len(filtered) > 0 {
			courses = filtered
		} else {
			note = fmt.Sprintf("Note: no %s courses are stored for %s; listing the most recent offerings instead.", res.Subject, target.Descr)
		}
	}
	if len(courses) > browseListLimit {
		courses = courses[:browseListLimit]
	}

	list := make([]dto.CourseListItem, 0, len(courses))
	for _, course := range courses {
		list = append(list, dto.CourseListItem{
			Subject:      course.Subject,
			CatalogNbr:   course.CatalogNbr,
			TitleLong:    course.TitleLong,
			RosterSlug:   course.RosterSlug,
			RosterDescr:  course.RosterDescr,
			ClassPageUrl: s.classPageURL(course.RosterSlug, course.Subject, course.CatalogNbr),
		})
	}

	answer := s.ai.GenerateAnswer(ctx, question, browseGrounding(res.Subject, courses, note), history)

	return &dto.AnswerResponse{
		Success:    true,
		AIAnswer:   answer,
		AnswerType: res.Intent,
		Message:    fmt.Sprintf("Found %d %s courses.", len(list), res.Subject),
		CourseList: list,
	}
}

// requestedRoster maps an explicit season+year to a stored roster, or nil when
// the user didn't ask for a specific term or no matching roster exists.
func (s *AnswerService) requestedRoster(ctx context.Context, res *Resolution) *models.Roster {
	termCode, ok := seasonTermCodes[strings.ToLower(res.TermSeason)]
	if !ok || res.TermYear == 0 {
		return nil
	}
	rosters, err := s.store.GetRosters(ctx)
	if err != nil {
		return nil
	}
	for i := range rosters {
		if rosters[i].Year == res.TermYear && rosters[i].TermCode == termCode {
			return &rosters[i]
		}
	}
	return nil
}

// answerTitle resolves free text against stored course titles.
func (s *AnswerService) answerTitle(ctx context.Context, res *Resolution, question string, history []models.ChatMessage) *dto.AnswerResponse {
	matches, err := s.store.SearchByTitle(ctx, res.TitleQuery)
	if err != nil {
		s.logger.Error().Err(err).Str("titleQuery", res.TitleQuery).Msg("Title search failed")
	}

	switch len(matches) {
	case 0:
		grounding := fmt.Sprintf("No stored course title matches %q.", res.TitleQuery)
		if stats, statsErr := s.store.GetStats(ctx); statsErr == nil {
			grounding += " " + statsGrounding(stats)
		}
		return &dto.AnswerResponse{
			Success:     false,
			AIAnswer:    s.ai.GenerateAnswer(ctx, question, grounding, history),
			Error:       fmt.Sprintf("No courses matching %q were found.", res.TitleQuery),
			Suggestions: defaultSuggestions,
		}
	case 1:
		return s.buildCourseAnswer(ctx, &matches[0], res.Intent, question, history)
	default:
		if len(matches) > disambiguationLimit {
			matches = matches[:disambiguationLimit]
		}
		list := make([]dto.CourseListItem, 0, len(matches))
		for _, course := range matches {
			list = append(list, dto.CourseListItem{
				Subject:     course.Subject,
				CatalogNbr:  course.CatalogNbr,
				TitleLong:   course.TitleLong,
				RosterSlug:  course.RosterSlug,
				RosterDescr: course.RosterDescr,
			})
		}
		return &dto.AnswerResponse{
			Success:    false,
			Error:      fmt.Sprintf("Multiple courses match %q. Which one did you mean?", res.TitleQuery),
			CourseList: list,
		}
	}
}

// answerGeneric handles broad course questions with only store stats as
// grounding.
func (s *AnswerService) answerGeneric(ctx context.Context, res *Resolution, question string, history []models.ChatMessage) *dto.AnswerResponse {
	grounding := ""
	if stats, err := s.store.GetStats(ctx); err == nil {
		grounding = statsGrounding(stats)
	}
	answer := s.ai.GenerateAnswer(ctx, question, grounding, history)
	if answer == ai.FallbackAnswer {
		return &dto.AnswerResponse{
			Success:     false,
			Error:       noCourseCodeError,
			Suggestions: defaultSuggestions,
		}
	}
	return &dto.AnswerResponse{
		Success:     true,
		AIAnswer:    answer,
		AnswerType:  res.Intent,
		Suggestions: defaultSuggestions,
	}
}

// courseSuggestions offers follow-up questions about the resolved course,
// skipping the angle just asked about.
func (s *AnswerService) courseSuggestions(course *models.Course, current models.Intent) []string {
	code := course.Subject + " " + course.CatalogNbr
	candidates := []struct {
		intent models.Intent
		text   string
	}{
		{models.IntentPrerequisites, fmt.Sprintf("What are the prerequisites for %s?", code)},
		{models.IntentGrading, fmt.Sprintf("How is %s graded?", code)},
		{models.IntentCredits, fmt.Sprintf("How many credits is %s?", code)},
		{models.IntentSchedule, fmt.Sprintf("When does %s meet?", code)},
	}
	suggestions := make([]string, 0, 3)
	for _, c := range candidates {
		if c.intent == current {
			continue
		}
		suggestions = append(suggestions, c.text)
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}

func (s *AnswerService) classPageURL(rosterSlug, subject, catalogNbr string) string {
	return fmt.Sprintf("%s/%s/class/%s/%s", s.browseBase, rosterSlug, subject, catalogNbr)
}

// historyMentions reports whether a prior turn already references the course,
// by substring containment on the concatenated history text.
func historyMentions(history []models.ChatMessage, subject, catalogNbr string) bool {
	if len(history) == 0 {
		return false
	}
	var b strings.Builder
	for _, turn := range history {
		b.WriteString(strings.ToUpper(turn.Content))
		b.WriteByte('\n')
	}
	text := b.String()
	code := strings.ToUpper(subject) + " " + catalogNbr
	return strings.Contains(text, code) || strings.Contains(text, strings.ToUpper(subject)+catalogNbr)
}
