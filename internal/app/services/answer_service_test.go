package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterchat/internal/app/ai"
	"rosterchat/internal/app/models"
	"rosterchat/internal/app/store"
)

// stubAI is a canned LLM for orchestrator tests.
type stubAI struct {
	understanding *models.QueryUnderstanding
	understandErr error
	answer        string

	generateCalls int
	lastGrounding string
}

func (s *stubAI) UnderstandQuestion(_ context.Context, _ string, _ []models.ChatMessage) (*models.QueryUnderstanding, error) {
	if s.understandErr != nil {
		return nil, s.understandErr
	}
	return s.understanding, nil
}

func (s *stubAI) GenerateAnswer(_ context.Context, _, grounding string, _ []models.ChatMessage) string {
	s.generateCalls++
	s.lastGrounding = grounding
	if s.answer == "" {
		return ai.FallbackAnswer
	}
	return s.answer
}

var errAIDown = errors.New("ai unavailable")

func newTestService(t *testing.T, aiClient ai.Client) (*AnswerService, store.CourseStore) {
	t.Helper()
	memory := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, memory.StoreRoster(ctx, models.Roster{Slug: "SP24", Descr: "Spring 2024", Year: 2024, TermCode: models.TermSpring}))
	require.NoError(t, memory.StoreRoster(ctx, models.Roster{Slug: "FA24", Descr: "Fall 2024", Year: 2024, TermCode: models.TermFall}))
	return NewAnswerService(memory, aiClient, "", zerolog.Nop()), memory
}

func storeCourse(t *testing.T, s store.CourseStore, course models.Course) {
	t.Helper()
	require.NoError(t, s.StoreCourse(context.Background(), course))
}

func TestAnswer_GradingQuestionResolvesLatestCourse(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "CS 4780 offers a student option grading basis."}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		RosterSlug: "FA24", RosterDescr: "Fall 2024", GradingBasis: "Student Option",
	})

	resp := svc.Answer(context.Background(), "Is CS 4780 pass/fail?", nil)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.CourseInfo)
	assert.Equal(t, "CS", resp.CourseInfo.Subject)
	assert.Equal(t, "4780", resp.CourseInfo.CatalogNbr)
	assert.Equal(t, "Student Option (Letter or S/U)", resp.CourseInfo.GradingBasis)
	assert.Equal(t, models.IntentGrading, resp.AnswerType)
	assert.False(t, resp.IsOldData)
	assert.Equal(t, "https://classes.cornell.edu/browse/roster/FA24/class/CS/4780", resp.ClassPageUrl)
	assert.Equal(t, stub.answer, resp.AIAnswer)
}

func TestAnswer_UnknownCourseReportsNoHistory(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "There's no data for that course."}
	svc, _ := newTestService(t, stub)

	resp := svc.Answer(context.Background(), "What are the prerequisites for CS 9999?", nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "No roster history found")
	assert.NotEmpty(t, resp.Suggestions)
}

func TestAnswer_StaleSnapshotFlagged(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "answer"}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "2110", TitleLong: "Object-Oriented Programming",
		RosterSlug: "SP24", RosterDescr: "Spring 2024",
	})

	resp := svc.Answer(context.Background(), "Tell me about CS 2110", nil)

	assert.True(t, resp.Success)
	assert.True(t, resp.IsOldData)
	assert.Equal(t, "SP24", resp.RosterSlug)
}

func TestAnswer_GradingVariationsSuppressSingularBasis(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "answer"}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "NBAY", CatalogNbr: "5500", TitleLong: "Designing and Building AI Solutions",
		RosterSlug: "FA24", RosterDescr: "Fall 2024",
		GradingBasis:           "Student Option",
		GradingBasisVariations: []string{"Student Option (Letter or S/U)", "S/U only"},
	})

	resp := svc.Answer(context.Background(), "How is NBAY 5500 graded?", nil)

	require.NotNil(t, resp.CourseInfo)
	assert.ElementsMatch(t, []string{"Student Option (Letter or S/U)", "S/U only"}, resp.CourseInfo.GradingBasisVariations)
	assert.Empty(t, resp.CourseInfo.GradingBasis)
}

func TestAnswer_TitleSearchSingleMatch(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "It teaches applied AI product work."}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "NBAY", CatalogNbr: "5500", TitleLong: "Designing and Building AI Solutions",
		RosterSlug: "FA24", RosterDescr: "Fall 2024",
	})

	resp := svc.Answer(context.Background(), "Tell me about Designing and Building AI Solutions", nil)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.CourseInfo)
	assert.Equal(t, "NBAY", resp.CourseInfo.Subject)
	assert.Equal(t, "5500", resp.CourseInfo.CatalogNbr)
	assert.Empty(t, resp.CourseList)
}

func TestAnswer_TitleSearchAmbiguousListsCandidates(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "unused"}
	svc, memory := newTestService(t, stub)
	for i := 0; i < 7; i++ {
		storeCourse(t, memory, models.Course{
			Subject: "INFO", CatalogNbr: fmt.Sprintf("10%d0", i),
			TitleLong:  fmt.Sprintf("Data Science in Practice %d", i),
			RosterSlug: "FA24", RosterDescr: "Fall 2024",
		})
	}

	resp := svc.Answer(context.Background(), "Tell me about Data Science in Practice", nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Multiple courses match")
	assert.LessOrEqual(t, len(resp.CourseList), disambiguationLimit)
	assert.NotEmpty(t, resp.CourseList)
	// Disambiguation asks the user to refine, never calls the LLM.
	assert.Zero(t, stub.generateCalls)
}

func TestAnswer_IrrelevantQuestionGetsRedirect(t *testing.T) {
	stub := &stubAI{understanding: &models.QueryUnderstanding{Relevant: false}}
	svc, _ := newTestService(t, stub)

	resp := svc.Answer(context.Background(), "What's a good pizza place in Ithaca?", nil)

	assert.True(t, resp.Success)
	assert.Equal(t, redirectAnswer, resp.AIAnswer)
	assert.NotEmpty(t, resp.Suggestions)
	assert.Zero(t, stub.generateCalls)
}

func TestAnswer_FollowUpSkipsCourseCard(t *testing.T) {
	stub := &stubAI{
		understanding: &models.QueryUnderstanding{Relevant: true, Subject: "CS", CatalogNbr: "4780", Intent: models.IntentCredits},
		answer:        "It's 4 credits.",
	}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		RosterSlug: "FA24", RosterDescr: "Fall 2024",
	})
	history := []models.ChatMessage{
		{Role: "user", Content: "Tell me about CS 4780"},
		{Role: "assistant", Content: "CS 4780 is Machine Learning, offered in Fall 2024."},
	}

	resp := svc.Answer(context.Background(), "How many credits is it?", history)

	assert.True(t, resp.Success)
	assert.Nil(t, resp.CourseInfo)
	assert.Equal(t, "It's 4 credits.", resp.AIAnswer)
	assert.NotEmpty(t, resp.Suggestions)
}

func TestAnswer_FirstMentionKeepsCourseCard(t *testing.T) {
	stub := &stubAI{
		understanding: &models.QueryUnderstanding{Relevant: true, Subject: "CS", CatalogNbr: "4780", Intent: models.IntentDescription},
		answer:        "answer",
	}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		RosterSlug: "FA24", RosterDescr: "Fall 2024",
	})

	resp := svc.Answer(context.Background(), "Tell me about CS 4780", nil)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.CourseInfo)
	assert.Equal(t, "Machine Learning", resp.CourseInfo.TitleLong)
}

func TestAnswer_SubjectBrowseCapsList(t *testing.T) {
	stub := &stubAI{
		understanding: &models.QueryUnderstanding{Relevant: true, Subject: "CS", Intent: models.IntentGeneral},
		answer:        "Plenty of CS courses to choose from.",
	}
	svc, memory := newTestService(t, stub)
	for i := 0; i < 25; i++ {
		storeCourse(t, memory, models.Course{
			Subject: "CS", CatalogNbr: fmt.Sprintf("%04d", 1000+i),
			TitleLong:  fmt.Sprintf("Course %d", i),
			RosterSlug: "FA24", RosterDescr: "Fall 2024",
		})
	}

	resp := svc.Answer(context.Background(), "What CS courses are there?", nil)

	assert.True(t, resp.Success)
	assert.Len(t, resp.CourseList, browseListLimit)
	assert.Equal(t, stub.answer, resp.AIAnswer)
}

func TestAnswer_SubjectBrowseFiltersExplicitTerm(t *testing.T) {
	stub := &stubAI{
		understanding: &models.QueryUnderstanding{
			Relevant: true, Subject: "CS", Intent: models.IntentGeneral,
			TermSeason: "fall", TermYear: 2024,
		},
		answer: "answer",
	}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		RosterSlug: "FA24", RosterDescr: "Fall 2024",
	})
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "2110", TitleLong: "Object-Oriented Programming",
		RosterSlug: "SP24", RosterDescr: "Spring 2024",
	})

	resp := svc.Answer(context.Background(), "What CS classes are offered in fall 2024?", nil)

	require.Len(t, resp.CourseList, 1)
	assert.Equal(t, "FA24", resp.CourseList[0].RosterSlug)
}

func TestAnswer_PassRateShortCircuits(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown, answer: "unused"}
	svc, memory := newTestService(t, stub)
	storeCourse(t, memory, models.Course{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		RosterSlug: "FA24", RosterDescr: "Fall 2024",
	})

	resp := svc.Answer(context.Background(), "What is the pass rate for CS 4780?", nil)

	assert.False(t, resp.Success)
	assert.Equal(t, passRateMessage, resp.Message)
	assert.Equal(t, "https://classes.cornell.edu/browse/roster/FA24/class/CS/4780", resp.ClassPageUrl)
	assert.Zero(t, stub.generateCalls)
}

func TestAnswer_VagueTemporalQuestionPromptsForSubject(t *testing.T) {
	stub := &stubAI{understandErr: errAIDown}
	svc, _ := newTestService(t, stub)

	resp := svc.Answer(context.Background(), "What classes are offered in fall 2025?", nil)

	assert.False(t, resp.Success)
	assert.Equal(t, subjectPromptMessage, resp.Message)
}
