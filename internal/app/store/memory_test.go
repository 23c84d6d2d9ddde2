package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterchat/internal/app/models"
)

func seedRosters(t *testing.T, s *MemoryStore) {
	t.Helper()
	ctx := context.Background()
	rosters := []models.Roster{
		{Slug: "SP23", Descr: "Spring 2023", Year: 2023, TermCode: models.TermSpring},
		{Slug: "FA23", Descr: "Fall 2023", Year: 2023, TermCode: models.TermFall},
		{Slug: "SP24", Descr: "Spring 2024", Year: 2024, TermCode: models.TermSpring},
		{Slug: "FA24", Descr: "Fall 2024", Year: 2024, TermCode: models.TermFall},
	}
	for _, r := range rosters {
		require.NoError(t, s.StoreRoster(ctx, r))
	}
}

func course(subject, catalogNbr, title, rosterSlug string) models.Course {
	return models.Course{
		Subject:    subject,
		CatalogNbr: catalogNbr,
		TitleLong:  title,
		RosterSlug: rosterSlug,
	}
}

func TestGetRosters_OrderedMostRecentFirst(t *testing.T) {
	s := NewMemoryStore()
	seedRosters(t, s)

	rosters, err := s.GetRosters(context.Background())
	require.NoError(t, err)
	require.Len(t, rosters, 4)

	slugs := []string{rosters[0].Slug, rosters[1].Slug, rosters[2].Slug, rosters[3].Slug}
	assert.Equal(t, []string{"FA24", "SP24", "FA23", "SP23"}, slugs)
}

func TestGetLatestCourse_MaxYearTermCodeRegardlessOfInsertOrder(t *testing.T) {
	ctx := context.Background()

	// Insert in several shuffled orders; latest must always be FA24.
	orders := [][]string{
		{"SP23", "FA24", "SP24"},
		{"FA24", "SP23", "SP24"},
		{"SP24", "SP23", "FA24"},
	}

	for _, order := range orders {
		s := NewMemoryStore()
		seedRosters(t, s)
		for _, slug := range order {
			require.NoError(t, s.StoreCourse(ctx, course("CS", "4780", "Machine Learning", slug)))
		}

		latest, err := s.GetLatestCourse(ctx, "CS", "4780")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "FA24", latest.RosterSlug)
	}
}

func TestGetCourseHistory_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedRosters(t, s)

	for _, slug := range []string{"SP23", "SP24", "FA23"} {
		require.NoError(t, s.StoreCourse(ctx, course("CS", "4780", "Machine Learning", slug)))
	}

	history, err := s.GetCourseHistory(ctx, "CS", "4780")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "SP24", history[0].RosterSlug)
	assert.Equal(t, "FA23", history[1].RosterSlug)
	assert.Equal(t, "SP23", history[2].RosterSlug)
}

func TestStoreCourse_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedRosters(t, s)

	first := course("CS", "4780", "Machine Learning", "FA24")
	first.GradingBasis = "Student Option"
	require.NoError(t, s.StoreCourse(ctx, first))

	second := course("CS", "4780", "Renamed Title", "FA24")
	second.GradingBasis = "S/U"
	require.NoError(t, s.StoreCourse(ctx, second))

	stored, err := s.GetCourse(ctx, "CS", "4780", "FA24")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Machine Learning", stored.TitleLong)
	assert.Equal(t, "Student Option", stored.GradingBasis)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Courses)
}

func TestGetCoursesBySubject_DeduplicatesAndLimits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedRosters(t, s)

	// CS 4780 in two rosters, plus other CS courses and an unrelated one.
	require.NoError(t, s.StoreCourses(ctx, []models.Course{
		course("CS", "4780", "Machine Learning", "SP23"),
		course("CS", "4780", "Machine Learning", "FA24"),
		course("CS", "2110", "Object-Oriented Programming", "FA24"),
		course("CS", "3110", "Functional Programming", "FA24"),
		course("INFO", "2950", "Intro to Data Science", "FA24"),
	}))

	courses, err := s.GetCoursesBySubject(ctx, "CS", 10)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	for _, c := range courses {
		assert.Equal(t, "CS", c.Subject)
		if c.CatalogNbr == "4780" {
			assert.Equal(t, "FA24", c.RosterSlug)
		}
	}

	limited, err := s.GetCoursesBySubject(ctx, "CS", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSearchByTitle_RankingAndDedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedRosters(t, s)

	require.NoError(t, s.StoreCourses(ctx, []models.Course{
		course("CS", "4700", "Artificial Intelligence", "FA24"),
		course("INFO", "5200", "Applied Artificial Intelligence", "FA24"),
		course("NBAY", "5500", "Designing and Building AI Solutions", "FA24"),
		course("CS", "4700", "Artificial Intelligence", "SP23"),
	}))

	results, err := s.SearchByTitle(ctx, "artificial intelligence")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Exact title match ranks first, then prefix/alphabetical; the SP23
	// duplicate is collapsed into its FA24 snapshot.
	assert.Equal(t, "Artificial Intelligence", results[0].TitleLong)
	assert.Equal(t, "FA24", results[0].RosterSlug)
	assert.Equal(t, "Applied Artificial Intelligence", results[1].TitleLong)

	single, err := s.SearchByTitle(ctx, "Designing and Building AI Solutions")
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "NBAY", single[0].Subject)

	none, err := s.SearchByTitle(ctx, "underwater basket weaving")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClearAndStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedRosters(t, s)

	require.NoError(t, s.StoreSubject(ctx, models.Subject{Code: "CS", Name: "Computer Science", RosterSlug: "FA24"}))
	require.NoError(t, s.StoreCourse(ctx, course("CS", "4780", "Machine Learning", "FA24")))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Rosters: 4, Subjects: 1, Courses: 1}, stats)

	require.NoError(t, s.Clear(ctx))
	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
