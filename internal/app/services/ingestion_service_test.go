package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterchat/internal/app/models"
	"rosterchat/internal/app/roster"
	"rosterchat/internal/app/store"
	"rosterchat/internal/pkg/apperrors"
)

// fakeRosterAPI serves canned payloads, optionally failing specific calls or
// blocking until released.
type fakeRosterAPI struct {
	rosters  []roster.RosterPayload
	subjects map[string][]roster.SubjectPayload
	classes  map[string][]roster.ClassPayload

	classErrs map[string]error
	block     chan struct{}
}

func (f *fakeRosterAPI) GetRosters(_ context.Context) ([]roster.RosterPayload, error) {
	if f.block != nil {
		<-f.block
	}
	return f.rosters, nil
}

func (f *fakeRosterAPI) GetSubjects(_ context.Context, slug string) ([]roster.SubjectPayload, error) {
	return f.subjects[slug], nil
}

func (f *fakeRosterAPI) GetClasses(_ context.Context, slug, subject string) ([]roster.ClassPayload, error) {
	key := slug + "/" + subject
	if err, ok := f.classErrs[key]; ok {
		return nil, err
	}
	return f.classes[key], nil
}

func units(v float64) *float64 { return &v }

func waitForJob(t *testing.T, svc *IngestionService, jobID string) *IngestJob {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := svc.Job(jobID)
		return err == nil && job.Status != IngestStatusRunning
	}, 2*time.Second, 5*time.Millisecond)
	job, err := svc.Job(jobID)
	require.NoError(t, err)
	return job
}

func TestIngestion_FullRun(t *testing.T) {
	api := &fakeRosterAPI{
		rosters: []roster.RosterPayload{
			{Slug: "SP24", Descr: "Spring 2024"},
			{Slug: "FA24", Descr: "Fall 2024"},
		},
		subjects: map[string][]roster.SubjectPayload{
			"SP24": {{Value: "CS", Descr: "Computer Science"}},
			"FA24": {{Value: "CS", Descr: "Computer Science"}},
		},
		classes: map[string][]roster.ClassPayload{
			"SP24/CS": {{Subject: "CS", CatalogNbr: "2110", TitleLong: "Object-Oriented Programming"}},
			"FA24/CS": {
				{Subject: "CS", CatalogNbr: "2110", TitleLong: "Object-Oriented Programming"},
				{Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning"},
			},
		},
	}
	memory := store.NewMemoryStore()
	svc := NewIngestionService(memory, api, zerolog.Nop())

	job, err := svc.Start()
	require.NoError(t, err)
	job = waitForJob(t, svc, job.ID)

	assert.Equal(t, IngestStatusDone, job.Status)
	assert.NotNil(t, job.FinishedAt)
	assert.Equal(t, 2, job.Progress.RostersCompleted)
	assert.Equal(t, 2, job.Progress.SubjectsCompleted)
	assert.Equal(t, 3, job.Progress.CoursesStored)
	assert.Empty(t, job.Progress.Errors)

	ctx := context.Background()
	stats, err := memory.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Rosters: 2, Subjects: 2, Courses: 3}, stats)

	// Roster slugs were decoded so "latest" ordering works.
	latest, err := memory.GetLatestCourse(ctx, "CS", "2110")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "FA24", latest.RosterSlug)
}

func TestIngestion_SingletonGuard(t *testing.T) {
	api := &fakeRosterAPI{block: make(chan struct{})}
	svc := NewIngestionService(store.NewMemoryStore(), api, zerolog.Nop())

	job, err := svc.Start()
	require.NoError(t, err)
	assert.True(t, svc.Running())

	_, err = svc.Start()
	assert.ErrorIs(t, err, apperrors.ErrIngestionRunning)

	close(api.block)
	waitForJob(t, svc, job.ID)
	assert.False(t, svc.Running())

	// A finished job no longer blocks new runs.
	_, err = svc.Start()
	require.NoError(t, err)
}

func TestIngestion_SubjectFailureIsIsolated(t *testing.T) {
	api := &fakeRosterAPI{
		rosters: []roster.RosterPayload{{Slug: "FA24", Descr: "Fall 2024"}},
		subjects: map[string][]roster.SubjectPayload{
			"FA24": {
				{Value: "CS", Descr: "Computer Science"},
				{Value: "INFO", Descr: "Information Science"},
			},
		},
		classes: map[string][]roster.ClassPayload{
			"FA24/INFO": {{Subject: "INFO", CatalogNbr: "2950", TitleLong: "Intro to Data Science"}},
		},
		classErrs: map[string]error{
			"FA24/CS": errors.New("upstream 500"),
		},
	}
	memory := store.NewMemoryStore()
	svc := NewIngestionService(memory, api, zerolog.Nop())

	job, err := svc.Start()
	require.NoError(t, err)
	job = waitForJob(t, svc, job.ID)

	// The failing subject is logged, the roster still completes.
	assert.Equal(t, IngestStatusDone, job.Status)
	require.Len(t, job.Progress.Errors, 1)
	assert.Contains(t, job.Progress.Errors[0], "FA24")
	assert.Equal(t, 1, job.Progress.SubjectsCompleted)
	assert.Equal(t, 1, job.Progress.RostersCompleted)

	course, err := memory.GetLatestCourse(context.Background(), "INFO", "2950")
	require.NoError(t, err)
	assert.NotNil(t, course)
}

func TestIngestion_JobLookup(t *testing.T) {
	svc := NewIngestionService(store.NewMemoryStore(), &fakeRosterAPI{}, zerolog.Nop())

	assert.Nil(t, svc.LatestJob())
	_, err := svc.Job("missing")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)

	job, err := svc.Start()
	require.NoError(t, err)
	waitForJob(t, svc, job.ID)

	latest := svc.LatestJob()
	require.NotNil(t, latest)
	assert.Equal(t, job.ID, latest.ID)
}

func TestParseRosterSlug(t *testing.T) {
	tests := []struct {
		slug     string
		year     int
		termCode int
	}{
		{"FA25", 2025, models.TermFall},
		{"SP24", 2024, models.TermSpring},
		{"SU23", 2023, models.TermSummer},
		{"WI24", 2024, models.TermWinter},
		{"XX24", 2024, 0},
		{"FA", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			year, termCode := parseRosterSlug(tt.slug)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.termCode, termCode)
		})
	}
}

func TestExtractCourse_GradingVariations(t *testing.T) {
	class := roster.ClassPayload{
		Subject: "NBAY", CatalogNbr: "5500", TitleLong: "Designing and Building AI Solutions",
		EnrollGroups: []roster.EnrollGroupPayload{
			{GradingBasis: "Student Option", UnitsMinimum: units(1), UnitsMaximum: units(3)},
			{GradingBasis: "Satisfactory/Unsatisfactory", UnitsMinimum: units(2), UnitsMaximum: units(4)},
		},
	}

	course := extractCourse(class, "FA24", "Fall 2024")

	assert.Empty(t, course.GradingBasis)
	assert.Equal(t, []string{"Student Option (Letter or S/U)", "S/U only"}, course.GradingBasisVariations)
	assert.Equal(t, 1.0, *course.UnitsMinimum)
	assert.Equal(t, 4.0, *course.UnitsMaximum)
	assert.NotEmpty(t, course.RawData)
}

func TestExtractCourse_UniformGradingStaysSingular(t *testing.T) {
	class := roster.ClassPayload{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		EnrollGroups: []roster.EnrollGroupPayload{
			{GradingBasis: "Student Option"},
			{GradingBasis: "Student Option"},
		},
	}

	course := extractCourse(class, "FA24", "Fall 2024")

	assert.Equal(t, "Student Option", course.GradingBasis)
	assert.Empty(t, course.GradingBasisVariations)
}

func TestExtractCourse_SectionsAndInstructors(t *testing.T) {
	meeting := roster.MeetingPayload{
		Pattern: "TR", TimeStart: "10:10AM", TimeEnd: "11:25AM",
		Instructors: []roster.InstructorPayload{
			{FirstName: "Kilian", LastName: "Weinberger"},
			{NetID: "tj123"},
		},
	}
	class := roster.ClassPayload{
		Subject: "CS", CatalogNbr: "4780", TitleLong: "Machine Learning",
		EnrollGroups: []roster.EnrollGroupPayload{
			{ClassSections: []roster.SectionPayload{
				{Section: "001", Meetings: []roster.MeetingPayload{meeting}},
				{Section: "002", Meetings: []roster.MeetingPayload{meeting}},
			}},
		},
	}

	course := extractCourse(class, "FA24", "Fall 2024")

	// Identical meetings and repeated instructors collapse.
	require.Len(t, course.MeetingPatterns, 1)
	assert.Equal(t, models.MeetingPattern{Days: "TR", TimeStart: "10:10AM", TimeEnd: "11:25AM"}, course.MeetingPatterns[0])
	assert.Equal(t, []string{"Kilian Weinberger", "tj123"}, course.Instructors)
}
