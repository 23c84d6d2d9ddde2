package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rosterchat/internal/app/models"
	"rosterchat/internal/app/models/dto"
	"rosterchat/internal/app/roster"
	"rosterchat/internal/app/store"
	"rosterchat/internal/pkg/apperrors"
	"rosterchat/internal/pkg/grading"
)

// IngestStatus is the lifecycle state of an ingestion job.
type IngestStatus string

const (
	IngestStatusIdle    IngestStatus = "idle"
	IngestStatusRunning IngestStatus = "running"
	IngestStatusDone    IngestStatus = "done"
	IngestStatusFailed  IngestStatus = "failed"
)

// IngestJob tracks one ingestion run.
type IngestJob struct {
	ID         string
	Status     IngestStatus
	Progress   dto.IngestProgress
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Roster slugs encode a two-letter season and a two-digit year, e.g. "FA25".
var slugTermCodes = map[string]int{
	"WI": models.TermWinter,
	"SP": models.TermSpring,
	"SU": models.TermSummer,
	"FA": models.TermFall,
}

// IngestionService pulls the full roster catalog into the course store. At
// most one job runs at a time; completed jobs stay queryable by id.
type IngestionService struct {
	store  store.CourseStore
	api    roster.API
	logger zerolog.Logger

	mu      sync.Mutex
	jobs    map[string]*IngestJob
	current string
	lastJob string
}

// NewIngestionService creates the ingestion service.
func NewIngestionService(courseStore store.CourseStore, api roster.API, logger zerolog.Logger) *IngestionService {
	return &IngestionService{
		store:  courseStore,
		api:    api,
		logger: logger.With().Str("component", "ingestion").Logger(),
		jobs:   make(map[string]*IngestJob),
	}
}

// Start launches a background ingestion run and returns its job record.
// A second Start while a job is running fails with ErrIngestionRunning.
func (s *IngestionService) Start() (*IngestJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" {
		return nil, apperrors.ErrIngestionRunning
	}

	job := &IngestJob{
		ID:        uuid.NewString(),
		Status:    IngestStatusRunning,
		StartedAt: time.Now(),
		Progress:  dto.IngestProgress{Errors: []string{}},
	}
	s.jobs[job.ID] = job
	s.current = job.ID
	s.lastJob = job.ID

	go s.run(job.ID)

	snapshot := *job
	return &snapshot, nil
}

// Job returns a snapshot of the job with the given id.
func (s *IngestionService) Job(id string) (*IngestJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// LatestJob returns a snapshot of the most recently started job, or nil when
// no job has ever run.
func (s *IngestionService) LatestJob() *IngestJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[s.lastJob]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// Running reports whether a job is currently in flight.
func (s *IngestionService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != ""
}

func (s *IngestionService) run(jobID string) {
	// Detached from the triggering request: ingestion outlives it.
	ctx := context.Background()

	s.logger.Info().Str("jobId", jobID).Msg("Starting roster ingestion")
	err := s.ingest(ctx, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[jobID]
	now := time.Now()
	job.FinishedAt = &now
	s.current = ""
	if err != nil {
		job.Status = IngestStatusFailed
		job.Progress.Errors = append(job.Progress.Errors, err.Error())
		s.logger.Error().Err(err).Str("jobId", jobID).Msg("Ingestion failed")
		return
	}
	job.Status = IngestStatusDone
	s.logger.Info().
		Str("jobId", jobID).
		Int("rosters", job.Progress.RostersCompleted).
		Int("courses", job.Progress.CoursesStored).
		Int("errors", len(job.Progress.Errors)).
		Msg("Ingestion complete")
}

// ingest walks rosters, their subjects and their classes. A roster or subject
// failure is recorded and skipped; only a rosters-list failure aborts the run.
func (s *IngestionService) ingest(ctx context.Context, jobID string) error {
	rosters, err := s.api.GetRosters(ctx)
	if err != nil {
		return fmt.Errorf("fetching rosters: %w", err)
	}

	s.update(jobID, func(job *IngestJob) {
		job.Progress.TotalRosters = len(rosters)
	})

	for _, payload := range rosters {
		year, termCode := parseRosterSlug(payload.Slug)
		if err := s.store.StoreRoster(ctx, models.Roster{
			Slug:     payload.Slug,
			Descr:    payload.Descr,
			Year:     year,
			TermCode: termCode,
		}); err != nil {
			return fmt.Errorf("storing roster %s: %w", payload.Slug, err)
		}
	}

	for _, rosterPayload := range rosters {
		s.update(jobID, func(job *IngestJob) {
			job.Progress.CurrentRoster = rosterPayload.Slug
		})

		if err := s.ingestRoster(ctx, jobID, rosterPayload); err != nil {
			s.recordError(jobID, fmt.Sprintf("roster %s: %v", rosterPayload.Slug, err))
			continue
		}

		s.update(jobID, func(job *IngestJob) {
			job.Progress.RostersCompleted++
		})
	}

	return nil
}

func (s *IngestionService) ingestRoster(ctx context.Context, jobID string, rosterPayload roster.RosterPayload) error {
	subjects, err := s.api.GetSubjects(ctx, rosterPayload.Slug)
	if err != nil {
		return fmt.Errorf("fetching subjects: %w", err)
	}

	s.update(jobID, func(job *IngestJob) {
		job.Progress.TotalSubjects += len(subjects)
	})

	for _, subjectPayload := range subjects {
		if err := s.store.StoreSubject(ctx, models.Subject{
			Code:       subjectPayload.Value,
			Name:       subjectPayload.Descr,
			RosterSlug: rosterPayload.Slug,
		}); err != nil {
			return fmt.Errorf("storing subject %s: %w", subjectPayload.Value, err)
		}
	}

	for _, subjectPayload := range subjects {
		s.update(jobID, func(job *IngestJob) {
			job.Progress.CurrentSubject = subjectPayload.Value
		})

		classes, err := s.api.GetClasses(ctx, rosterPayload.Slug, subjectPayload.Value)
		if err != nil {
			s.recordError(jobID, fmt.Sprintf("classes for %s in %s: %v", subjectPayload.Value, rosterPayload.Slug, err))
			continue
		}

		courses := make([]models.Course, 0, len(classes))
		for _, class := range classes {
			courses = append(courses, extractCourse(class, rosterPayload.Slug, rosterPayload.Descr))
		}
		if err := s.store.StoreCourses(ctx, courses); err != nil {
			s.recordError(jobID, fmt.Sprintf("storing courses for %s in %s: %v", subjectPayload.Value, rosterPayload.Slug, err))
			continue
		}

		s.update(jobID, func(job *IngestJob) {
			job.Progress.CoursesStored += len(courses)
			job.Progress.SubjectsCompleted++
		})
	}

	return nil
}

func (s *IngestionService) update(jobID string, fn func(job *IngestJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		fn(job)
	}
}

func (s *IngestionService) recordError(jobID string, msg string) {
	s.logger.Warn().Str("jobId", jobID).Msg(msg)
	s.update(jobID, func(job *IngestJob) {
		job.Progress.Errors = append(job.Progress.Errors, msg)
	})
}

// parseRosterSlug decodes slugs like "FA25" into (2025, 4). Unknown seasons
// yield term code 0, which sorts below every real term.
func parseRosterSlug(slug string) (year, termCode int) {
	if len(slug) < 4 {
		return 0, 0
	}
	yy, err := strconv.Atoi(slug[2:])
	if err == nil {
		year = 2000 + yy
	}
	return year, slugTermCodes[slug[:2]]
}

// extractCourse normalizes one class payload into a stored course snapshot.
func extractCourse(class roster.ClassPayload, rosterSlug, rosterDescr string) models.Course {
	course := models.Course{
		Subject:                class.Subject,
		CatalogNbr:             class.CatalogNbr,
		TitleLong:              class.TitleLong,
		RosterSlug:             rosterSlug,
		RosterDescr:            rosterDescr,
		Description:            class.Description,
		Prerequisites:          class.CatalogPrereqCoreq,
		Outcomes:               class.CatalogOutcomeDesc,
		SatisfiesRequirements:  class.CatalogSatisfiesReq,
		BreadthRequirements:    class.CatalogBreadth,
		DistributionCategories: class.CatalogDistr,
		ForbiddenOverlaps:      class.CatalogForbiddenOverlaps,
		PermissionRequired:     class.CatalogPermission,
		LastTermsOffered:       class.CatalogWhenOffered,
	}

	// Distinct raw bases across enroll groups; a single value is stored as-is,
	// multiple values are stored as formatted variations.
	var rawBases []string
	seenRaw := map[string]struct{}{}
	for _, group := range class.EnrollGroups {
		if group.GradingBasis != "" {
			if _, ok := seenRaw[group.GradingBasis]; !ok {
				seenRaw[group.GradingBasis] = struct{}{}
				rawBases = append(rawBases, group.GradingBasis)
			}
		}
		if group.UnitsMinimum != nil {
			if course.UnitsMinimum == nil || *group.UnitsMinimum < *course.UnitsMinimum {
				v := *group.UnitsMinimum
				course.UnitsMinimum = &v
			}
		}
		if group.UnitsMaximum != nil {
			if course.UnitsMaximum == nil || *group.UnitsMaximum > *course.UnitsMaximum {
				v := *group.UnitsMaximum
				course.UnitsMaximum = &v
			}
		}

		for _, section := range group.ClassSections {
			for _, meeting := range section.Meetings {
				if meeting.Pattern != "" || meeting.TimeStart != "" {
					course.MeetingPatterns = appendMeeting(course.MeetingPatterns, models.MeetingPattern{
						Days:      meeting.Pattern,
						TimeStart: meeting.TimeStart,
						TimeEnd:   meeting.TimeEnd,
					})
				}
				for _, instructor := range meeting.Instructors {
					course.Instructors = appendInstructor(course.Instructors, instructorName(instructor))
				}
			}
		}
	}
	switch len(rawBases) {
	case 0:
	case 1:
		course.GradingBasis = rawBases[0]
	default:
		variations := make([]string, 0, len(rawBases))
		seen := map[string]struct{}{}
		for _, basis := range rawBases {
			formatted := grading.Format(basis)
			if _, ok := seen[formatted]; ok {
				continue
			}
			seen[formatted] = struct{}{}
			variations = append(variations, formatted)
		}
		if len(variations) == 1 {
			// Different codes, same meaning.
			course.GradingBasis = rawBases[0]
		} else {
			course.GradingBasisVariations = variations
		}
	}

	if raw, err := json.Marshal(class); err == nil {
		course.RawData = string(raw)
	}

	return course
}

func instructorName(instructor roster.InstructorPayload) string {
	switch {
	case instructor.FirstName != "" && instructor.LastName != "":
		return instructor.FirstName + " " + instructor.LastName
	case instructor.LastName != "":
		return instructor.LastName
	default:
		return instructor.NetID
	}
}

func appendMeeting(patterns []models.MeetingPattern, pattern models.MeetingPattern) []models.MeetingPattern {
	for _, existing := range patterns {
		if existing == pattern {
			return patterns
		}
	}
	return append(patterns, pattern)
}

func appendInstructor(instructors []string, name string) []string {
	if name == "" {
		return instructors
	}
	for _, existing := range instructors {
		if existing == name {
			return instructors
		}
	}
	return append(instructors, name)
}
