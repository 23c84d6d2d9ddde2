package store

import (
	"context"
	"sort"

	"rosterchat/internal/app/models"
)

// Stats counts what the store currently holds.
type Stats struct {
	Rosters  int `json:"rosters"`
	Subjects int `json:"subjects"`
	Courses  int `json:"courses"`
}

// CourseStore is the catalog snapshot store. Course writes are idempotent
// upserts keyed by (subject, catalogNbr, rosterSlug): the first write for a
// key wins and later writes for the same key are no-ops, so re-ingestion
// never clobbers prior terms. "Latest" is always recomputed from roster
// ordering by (year, termCode) descending.
type CourseStore interface {
	// Roster operations
	StoreRoster(ctx context.Context, roster models.Roster) error
	GetRosters(ctx context.Context) ([]models.Roster, error)
	GetLatestRoster(ctx context.Context) (*models.Roster, error)

	// Subject operations
	StoreSubject(ctx context.Context, subject models.Subject) error
	GetSubjects(ctx context.Context, rosterSlug string) ([]models.Subject, error)

	// Course operations
	StoreCourse(ctx context.Context, course models.Course) error
	StoreCourses(ctx context.Context, courses []models.Course) error
	GetCourse(ctx context.Context, subject, catalogNbr, rosterSlug string) (*models.Course, error)
	GetLatestCourse(ctx context.Context, subject, catalogNbr string) (*models.Course, error)
	GetCourseHistory(ctx context.Context, subject, catalogNbr string) ([]models.Course, error)
	GetCoursesBySubject(ctx context.Context, subject string, limit int) ([]models.Course, error)
	SearchByTitle(ctx context.Context, query string) ([]models.Course, error)
	GetAllCourses(ctx context.Context) ([]models.Course, error)

	// Utility
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (Stats, error)
}

// sortRosters orders rosters by (year, termCode) descending.
func sortRosters(rosters []models.Roster) {
	sort.Slice(rosters, func(i, j int) bool {
		return rosters[i].After(rosters[j])
	})
}
