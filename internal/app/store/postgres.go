package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"rosterchat/internal/app/models"
	appdb "rosterchat/internal/db"
)

// PostgresStore is the pgx-backed CourseStore. Course inserts use
// ON CONFLICT DO NOTHING so re-ingestion never mutates stored snapshots.
type PostgresStore struct {
	db *appdb.PostgresDB
}

// NewPostgresStore creates a Postgres-backed course store.
func NewPostgresStore(db *appdb.PostgresDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// pgExecutor is satisfied by both the pool and a transaction.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// StoreRoster upserts a roster by slug.
func (s *PostgresStore) StoreRoster(ctx context.Context, roster models.Roster) error {
	query := `
		INSERT INTO rosters (slug, descr, year, term_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET descr = $2, year = $3, term_code = $4
	`

	_, err := s.db.Pool.Exec(ctx, query, roster.Slug, roster.Descr, roster.Year, roster.TermCode)
	if err != nil {
		return fmt.Errorf("error storing roster: %w", err)
	}
	return nil
}

// GetRosters returns all rosters, most recent term first.
func (s *PostgresStore) GetRosters(ctx context.Context) ([]models.Roster, error) {
	query := `
		SELECT slug, descr, year, term_code
		FROM rosters
		ORDER BY year DESC, term_code DESC
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rosters []models.Roster
	for rows.Next() {
		var roster models.Roster
		if err := rows.Scan(&roster.Slug, &roster.Descr, &roster.Year, &roster.TermCode); err != nil {
			return nil, err
		}
		rosters = append(rosters, roster)
	}
	return rosters, rows.Err()
}

// GetLatestRoster returns the most recent roster, or nil when none is stored.
func (s *PostgresStore) GetLatestRoster(ctx context.Context) (*models.Roster, error) {
	query := `
		SELECT slug, descr, year, term_code
		FROM rosters
		ORDER BY year DESC, term_code DESC
		LIMIT 1
	`

	var roster models.Roster
	err := s.db.Pool.QueryRow(ctx, query).Scan(&roster.Slug, &roster.Descr, &roster.Year, &roster.TermCode)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &roster, nil
}

// StoreSubject inserts a subject; duplicates within a roster are ignored.
func (s *PostgresStore) StoreSubject(ctx context.Context, subject models.Subject) error {
	query := `
		INSERT INTO subjects (roster_slug, code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (roster_slug, code) DO NOTHING
	`

	_, err := s.db.Pool.Exec(ctx, query, subject.RosterSlug, subject.Code, subject.Name)
	if err != nil {
		return fmt.Errorf("error storing subject: %w", err)
	}
	return nil
}

// GetSubjects lists subjects, optionally filtered to one roster.
func (s *PostgresStore) GetSubjects(ctx context.Context, rosterSlug string) ([]models.Subject, error) {
	query := `
		SELECT roster_slug, code, name
		FROM subjects
	`
	args := []interface{}{}
	if rosterSlug != "" {
		query += ` WHERE roster_slug = $1`
		args = append(args, rosterSlug)
	}
	query += ` ORDER BY roster_slug, code`

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var subject models.Subject
		if err := rows.Scan(&subject.RosterSlug, &subject.Code, &subject.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

const courseColumns = `
	subject, catalog_nbr, title_long, roster_slug, roster_descr, description,
	grading_basis, grading_basis_variations, units_minimum, units_maximum,
	instructors, meeting_patterns, prerequisites, outcomes,
	satisfies_requirements, breadth_requirements, distribution_categories,
	forbidden_overlaps, permission_required, last_terms_offered, raw_data
`

// StoreCourse inserts a course snapshot; an existing key is left untouched.
func (s *PostgresStore) StoreCourse(ctx context.Context, course models.Course) error {
	return insertCourse(ctx, s.db.Pool, course)
}

func insertCourse(ctx context.Context, exec pgExecutor, course models.Course) error {
	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (subject, catalog_nbr, roster_slug) DO NOTHING
	`

	variations, err := json.Marshal(course.GradingBasisVariations)
	if err != nil {
		return fmt.Errorf("error encoding grading basis variations: %w", err)
	}
	instructors, err := json.Marshal(course.Instructors)
	if err != nil {
		return fmt.Errorf("error encoding instructors: %w", err)
	}
	patterns, err := json.Marshal(course.MeetingPatterns)
	if err != nil {
		return fmt.Errorf("error encoding meeting patterns: %w", err)
	}
	overlaps, err := json.Marshal(course.ForbiddenOverlaps)
	if err != nil {
		return fmt.Errorf("error encoding forbidden overlaps: %w", err)
	}

	_, err = exec.Exec(ctx, query,
		course.Subject,
		course.CatalogNbr,
		course.TitleLong,
		course.RosterSlug,
		course.RosterDescr,
		course.Description,
		course.GradingBasis,
		variations,
		course.UnitsMinimum,
		course.UnitsMaximum,
		instructors,
		patterns,
		course.Prerequisites,
		course.Outcomes,
		course.SatisfiesRequirements,
		course.BreadthRequirements,
		course.DistributionCategories,
		overlaps,
		course.PermissionRequired,
		course.LastTermsOffered,
		course.RawData,
	)
	if err != nil {
		return fmt.Errorf("error storing course: %w", err)
	}
	return nil
}

// StoreCourses inserts a batch of course snapshots in one transaction.
func (s *PostgresStore) StoreCourses(ctx context.Context, courses []models.Course) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, course := range courses {
			if err := insertCourse(ctx, tx, course); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCourse fetches one snapshot; with an empty rosterSlug it falls back to
// the latest snapshot of the course.
func (s *PostgresStore) GetCourse(ctx context.Context, subject, catalogNbr, rosterSlug string) (*models.Course, error) {
	if rosterSlug == "" {
		return s.GetLatestCourse(ctx, subject, catalogNbr)
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE subject = $1 AND catalog_nbr = $2 AND roster_slug = $3
	`

	rows, err := s.db.Pool.Query(ctx, query, subject, catalogNbr, rosterSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil || len(courses) == 0 {
		return nil, err
	}
	return &courses[0], nil
}

// GetCourseHistory returns all snapshots of a course, most recent term first.
func (s *PostgresStore) GetCourseHistory(ctx context.Context, subject, catalogNbr string) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		WHERE subject = $1 AND catalog_nbr = $2
	`

	rows, err := s.db.Pool.Query(ctx, query, subject, catalogNbr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}
	return s.sortByRoster(ctx, courses)
}

// GetLatestCourse returns the snapshot from the most recent roster that
// offered the course, or nil when the course has no history.
func (s *PostgresStore) GetLatestCourse(ctx context.Context, subject, catalogNbr string) (*models.Course, error) {
	history, err := s.GetCourseHistory(ctx, subject, catalogNbr)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return &history[0], nil
}

// GetCoursesBySubject lists a subject's courses deduplicated to the latest
// snapshot per catalog number, up to limit.
func (s *PostgresStore) GetCoursesBySubject(ctx context.Context, subject string, limit int) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE subject = $1
	`

	rows, err := s.db.Pool.Query(ctx, query, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}

	unique, err := s.dedupeLatest(ctx, courses)
	if err != nil {
		return nil, err
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].CatalogNbr < unique[j].CatalogNbr })
	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique, nil
}

// SearchByTitle finds courses whose title contains the query,
// case-insensitively, deduplicated to the latest snapshot per course and
// ranked exact match > prefix match > alphabetical.
func (s *PostgresStore) SearchByTitle(ctx context.Context, titleQuery string) ([]models.Course, error) {
	needle := strings.ToLower(strings.TrimSpace(titleQuery))
	if needle == "" {
		return nil, nil
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE LOWER(title_long) LIKE $1
	`

	rows, err := s.db.Pool.Query(ctx, query, "%"+needle+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}

	unique, err := s.dedupeLatest(ctx, courses)
	if err != nil {
		return nil, err
	}
	sort.Slice(unique, func(i, j int) bool {
		a := strings.ToLower(unique[i].TitleLong)
		b := strings.ToLower(unique[j].TitleLong)
		if (a == needle) != (b == needle) {
			return a == needle
		}
		aPrefix := strings.HasPrefix(a, needle)
		bPrefix := strings.HasPrefix(b, needle)
		if aPrefix != bPrefix {
			return aPrefix
		}
		return a < b
	})
	return unique, nil
}

// GetAllCourses returns every stored snapshot.
func (s *PostgresStore) GetAllCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+courseColumns+` FROM courses`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

// Clear wipes the store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	for _, table := range []string{"courses", "subjects", "rosters"} {
		if _, err := s.db.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}
	return nil
}

// GetStats counts stored rosters, subjects and courses.
func (s *PostgresStore) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	query := `
		SELECT
			(SELECT COUNT(*) FROM rosters),
			(SELECT COUNT(*) FROM subjects),
			(SELECT COUNT(*) FROM courses)
	`
	if err := s.db.Pool.QueryRow(ctx, query).Scan(&stats.Rosters, &stats.Subjects, &stats.Courses); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// sortByRoster orders courses most recent roster first using stored rosters.
func (s *PostgresStore) sortByRoster(ctx context.Context, courses []models.Course) ([]models.Course, error) {
	rosterMap, err := s.rosterMap(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(courses, func(i, j int) bool {
		a, aOK := rosterMap[courses[i].RosterSlug]
		b, bOK := rosterMap[courses[j].RosterSlug]
		if !aOK || !bOK {
			return aOK
		}
		return a.After(b)
	})
	return courses, nil
}

// dedupeLatest keeps the latest snapshot per (subject, catalogNbr).
func (s *PostgresStore) dedupeLatest(ctx context.Context, courses []models.Course) ([]models.Course, error) {
	rosterMap, err := s.rosterMap(ctx)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]models.Course)
	for _, course := range courses {
		key := course.CourseKey()
		existing, ok := unique[key]
		if !ok {
			unique[key] = course
			continue
		}
		existingRoster, eOK := rosterMap[existing.RosterSlug]
		courseRoster, cOK := rosterMap[course.RosterSlug]
		if eOK && cOK && courseRoster.After(existingRoster) {
			unique[key] = course
		}
	}

	result := make([]models.Course, 0, len(unique))
	for _, course := range unique {
		result = append(result, course)
	}
	return result, nil
}

func (s *PostgresStore) rosterMap(ctx context.Context) (map[string]models.Roster, error) {
	rosters, err := s.GetRosters(ctx)
	if err != nil {
		return nil, err
	}
	rosterMap := make(map[string]models.Roster, len(rosters))
	for _, roster := range rosters {
		rosterMap[roster.Slug] = roster
	}
	return rosterMap, nil
}

func scanCourses(rows pgx.Rows) ([]models.Course, error) {
	var courses []models.Course
	for rows.Next() {
		var (
			course      models.Course
			variations  []byte
			instructors []byte
			patterns    []byte
			overlaps    []byte
		)
		if err := rows.Scan(
			&course.Subject,
			&course.CatalogNbr,
			&course.TitleLong,
			&course.RosterSlug,
			&course.RosterDescr,
			&course.Description,
			&course.GradingBasis,
			&variations,
			&course.UnitsMinimum,
			&course.UnitsMaximum,
			&instructors,
			&patterns,
			&course.Prerequisites,
			&course.Outcomes,
			&course.SatisfiesRequirements,
			&course.BreadthRequirements,
			&course.DistributionCategories,
			&overlaps,
			&course.PermissionRequired,
			&course.LastTermsOffered,
			&course.RawData,
		); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(variations, &course.GradingBasisVariations); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(instructors, &course.Instructors); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(patterns, &course.MeetingPatterns); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(overlaps, &course.ForbiddenOverlaps); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func decodeJSONColumn(data []byte, dst interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dst)
}
