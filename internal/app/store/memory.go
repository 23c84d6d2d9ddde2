package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"rosterchat/internal/app/models"
)

// MemoryStore is the in-memory CourseStore. Reads tolerate partial ingestion;
// a half-ingested store simply answers fewer questions.
type MemoryStore struct {
	mu       sync.RWMutex
	rosters  map[string]models.Roster
	subjects map[string]models.Subject
	courses  map[string]models.Course
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rosters:  make(map[string]models.Roster),
		subjects: make(map[string]models.Subject),
		courses:  make(map[string]models.Course),
	}
}

// StoreRoster upserts a roster by slug.
func (s *MemoryStore) StoreRoster(_ context.Context, roster models.Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[roster.Slug] = roster
	return nil
}

// GetRosters returns all rosters, most recent term first.
func (s *MemoryStore) GetRosters(_ context.Context) ([]models.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rosters := make([]models.Roster, 0, len(s.rosters))
	for _, r := range s.rosters {
		rosters = append(rosters, r)
	}
	sortRosters(rosters)
	return rosters, nil
}

// GetLatestRoster returns the most recent roster, or nil when none is stored.
func (s *MemoryStore) GetLatestRoster(ctx context.Context) (*models.Roster, error) {
	rosters, err := s.GetRosters(ctx)
	if err != nil || len(rosters) == 0 {
		return nil, err
	}
	return &rosters[0], nil
}

// StoreSubject upserts a subject scoped to its roster.
func (s *MemoryStore) StoreSubject(_ context.Context, subject models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.RosterSlug+"-"+subject.Code] = subject
	return nil
}

// GetSubjects lists subjects, optionally filtered to one roster.
func (s *MemoryStore) GetSubjects(_ context.Context, rosterSlug string) ([]models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var subjects []models.Subject
	for _, sub := range s.subjects {
		if rosterSlug == "" || sub.RosterSlug == rosterSlug {
			subjects = append(subjects, sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].RosterSlug != subjects[j].RosterSlug {
			return subjects[i].RosterSlug < subjects[j].RosterSlug
		}
		return subjects[i].Code < subjects[j].Code
	})
	return subjects, nil
}

// StoreCourse inserts a course snapshot. Inserting an existing
// (subject, catalogNbr, rosterSlug) key is a no-op.
func (s *MemoryStore) StoreCourse(_ context.Context, course models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := course.Key()
	if _, exists := s.courses[key]; exists {
		return nil
	}
	s.courses[key] = course
	return nil
}

// StoreCourses inserts a batch of course snapshots.
func (s *MemoryStore) StoreCourses(ctx context.Context, courses []models.Course) error {
	for _, course := range courses {
		if err := s.StoreCourse(ctx, course); err != nil {
			return err
		}
	}
	return nil
}

// GetCourse fetches one snapshot; with an empty rosterSlug it falls back to
// the latest snapshot of the course.
func (s *MemoryStore) GetCourse(ctx context.Context, subject, catalogNbr, rosterSlug string) (*models.Course, error) {
	if rosterSlug == "" {
		return s.GetLatestCourse(ctx, subject, catalogNbr)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if course, ok := s.courses[subject+"-"+catalogNbr+"-"+rosterSlug]; ok {
		return &course, nil
	}
	return nil, nil
}

// GetCourseHistory returns all snapshots of a course, most recent term first.
func (s *MemoryStore) GetCourseHistory(_ context.Context, subject, catalogNbr string) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []models.Course
	for _, c := range s.courses {
		if c.Subject == subject && c.CatalogNbr == catalogNbr {
			history = append(history, c)
		}
	}
	s.sortByRosterLocked(history)
	return history, nil
}

// GetLatestCourse returns the snapshot from the most recent roster that
// offered the course, or nil when the course has no history.
func (s *MemoryStore) GetLatestCourse(ctx context.Context, subject, catalogNbr string) (*models.Course, error) {
	history, err := s.GetCourseHistory(ctx, subject, catalogNbr)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return &history[0], nil
}

// GetCoursesBySubject lists a subject's courses deduplicated to the latest
// snapshot per catalog number, up to limit.
func (s *MemoryStore) GetCoursesBySubject(_ context.Context, subject string, limit int) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var courses []models.Course
	for _, c := range s.courses {
		if c.Subject == subject {
			courses = append(courses, c)
		}
	}

	unique := s.dedupeLatestLocked(courses)
	sort.Slice(unique, func(i, j int) bool { return unique[i].CatalogNbr < unique[j].CatalogNbr })
	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique, nil
}

// SearchByTitle finds courses whose title contains the query,
// case-insensitively, deduplicated to the latest snapshot per course and
// ranked exact match > prefix match > alphabetical.
func (s *MemoryStore) SearchByTitle(_ context.Context, query string) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	var matches []models.Course
	for _, c := range s.courses {
		if strings.Contains(strings.ToLower(c.TitleLong), needle) {
			matches = append(matches, c)
		}
	}

	unique := s.dedupeLatestLocked(matches)
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
func (s *MemoryStore) GetAllCourses(_ context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		courses = append(courses, c)
	}
	return courses, nil
}

// Clear wipes the store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters = make(map[string]models.Roster)
	s.subjects = make(map[string]models.Subject)
	s.courses = make(map[string]models.Course)
	return nil
}

// GetStats counts stored rosters, subjects and courses.
func (s *MemoryStore) GetStats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Rosters:  len(s.rosters),
		Subjects: len(s.subjects),
		Courses:  len(s.courses),
	}, nil
}

// sortByRosterLocked orders courses most recent roster first. Courses from
// unknown rosters keep their relative order at the end.
func (s *MemoryStore) sortByRosterLocked(courses []models.Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		a, aOK := s.rosters[courses[i].RosterSlug]
		b, bOK := s.rosters[courses[j].RosterSlug]
		if !aOK || !bOK {
			return aOK
		}
		return a.After(b)
	})
}

// dedupeLatestLocked keeps the latest snapshot per (subject, catalogNbr).
func (s *MemoryStore) dedupeLatestLocked(courses []models.Course) []models.Course {
	unique := make(map[string]models.Course)
	for _, course := range courses {
		key := course.CourseKey()
		existing, ok := unique[key]
		if !ok {
			unique[key] = course
			continue
		}
		existingRoster, eOK := s.rosters[existing.RosterSlug]
		courseRoster, cOK := s.rosters[course.RosterSlug]
		if eOK && cOK && courseRoster.After(existingRoster) {
			unique[key] = course
		}
	}

	result := make([]models.Course, 0, len(unique))
	for _, course := range unique {
		result = append(result, course)
	}
	return result
}
