package services

import (
	"fmt"
	"strings"

	"rosterchat/internal/app/models"
	"rosterchat/internal/app/store"
	"rosterchat/internal/pkg/grading"
)

// courseGrounding flattens a course snapshot into the fact-only context string
// fed to answer generation. Only populated fields appear, one per line.
func courseGrounding(course *models.Course) string {
	parts := []string{
		fmt.Sprintf("Course: %s %s - %s", course.Subject, course.CatalogNbr, course.TitleLong),
		fmt.Sprintf("Semester: %s", course.RosterDescr),
	}

	if course.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", course.Description))
	}
	if credits := formatCredits(course.UnitsMinimum, course.UnitsMaximum); credits != "" {
		parts = append(parts, fmt.Sprintf("Credits: %s", credits))
	}
	if course.GradingBasis != "" {
		parts = append(parts, fmt.Sprintf("Grading: %s", grading.Format(course.GradingBasis)))
	}
	if len(course.GradingBasisVariations) > 1 {
		parts = append(parts, fmt.Sprintf("Grading varies by section: %s", strings.Join(course.GradingBasisVariations, ", ")))
	}
	if len(course.Instructors) > 0 {
		parts = append(parts, fmt.Sprintf("Instructor(s): %s", strings.Join(course.Instructors, ", ")))
	}
	if len(course.MeetingPatterns) > 0 {
		schedules := make([]string, 0, len(course.MeetingPatterns))
		for _, p := range course.MeetingPatterns {
			schedules = append(schedules, fmt.Sprintf("%s %s–%s", p.Days, p.TimeStart, p.TimeEnd))
		}
		parts = append(parts, fmt.Sprintf("Schedule: %s", strings.Join(schedules, "; ")))
	}
	if course.Prerequisites != "" {
		parts = append(parts, fmt.Sprintf("Prerequisites: %s", course.Prerequisites))
	}
	if course.Outcomes != "" {
		parts = append(parts, fmt.Sprintf("Learning Outcomes: %s", course.Outcomes))
	}
	if course.SatisfiesRequirements != "" {
		parts = append(parts, fmt.Sprintf("Satisfies: %s", course.SatisfiesRequirements))
	}
	if course.BreadthRequirements != "" {
		parts = append(parts, fmt.Sprintf("Breadth: %s", course.BreadthRequirements))
	}
	if course.DistributionCategories != "" {
		parts = append(parts, fmt.Sprintf("Distribution: %s", course.DistributionCategories))
	}
	if len(course.ForbiddenOverlaps) > 0 {
		parts = append(parts, fmt.Sprintf("Cannot be taken with: %s", strings.Join(course.ForbiddenOverlaps, ", ")))
	}
	if course.PermissionRequired != "" {
		parts = append(parts, fmt.Sprintf("Permission: %s", course.PermissionRequired))
	}
	if course.LastTermsOffered != "" {
		parts = append(parts, fmt.Sprintf("Previously offered: %s", course.LastTermsOffered))
	}

	return strings.Join(parts, "\n")
}

// browseGrounding flattens a subject listing into grounding text. The note,
// when present, explains why the listing spans terms the user didn't ask for.
func browseGrounding(subject string, courses []models.Course, note string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stored %s course offerings:\n", subject)
	for _, course := range courses {
		fmt.Fprintf(&b, "- %s %s: %s (%s)\n", course.Subject, course.CatalogNbr, course.TitleLong, course.RosterDescr)
	}
	if note != "" {
		b.WriteString(note)
	}
	return b.String()
}

// statsGrounding describes what data exists, for broad or negative answers.
func statsGrounding(stats store.Stats) string {
	return fmt.Sprintf(
		"Available data: %d rosters, %d subjects and %d course snapshots from Cornell's public Class Roster.",
		stats.Rosters, stats.Subjects, stats.Courses)
}

// formatCredits renders the units range the way the roster displays it.
func formatCredits(min, max *float64) string {
	if min == nil {
		return ""
	}
	if max == nil || *min == *max {
		unit := "credits"
		if *min == 1 {
			unit = "credit"
		}
		return fmt.Sprintf("%g %s", *min, unit)
	}
	return fmt.Sprintf("%g–%g credits", *min, *max)
}
