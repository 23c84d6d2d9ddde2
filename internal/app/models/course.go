package models

// MeetingPattern is one weekly meeting slot of a class section.
type MeetingPattern struct {
	Days      string `json:"days"`
	TimeStart string `json:"timeStart"`
	TimeEnd   string `json:"timeEnd"`
}

// Course is a snapshot of a course as offered in one roster. A snapshot is
// identified by (Subject, CatalogNbr, RosterSlug) and is immutable once stored.
type Course struct {
	Subject     string `json:"subject"`
	CatalogNbr  string `json:"catalogNbr"`
	TitleLong   string `json:"titleLong"`
	RosterSlug  string `json:"rosterSlug"`
	RosterDescr string `json:"rosterDescr"`

	Description string `json:"description,omitempty"`

	// GradingBasis is set when every enroll group of the class agrees on a
	// single basis. When sections within the roster differ, the distinct
	// formatted bases are kept in GradingBasisVariations instead.
	GradingBasis           string   `json:"gradingBasis,omitempty"`
	GradingBasisVariations []string `json:"gradingBasisVariations,omitempty"`

	UnitsMinimum *float64 `json:"unitsMinimum,omitempty"`
	UnitsMaximum *float64 `json:"unitsMaximum,omitempty"`

	Instructors     []string         `json:"instructors,omitempty"`
	MeetingPatterns []MeetingPattern `json:"meetingPatterns,omitempty"`

	Prerequisites          string   `json:"prerequisites,omitempty"`
	Outcomes               string   `json:"outcomes,omitempty"`
	SatisfiesRequirements  string   `json:"satisfiesRequirements,omitempty"`
	BreadthRequirements    string   `json:"breadthRequirements,omitempty"`
	DistributionCategories string   `json:"distributionCategories,omitempty"`
	ForbiddenOverlaps      []string `json:"forbiddenOverlaps,omitempty"`
	PermissionRequired     string   `json:"permissionRequired,omitempty"`
	LastTermsOffered       string   `json:"lastTermsOffered,omitempty"`

	// RawData keeps the original upstream payload as JSON.
	RawData string `json:"-"`
}

// Key returns the identity of the snapshot within the store.
func (c Course) Key() string {
	return c.Subject + "-" + c.CatalogNbr + "-" + c.RosterSlug
}

// CourseKey identifies a course across rosters.
func (c Course) CourseKey() string {
	return c.Subject + "-" + c.CatalogNbr
}
