package roster

// Payload types mirror the Class Roster API's JSON responses. Fields the
// upstream marks optional stay zero-valued when absent.

// RosterPayload is one term entry from /config/rosters.json.
type RosterPayload struct {
	Slug             string `json:"slug"`
	Descr            string `json:"descr"`
	LastModifiedDttm string `json:"lastModifiedDttm"`
}

// SubjectPayload is one subject entry from /config/subjects.json.
type SubjectPayload struct {
	Value string `json:"value"`
	Descr string `json:"descr"`
}

// InstructorPayload is an instructor of a class meeting.
type InstructorPayload struct {
	NetID     string `json:"netid"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// MeetingPayload is one weekly meeting of a class section.
type MeetingPayload struct {
	Pattern       string              `json:"pattern"`
	TimeStart     string              `json:"timeStart"`
	TimeEnd       string              `json:"timeEnd"`
	FacilityDescr string              `json:"facilityDescr"`
	Instructors   []InstructorPayload `json:"instructors"`
}

// SectionPayload is one section of an enroll group.
type SectionPayload struct {
	SSRComponent string           `json:"ssrComponent"`
	Section      string           `json:"section"`
	Meetings     []MeetingPayload `json:"meetings"`
}

// EnrollGroupPayload is one enrollment group of a class.
type EnrollGroupPayload struct {
	UnitsMinimum      *float64         `json:"unitsMinimum"`
	UnitsMaximum      *float64         `json:"unitsMaximum"`
	GradingBasis      string           `json:"gradingBasis"`
	GradingBasisShort string           `json:"gradingBasisShort"`
	ClassSections     []SectionPayload `json:"classSections"`
}

// ClassPayload is one class entry from /search/classes.json.
type ClassPayload struct {
	Subject                  string               `json:"subject"`
	CatalogNbr               string               `json:"catalogNbr"`
	TitleLong                string               `json:"titleLong"`
	TitleShort               string               `json:"titleShort"`
	Description              string               `json:"description"`
	EnrollGroups             []EnrollGroupPayload `json:"enrollGroups"`
	CatalogWhenOffered       string               `json:"catalogWhenOffered"`
	CatalogBreadth           string               `json:"catalogBreadth"`
	CatalogDistr             string               `json:"catalogDistr"`
	CatalogLang              string               `json:"catalogLang"`
	CatalogForbiddenOverlaps []string             `json:"catalogForbiddenOverlaps"`
	CatalogPrereqCoreq       string               `json:"catalogPrereqCoreq"`
	CatalogSatisfiesReq      string               `json:"catalogSatisfiesReq"`
	CatalogPermission        string               `json:"catalogPermission"`
	CatalogCourseSubfield    string               `json:"catalogCourseSubfield"`
	CatalogOutcomeDesc       string               `json:"catalogOutcomeDesc"`
	AcadCareer               string               `json:"acadCareer"`
	AcadGroup                string               `json:"acadGroup"`
}

// Valid reports whether the payload carries the fields every stored course
// needs. Records failing this are dropped during ingestion.
func (c ClassPayload) Valid() bool {
	return c.Subject != "" && c.CatalogNbr != "" && c.TitleLong != ""
}
