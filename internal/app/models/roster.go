package models

// Term codes order terms within a year: winter < spring < summer < fall.
const (
	TermWinter = 1
	TermSpring = 2
	TermSummer = 3
	TermFall   = 4
)

// Roster represents a single academic term's snapshot of the catalog.
// Rosters are totally ordered by (Year, TermCode), most recent first.
type Roster struct {
	Slug     string `json:"slug"`
	Descr    string `json:"descr"`
	Year     int    `json:"year"`
	TermCode int    `json:"termCode"`
}

// After reports whether r is a more recent term than other.
func (r Roster) After(other Roster) bool {
	if r.Year != other.Year {
		return r.Year > other.Year
	}
	return r.TermCode > other.TermCode
}

// Subject represents a subject code within a roster.
type Subject struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	RosterSlug string `json:"rosterSlug"`
}
