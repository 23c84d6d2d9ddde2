package grading

import "strings"

// Canonical human-readable grading basis labels.
const (
	LabelLetter        = "Letter only"
	LabelSUOnly        = "S/U only"
	LabelStudentOption = "Student Option (Letter or S/U)"
	LabelPassFail      = "Pass/Fail"
	LabelNoGrade       = "No Grade"
	LabelUnspecified   = "Not specified"
)

// codeLabels maps registrar codes and common descriptive strings to labels.
var codeLabels = map[string]string{
	// Letter grades
	"GRI":    LabelLetter,
	"GRD":    LabelLetter,
	"LETTER": LabelLetter,

	// Satisfactory/Unsatisfactory
	"SUI": LabelSUOnly,
	"S/U": LabelSUOnly,
	"SAT": LabelSUOnly,
	"SATISFACTORY/UNSATISFACTORY": LabelSUOnly,

	// Student option (choose between letter or S/U)
	"OPT":            LabelStudentOption,
	"OPI":            LabelStudentOption,
	"STO":            LabelStudentOption,
	"STUDENT OPTION": LabelStudentOption,

	// Pass/Fail
	"P/F":       LabelPassFail,
	"PAS":       LabelPassFail,
	"PASS/FAIL": LabelPassFail,

	// No grade
	"NGR":     LabelNoGrade,
	"NOGRADE": LabelNoGrade,
}

// Format maps a raw registrar grading basis code (or descriptive string) to a
// human-readable label. Unknown values are returned trimmed; an empty value
// becomes "Not specified".
func Format(basis string) string {
	if strings.TrimSpace(basis) == "" {
		return LabelUnspecified
	}

	normalized := strings.ToUpper(strings.TrimSpace(basis))

	if label, ok := codeLabels[normalized]; ok {
		return label
	}

	// Partial matches for descriptive bases the registrar spells out.
	switch {
	case strings.Contains(normalized, "LETTER") && strings.Contains(normalized, "OPTION"):
		return LabelStudentOption
	case strings.Contains(normalized, "LETTER"):
		return LabelLetter
	case strings.Contains(normalized, "S/U") || strings.Contains(normalized, "SATISFACTORY"):
		return LabelSUOnly
	case strings.Contains(normalized, "OPTION") || strings.Contains(normalized, "STUDENT"):
		return LabelStudentOption
	case strings.Contains(normalized, "PASS") || strings.Contains(normalized, "FAIL"):
		return LabelPassFail
	}

	return strings.TrimSpace(basis)
}
