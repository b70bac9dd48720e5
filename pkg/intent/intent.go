package intent

import "strings"

// Intent is the closed set of portfolio question categories. Every request
// is assigned exactly one intent before retrieval runs.
type Intent string

const (
	IntentEducation       Intent = "EDUCATION"
	IntentExperience      Intent = "EXPERIENCE"
	IntentPersonalProject Intent = "PERSONAL_PROJECT"
	IntentSkills          Intent = "SKILLS"
	IntentCaseStudy       Intent = "CASE_STUDY"
	IntentProjectTour     Intent = "PROJECT_TOUR"
	IntentGeneral         Intent = "GENERAL"
)

// Default is assigned when classification cannot resolve a more specific
// category. It is a valid terminal intent, not an error marker.
const Default = IntentGeneral

// All lists every member of the enumeration in display order.
func All() []Intent {
	return []Intent{
		IntentEducation,
		IntentExperience,
		IntentPersonalProject,
		IntentSkills,
		IntentCaseStudy,
		IntentProjectTour,
		IntentGeneral,
	}
}

// Parse normalizes a raw string into a member of the enumeration.
// Unknown values return (Default, false) so callers can decide whether to
// honor or ignore the input.
func Parse(raw string) (Intent, bool) {
	candidate := Intent(strings.ToUpper(strings.TrimSpace(raw)))
	for _, it := range All() {
		if it == candidate {
			return it, true
		}
	}
	return Default, false
}

func (i Intent) String() string {
	return string(i)
}
