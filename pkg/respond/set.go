package respond

import (
	"log"

	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/llm"
)

// NewDefaultSet wires the standard intent-to-responder routing.
func NewDefaultSet(llmProvider llm.LLMProvider, logger *log.Logger) *Set {
	profile := NewProfileResponder(llmProvider, logger)
	project := NewProjectResponder(llmProvider, logger)
	tour := NewTourResponder(llmProvider, logger)
	general := NewGeneralResponder(llmProvider, logger)

	set := NewSet(general)
	set.Register(intent.IntentEducation, profile)
	set.Register(intent.IntentExperience, profile)
	set.Register(intent.IntentSkills, profile)
	set.Register(intent.IntentPersonalProject, project)
	set.Register(intent.IntentCaseStudy, project)
	set.Register(intent.IntentProjectTour, tour)
	set.Register(intent.IntentGeneral, general)
	return set
}
