package generator

import (
	"errors"
	"strings"
)

var (
	// ErrGenerationUnavailable is returned when the backend cannot be reached or fails
	ErrGenerationUnavailable = errors.New("text generation unavailable")

	// ErrEmptyGeneration is returned when the backend answers with no text
	ErrEmptyGeneration = errors.New("text generation returned no content")
)

// Roles accepted by BuildPrompt
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
	RoleGeneral = "general"
)

const disclaimer = "Remind the reader that this is not a diagnosis and that a health professional should be consulted."

var rolePrompts = map[string]string{
	RoleDoctor: "You are assisting a physician. The symptoms below did not match any condition in the " +
		"reference dataset. List plausible differential diagnoses with short clinical reasoning " +
		"and suggested next examinations. Be concise and use medical terminology.",
	RolePatient: "You are a careful health assistant talking to a patient. The symptoms below did not " +
		"match any known condition. Explain in plain words what might cause them, what they can do " +
		"at home, and which warning signs need urgent care. " + disclaimer,
	RoleGeneral: "You are a medical information assistant. The symptoms below did not match any " +
		"condition in the reference dataset. Give brief general information about possible causes " +
		"and sensible next steps. " + disclaimer,
}

// BuildPrompt returns the system prompt for role and the user message for query.
// Unknown roles get the general prompt.
func BuildPrompt(role, query string) (system, user string) {
	system, ok := rolePrompts[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		system = rolePrompts[RoleGeneral]
	}
	return system, "Symptoms: " + strings.TrimSpace(query)
}

// ExtractionPrompt is the system prompt asking a model for symptom tokens as JSON
const ExtractionPrompt = `Extract the medical symptoms mentioned in the user's message.
Answer with JSON only, in the form {"symptoms": ["symptom one", "symptom two"]}.
Use short lower-case symptom names such as "fever", "sore throat" or "shortness of breath".
Do not add symptoms that are not mentioned. If there are none, answer {"symptoms": []}.`
