package entities

// DefaultInstructions is used when a record carries no instructions.
const DefaultInstructions = "No instructions provided"

// Condition is one entry of the medical dataset.
// Loaders apply defaults once, so Medications is never nil and Instructions is never empty.
type Condition struct {
	Name         string   `json:"condition"`
	Symptoms     []string `json:"symptoms"`
	Medications  []string `json:"medications"`
	Instructions string   `json:"instructions"`
}

// LoadStats counts the data-quality problems absorbed while loading a dataset
type LoadStats struct {
	Records         int `json:"records"`
	Loaded          int `json:"loaded"`
	Skipped         int `json:"skipped"`
	MalformedFields int `json:"malformedFields"`
}
