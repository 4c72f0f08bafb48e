package conditionsparser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
)

const sampleDataset = `[
  {"condition": "Flu", "symptoms": ["fever", "cough"], "medications": ["paracetamol"], "instructions": "Rest and drink fluids"},
  {"condition": "Migraine", "symptoms": ["headache", "nausea"]},
  {"name": "Cold", "symptoms": ["cough", "sneezing"], "medicines": ["rest"]}
]`

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestDecodeJSONAppliesDefaultsAndAliases(t *testing.T) {
	conditions, stats, err := DecodeJSON([]byte(sampleDataset), "auto")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(conditions) != 3 {
		t.Fatalf("Expected 3 conditions, got %d", len(conditions))
	}
	if stats != (entities.LoadStats{Records: 3, Loaded: 3}) {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	migraine := conditions[1]
	if migraine.Medications == nil || len(migraine.Medications) != 0 {
		t.Errorf("Expected empty non-nil medications, got %#v", migraine.Medications)
	}
	if migraine.Instructions != entities.DefaultInstructions {
		t.Errorf("Expected default instructions, got %q", migraine.Instructions)
	}

	cold := conditions[2]
	if cold.Name != "Cold" {
		t.Errorf("Expected name alias to be read, got %q", cold.Name)
	}
	if !reflect.DeepEqual(cold.Medications, []string{"rest"}) {
		t.Errorf("Expected medicines alias to be read, got %v", cold.Medications)
	}
}

func TestDecodeJSONWrappedObject(t *testing.T) {
	conditions, _, err := DecodeJSON([]byte(`{"conditions": [{"condition": "Flu", "symptoms": ["fever"]}]}`), "auto")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(conditions) != 1 || conditions[0].Name != "Flu" {
		t.Errorf("Unexpected conditions: %+v", conditions)
	}

	if _, _, err := DecodeJSON([]byte(`{"items": []}`), "auto"); !errors.Is(err, ErrDatasetLoad) {
		t.Errorf("Expected ErrDatasetLoad for object without conditions, got %v", err)
	}
}

func TestDecodeJSONMalformedRecords(t *testing.T) {
	input := `[
	  {"condition": "Flu", "symptoms": "fever", "medications": 42, "instructions": ["bad"]},
	  {"condition": "Malaria", "symptoms": ["chills", 7, null, "fever"]},
	  {"symptoms": ["rash"]},
	  {"condition": "   "},
	  "not an object",
	  {"condition": 12}
	]`

	conditions, stats, err := DecodeJSON([]byte(input), "auto")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(conditions) != 2 {
		t.Fatalf("Expected 2 usable conditions, got %d: %+v", len(conditions), conditions)
	}

	flu := conditions[0]
	if !reflect.DeepEqual(flu.Symptoms, []string{"fever"}) {
		t.Errorf("Expected bare string symptom list, got %v", flu.Symptoms)
	}
	if len(flu.Medications) != 0 || flu.Instructions != entities.DefaultInstructions {
		t.Errorf("Expected defaults for malformed fields, got %+v", flu)
	}

	malaria := conditions[1]
	if !reflect.DeepEqual(malaria.Symptoms, []string{"chills", "fever"}) {
		t.Errorf("Expected non-string symptoms dropped, got %v", malaria.Symptoms)
	}

	want := entities.LoadStats{Records: 6, Loaded: 2, Skipped: 4, MalformedFields: 4}
	if stats != want {
		t.Errorf("Expected stats %+v, got %+v", want, stats)
	}
}

func TestDecodeJSONInvalidDocument(t *testing.T) {
	inputs := []string{"", "   ", "42", "[{]", `"text"`}
	for _, input := range inputs {
		if _, _, err := DecodeJSON([]byte(input), "auto"); !errors.Is(err, ErrDatasetLoad) {
			t.Errorf("Expected ErrDatasetLoad for %q, got %v", input, err)
		}
	}
}

func TestDecodeJSONEncodings(t *testing.T) {
	// "Fièvre" with è encoded as 0xE8 (ISO-8859-1 and Windows-1252)
	latin1 := []byte("[{\"condition\": \"Grippe\", \"symptoms\": [\"fi\xe8vre\"]}]")

	for _, encoding := range []string{"auto", "latin1", "windows-1252"} {
		conditions, _, err := DecodeJSON(latin1, encoding)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", encoding, err)
		}
		if conditions[0].Symptoms[0] != "fièvre" {
			t.Errorf("%s: expected fièvre, got %q", encoding, conditions[0].Symptoms[0])
		}
	}

	if _, _, err := DecodeJSON(latin1, "utf-8"); !errors.Is(err, ErrDatasetLoad) {
		t.Errorf("Expected strict utf-8 to reject latin1 bytes, got %v", err)
	}

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleDataset)...)
	if conditions, _, err := DecodeJSON(withBOM, "utf-8"); err != nil || len(conditions) != 3 {
		t.Errorf("Expected BOM to be stripped, got %d conditions, err %v", len(conditions), err)
	}
}

func TestParseConditionsJSON(t *testing.T) {
	path := writeFile(t, "medicaldata.json", []byte(sampleDataset))

	parser := NewConditionsParser(SourceJSON, path, "auto")
	conditions, stats, err := parser.ParseConditions(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(conditions) != 3 || stats.Loaded != 3 {
		t.Errorf("Expected 3 conditions, got %d (stats %+v)", len(conditions), stats)
	}
}

func TestParseConditionsErrors(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		parser *ConditionsParser
		ctx    context.Context
	}{
		{"missing json file", NewConditionsParser(SourceJSON, filepath.Join(t.TempDir(), "missing.json"), "auto"), context.Background()},
		{"missing sqlite file", NewConditionsParser(SourceSQLite, filepath.Join(t.TempDir(), "missing.db"), ""), context.Background()},
		{"unknown source", NewConditionsParser("csv", "data.csv", ""), context.Background()},
		{"cancelled context", NewConditionsParser(SourceJSON, "medicaldata.json", "auto"), cancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.parser.ParseConditions(tt.ctx)
			if !errors.Is(err, ErrDatasetLoad) {
				t.Errorf("Expected ErrDatasetLoad, got %v", err)
			}
		})
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _, err := DecodeJSON([]byte(sampleDataset), "auto")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "data", "conditions.db")
	if err := SeedSQLite(ctx, path, source); err != nil {
		t.Fatalf("SeedSQLite failed: %v", err)
	}

	conditions, stats, err := NewConditionsParser(SourceSQLite, path, "").ParseConditions(ctx)
	if err != nil {
		t.Fatalf("ParseConditions failed: %v", err)
	}
	if !reflect.DeepEqual(conditions, source) {
		t.Errorf("SQLite dataset differs:\n got %+v\nwant %+v", conditions, source)
	}
	if stats.Loaded != len(source) {
		t.Errorf("Expected %d loaded, got %+v", len(source), stats)
	}

	// Seeding again replaces the content
	if err := SeedSQLite(ctx, path, source[:1]); err != nil {
		t.Fatalf("Second SeedSQLite failed: %v", err)
	}
	conditions, _, err = LoadSQLite(ctx, path)
	if err != nil {
		t.Fatalf("LoadSQLite failed: %v", err)
	}
	if len(conditions) != 1 || conditions[0].Name != "Flu" {
		t.Errorf("Expected only Flu after reseed, got %+v", conditions)
	}
}
