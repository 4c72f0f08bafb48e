package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/symptoms-api/composer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = `[
  {"condition": "Flu", "symptoms": ["fever", "cough"], "medications": ["paracetamol"], "instructions": "Rest"},
  {"condition": "Bronchitis", "symptoms": ["cough", "wheezing", "fatigue", "chest pain", "mucus"], "medications": []}
]`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medicaldata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"symptomctl", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	dataset := writeDataset(t, testDataset)

	t.Run("exact match prints the text block", func(t *testing.T) {
		out, err := run(t, "--dataset", dataset, "query", "I", "have", "a", "fever")
		require.NoError(t, err)
		assert.Contains(t, out, "-> Condition: Flu")
		assert.Contains(t, out, "-> Medications: paracetamol")
	})

	t.Run("no match prints the apology", func(t *testing.T) {
		out, err := run(t, "--dataset", dataset, "query", "headache")
		require.NoError(t, err)
		assert.Equal(t, composer.NotFoundMessage, strings.TrimSpace(out))
	})

	t.Run("missing description", func(t *testing.T) {
		_, err := run(t, "--dataset", dataset, "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "symptom description")
	})

	t.Run("invalid strategy", func(t *testing.T) {
		_, err := run(t, "--dataset", dataset, "query", "--strategy", "fuzzy", "fever")
		require.Error(t, err)
	})

	t.Run("missing dataset", func(t *testing.T) {
		_, err := run(t, "--dataset", filepath.Join(t.TempDir(), "absent.json"), "query", "fever")
		require.Error(t, err)
	})
}

func TestMatchCommand(t *testing.T) {
	dataset := writeDataset(t, testDataset)

	out, err := run(t, "--dataset", dataset, "match", "--strategy", "overlap", "--threshold", "0.1", "--all", "cough", "and", "fever")
	require.NoError(t, err)

	var resp composer.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, composer.KindCondition, resp.Kind)
	require.NotNil(t, resp.Condition)
	assert.Equal(t, "Flu", resp.Condition.Condition)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "Bronchitis", resp.Matches[1].Condition)
}

func TestBatchCommand(t *testing.T) {
	dataset := writeDataset(t, testDataset)
	input := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(input, []byte("fever\n\nwheezing\n<script>alert(1)</script> & fever\nheadache\n"), 0o644))

	out, err := run(t, "--dataset", dataset, "batch", "--input", input, "--workers", "3", "--role", "nurse")
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var r batchResult
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		assert.Nil(t, r.Response)
		assert.Contains(t, r.Error, "invalid role")
	}

	out, err = run(t, "--dataset", dataset, "batch", "--input", input, "--workers", "3")
	require.NoError(t, err)

	var results []batchResult
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var r batchResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		results = append(results, r)
	}
	require.Len(t, results, 4)

	assert.Equal(t, 1, results[0].Line)
	require.NotNil(t, results[0].Response)
	assert.Contains(t, results[0].Response.Response, "Condition: Flu")

	assert.Equal(t, 3, results[1].Line)
	require.NotNil(t, results[1].Response)
	assert.Contains(t, results[1].Response.Response, "Condition: Bronchitis")

	assert.Equal(t, 4, results[2].Line)
	assert.Empty(t, results[2].Error)
	require.NotNil(t, results[2].Response)
	assert.Contains(t, results[2].Response.Response, "Condition: Flu")

	assert.Equal(t, 5, results[3].Line)
	require.NotNil(t, results[3].Response)
	assert.True(t, results[3].Response.NotFound())
}

func TestValidateCommand(t *testing.T) {
	t.Run("reports counts", func(t *testing.T) {
		dataset := writeDataset(t, testDataset)
		out, err := run(t, "--dataset", dataset, "validate")
		require.NoError(t, err)

		var summary struct {
			Conditions int `json:"conditions"`
			Symptoms   int `json:"symptoms"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.Equal(t, 2, summary.Conditions)
		assert.Equal(t, 6, summary.Symptoms)
		assert.Contains(t, out, `"cough"`)
	})

	t.Run("empty dataset fails", func(t *testing.T) {
		dataset := writeDataset(t, `[]`)
		_, err := run(t, "--dataset", dataset, "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable conditions")
	})
}

func TestImportCommand(t *testing.T) {
	dataset := writeDataset(t, testDataset)
	db := filepath.Join(t.TempDir(), "conditions.db")

	out, err := run(t, "--dataset", dataset, "import", "--sqlite", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 conditions")

	out, err = run(t, "--dataset", db, "--source", "sqlite", "query", "wheezing")
	require.NoError(t, err)
	assert.Contains(t, out, "-> Condition: Bronchitis")
	assert.Contains(t, out, "-> Medications: Not available")
}

func TestGlobalFlags(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		app := newApp()
		app.Writer = &bytes.Buffer{}
		err := app.Run([]string{"symptomctl", "--log-level", "loud", "validate"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("import requires sqlite path", func(t *testing.T) {
		_, err := run(t, "import")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})
}
