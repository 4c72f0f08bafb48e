package conditionsparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadJSONFile reads and decodes a JSON dataset file
func LoadJSONFile(path, encoding string) ([]entities.Condition, entities.LoadStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, entities.LoadStats{}, loadError("read "+path, err)
	}
	return DecodeJSON(raw, encoding)
}

// DecodeJSON decodes a dataset that is either a top-level array of records or an
// object with a "conditions" array. Records that are not objects or have no name
// are skipped; fields of the wrong type get their default. Both are counted.
func DecodeJSON(raw []byte, encoding string) ([]entities.Condition, entities.LoadStats, error) {
	var stats entities.LoadStats

	data, err := toUTF8(raw, encoding)
	if err != nil {
		return nil, stats, loadError("decode", err)
	}

	records, err := splitRecords(data)
	if err != nil {
		return nil, stats, loadError("decode", err)
	}

	stats.Records = len(records)
	conditions := make([]entities.Condition, 0, len(records))
	for _, record := range records {
		condition, malformed, ok := decodeRecord(record)
		stats.MalformedFields += malformed
		if !ok {
			stats.Skipped++
			continue
		}
		conditions = append(conditions, condition)
	}
	stats.Loaded = len(conditions)

	return conditions, stats, nil
}

// toUTF8 returns the input as UTF-8 text. In auto mode bytes that are not valid
// UTF-8 are read as ISO-8859-1, which maps every byte to a rune.
func toUTF8(raw []byte, encoding string) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	switch encoding {
	case "", "auto":
		if utf8.Valid(raw) {
			return raw, nil
		}
		return charmap.ISO8859_1.NewDecoder().Bytes(raw)
	case "utf-8", "utf8":
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("file is not valid UTF-8")
		}
		return raw, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Bytes(raw)
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Bytes(raw)
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

func splitRecords(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty dataset")
	}

	switch data[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid dataset array: %w", err)
		}
		return records, nil
	case '{':
		var wrapper struct {
			Conditions []json.RawMessage `json:"conditions"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("invalid dataset object: %w", err)
		}
		if wrapper.Conditions == nil {
			return nil, fmt.Errorf(`dataset object has no "conditions" array`)
		}
		return wrapper.Conditions, nil
	}
	return nil, fmt.Errorf("dataset must be a JSON array or object")
}

// decodeRecord returns the condition, the number of malformed fields, and false
// when the record cannot be used at all.
func decodeRecord(raw json.RawMessage) (entities.Condition, int, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return entities.Condition{}, 0, false
	}

	malformed := 0
	var c entities.Condition

	name, bad := stringField(firstPresent(fields, "condition", "name"))
	malformed += bad
	c.Name = name

	symptoms, bad := listField(fields["symptoms"])
	malformed += bad
	c.Symptoms = symptoms

	medications, bad := listField(firstPresent(fields, "medications", "medicines"))
	malformed += bad
	c.Medications = medications

	instructions, bad := stringField(fields["instructions"])
	malformed += bad
	c.Instructions = instructions

	c = normalize(c)
	if c.Name == "" {
		return entities.Condition{}, malformed, false
	}
	return c, malformed, true
}

func firstPresent(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, key := range keys {
		if v, ok := fields[key]; ok {
			return v
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stringField decodes a string; absent or null is not malformed
func stringField(raw json.RawMessage) (string, int) {
	if isNull(raw) {
		return "", 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", 1
	}
	return s, 0
}

// listField decodes a list of strings. A bare string is taken as a one-element
// list; non-string elements are dropped and counted.
func listField(raw json.RawMessage) ([]string, int) {
	if isNull(raw) {
		return []string{}, 0
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, 0
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}, 1
	}

	out := make([]string, 0, len(items))
	malformed := 0
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			malformed++
			continue
		}
		out = append(out, s)
	}
	return out, malformed
}
