package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/symptoms-api/chatbot"
	"github.com/giygas/symptoms-api/composer"
	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/matcher"
	"github.com/giygas/symptoms-api/validation"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

func testConditions() []entities.Condition {
	return []entities.Condition{
		{
			Name:         "Flu",
			Symptoms:     []string{"fever", "cough", "fatigue"},
			Medications:  []string{"paracetamol"},
			Instructions: "Rest and drink fluids.",
		},
		{
			Name:         "Common Cold",
			Symptoms:     []string{"sore throat", "cough", "runny nose"},
			Medications:  []string{},
			Instructions: entities.DefaultInstructions,
		},
		{
			Name:        "Migraine",
			Symptoms:    []string{"headache", "nausea"},
			Medications: []string{"ibuprofen"},
		},
	}
}

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockDataStoreBuilder provides fluent interface for building mock data stores
type MockDataStoreBuilder struct {
	mock *MockDataStore
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{
		mock: &MockDataStore{
			conditions:  []entities.Condition{},
			index:       matcher.Build(nil),
			lastUpdated: time.Now(),
		},
	}
}

func (b *MockDataStoreBuilder) WithConditions(conditions []entities.Condition) *MockDataStoreBuilder {
	b.mock.conditions = conditions
	b.mock.index = matcher.Build(conditions)
	return b
}

func (b *MockDataStoreBuilder) WithLastUpdated(lastUpdated time.Time) *MockDataStoreBuilder {
	b.mock.lastUpdated = lastUpdated
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	return b.mock
}

// ============================================================================
// MOCK IMPLEMENTATIONS
// ============================================================================

// MockDataStore implements interfaces.DataStore for testing
type MockDataStore struct {
	conditions  []entities.Condition
	index       *matcher.Index
	lastUpdated time.Time
	loadErr     error

	getConditionsCalled bool
}

func (m *MockDataStore) GetConditions() []entities.Condition {
	m.getConditionsCalled = true
	return m.conditions
}

func (m *MockDataStore) GetIndex() *matcher.Index { return m.index }
func (m *MockDataStore) GetQualityReport() *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}
func (m *MockDataStore) GetLoadError() error           { return m.loadErr }
func (m *MockDataStore) GetLastUpdated() time.Time     { return m.lastUpdated }
func (m *MockDataStore) IsUpdating() bool              { return false }
func (m *MockDataStore) GetServerStartTime() time.Time { return time.Time{} }
func (m *MockDataStore) RecordLoadError(err error)     { m.loadErr = err }
func (m *MockDataStore) BeginUpdate() bool             { return true }
func (m *MockDataStore) EndUpdate()                    {}

func (m *MockDataStore) UpdateData(conditions []entities.Condition, index *matcher.Index, _ *interfaces.DataQualityReport) {
	m.conditions = conditions
	m.index = index
}

// MockHealthChecker implements interfaces.HealthChecker for testing
type MockHealthChecker struct {
	status  string
	details map[string]any
	err     error
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, error) {
	return m.status, m.details, m.err
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time { return time.Time{} }

// MockAnswerer implements Answerer for testing
type MockAnswerer struct {
	AnswerFunc func(ctx context.Context, req chatbot.Request) (composer.Response, error)
	lastReq    chatbot.Request
	calls      int
}

func (m *MockAnswerer) Answer(ctx context.Context, req chatbot.Request) (composer.Response, error) {
	m.calls++
	m.lastReq = req
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, req)
	}
	return composer.NotFound(matcher.StrategyExact), nil
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// newTestHandler wires a handler over the given conditions with the real
// validator and query pipeline
func newTestHandler(conditions []entities.Condition) (*HTTPHandlerImpl, *MockDataStore) {
	store := NewMockDataStoreBuilder().WithConditions(conditions).Build()
	validator := validation.NewDataValidator()
	service := chatbot.NewService(store, validator, nil)
	checker := &MockHealthChecker{status: "healthy", details: map[string]any{}}

	return NewHTTPHandler(store, validator, checker, service).(*HTTPHandlerImpl), store
}

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given parameters
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, method, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// ExecuteJSON posts body as JSON to handler
func (h *HTTPTestHelper) ExecuteJSON(handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			h.t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()

	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d", expectedStatus, resp.Code)
	}

	if resp.Body.Len() == 0 {
		h.t.Fatal("Response body should not be empty")
	}

	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts that response contains an error with expected status
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int) {
	h.t.Helper()

	var errorResp map[string]any
	h.AssertJSONResponse(resp, expectedStatus, &errorResp)

	if _, ok := errorResp["message"]; !ok {
		h.t.Error("Error response should have message field")
	}
	if _, ok := errorResp["code"]; !ok {
		h.t.Error("Error response should have code field")
	}
}
