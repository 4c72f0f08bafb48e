// Package handlers provides the HTTP request handlers of the symptoms API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giygas/symptoms-api/chatbot"
	"github.com/giygas/symptoms-api/composer"
	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/health"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/validation"
	"github.com/go-chi/chi/v5"
)

// Banner is the plain text answer of GET /
const Banner = "Medical Chatbot API is running! Use POST /query to interact with the chatbot."

// MissingQueryMessage is the /query error for an absent or blank query
const MissingQueryMessage = "Query parameter is missing"

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// Answerer answers symptom queries
type Answerer interface {
	Answer(ctx context.Context, req chatbot.Request) (composer.Response, error)
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	answerer      Answerer
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker, answerer Answerer) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		answerer:      answerer,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithJSONAndETag writes a cacheable JSON response, or 304 when the client
// already holds the same body
func (h *HTTPHandlerImpl) RespondWithJSONAndETag(w http.ResponseWriter, r *http.Request, payload any, lastModified time.Time) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := GenerateETag(data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if !lastModified.IsZero() {
		w.Header().Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
	}

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Vary", "Accept-Encoding")
	writeBody(w, r, http.StatusOK, data)
}

// writeBody gzips bodies of at least compressionThreshold bytes when the client accepts it
func writeBody(w http.ResponseWriter, r *http.Request, code int, data []byte) {
	if len(data) < compressionThreshold || !strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip") {
		w.WriteHeader(code)
		if _, err := w.Write(data); err != nil {
			logging.Debug("Failed to write response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(code)
	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := gz.Write(data); err != nil {
		logging.Debug("Failed to write compressed response", "error", err)
		return
	}
	logging.Debug("Compressed JSON response", "original_size", len(data))
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// GenerateETag returns a quoted strong ETag built from the first 8 bytes of the body's SHA-256
func GenerateETag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// Home serves the plain text banner
func (h *HTTPHandlerImpl) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(Banner)); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response string `json:"response"`
}

// Query answers POST /query with the default strategy and returns the answer as text
func (h *HTTPHandlerImpl) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		h.RespondWithJSON(w, http.StatusBadRequest, map[string]string{"error": MissingQueryMessage})
		return
	}

	resp, err := h.answerer.Answer(r.Context(), chatbot.Request{Query: body.Query})
	if err != nil {
		if isValidationError(err) {
			logging.Warn("Unusual user input", "error", err)
			h.RespondWithJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		logging.Error("Failed to answer query", "error", err)
		h.RespondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
		return
	}

	h.RespondWithJSON(w, http.StatusOK, queryResponse{Response: resp.Text()})
}

// MatchV1 answers POST /v1/match with the full structured response
func (h *HTTPHandlerImpl) MatchV1(w http.ResponseWriter, r *http.Request) {
	var req chatbot.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	resp, err := h.answerer.Answer(r.Context(), req)
	if err != nil {
		if isValidationError(err) {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		logging.Error("Failed to answer match request", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to answer query")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, resp)
}

// ServeConditionsV1 returns every condition in dataset order
func (h *HTTPHandlerImpl) ServeConditionsV1(w http.ResponseWriter, r *http.Request) {
	conditions := h.dataStore.GetConditions()
	if conditions == nil {
		conditions = []entities.Condition{}
	}
	h.RespondWithJSONAndETag(w, r, conditions, h.dataStore.GetLastUpdated())
}

// FindConditionV1 returns the condition with the given name, case-insensitively
func (h *HTTPHandlerImpl) FindConditionV1(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if err := h.validator.ValidateConditionName(name); err != nil {
		logging.Warn("Unusual user input", "name", name)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	name = strings.TrimSpace(name)
	for _, c := range h.dataStore.GetConditions() {
		if strings.EqualFold(c.Name, name) {
			h.RespondWithJSON(w, http.StatusOK, c)
			return
		}
	}

	h.RespondWithError(w, http.StatusNotFound, "Condition not found")
}

type symptomResponse struct {
	Symptom    string               `json:"symptom"`
	Conditions []entities.Condition `json:"conditions"`
}

// FindBySymptomV1 returns the conditions listing the symptom, through the index
func (h *HTTPHandlerImpl) FindBySymptomV1(w http.ResponseWriter, r *http.Request) {
	symptom := pathParam(r, "symptom")
	if err := h.validator.ValidateQuery(symptom); err != nil {
		logging.Debug("Rejected symptom lookup", "symptom", symptom)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	symptom = strings.ToLower(strings.TrimSpace(symptom))
	index := h.dataStore.GetIndex()
	ids := index.Lookup(symptom)
	if len(ids) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "No conditions found for symptom")
		return
	}

	conditions := make([]entities.Condition, 0, len(ids))
	for _, id := range ids {
		if c, ok := index.Condition(id); ok {
			conditions = append(conditions, c)
		}
	}

	h.RespondWithJSON(w, http.StatusOK, symptomResponse{Symptom: symptom, Conditions: conditions})
}

// HealthCheck serves the health report. Unhealthy answers 503.
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, err := h.healthChecker.HealthCheck()
	if err != nil {
		logging.Debug("Health check reports a load error", "error", err)
	}

	response := make(map[string]any, len(details)+1)
	for k, v := range details {
		response[k] = v
	}
	response["status"] = status

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	h.RespondWithJSON(w, code, response)
}

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrEmptyQuery) ||
		errors.Is(err, validation.ErrInvalidRole) ||
		errors.Is(err, validation.ErrInvalidStrategy)
}

// pathParam returns a decoded chi URL parameter
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
