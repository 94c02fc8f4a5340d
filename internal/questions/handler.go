package questions

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/interview-prep/backend/internal/middleware"
	"github.com/interview-prep/backend/internal/models"
	"github.com/interview-prep/backend/internal/similarity"
)

const maxBodyBytes = 10 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin question routes on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/questions/duplicate-check", h.DuplicateCheck).Methods("POST")
	r.HandleFunc("/questions/bulk-import", h.BulkImport).Methods("POST")
	r.HandleFunc("/questions/imports/{id}", h.GetImport).Methods("GET")
	r.HandleFunc("/questions/review", h.ListReviewQueue).Methods("GET")
	r.HandleFunc("/questions/{id:[0-9]+}/review", h.ResolveReview).Methods("POST")
}

func (h *Handler) DuplicateCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeImportRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.service.CheckDuplicates(r.Context(), req)
	if err != nil {
		writeServiceError(w, "Duplicate check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) BulkImport(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeImportRequest(w, r)
	if !ok {
		return
	}

	actor := ""
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		actor = p.UserID
	}

	resp, err := h.service.BulkImport(r.Context(), req, actor)
	if err != nil {
		writeServiceError(w, "Import failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.GetImport(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Import not found"})
		return
	}
	if err != nil {
		log.Printf("Get import failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load import"})
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) ListReviewQueue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", defaultReviewLimit)
	offset := intQueryParam(query, "offset", 0)

	resp, err := h.service.ListReviewQueue(r.Context(), limit, offset)
	if err != nil {
		log.Printf("List review queue failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list review queue"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ResolveReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question ID"})
		return
	}

	var req models.ReviewDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	reviewer := ""
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		reviewer = p.UserID
	}

	status, err := h.service.ResolveReview(r.Context(), id, req.Approve, reviewer)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No pending question with that ID"})
		return
	}
	if err != nil {
		log.Printf("Resolve review %d failed: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to resolve review"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": status})
}

func decodeImportRequest(w http.ResponseWriter, r *http.Request) (models.BulkImportRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req models.BulkImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

func writeServiceError(w http.ResponseWriter, msg string, err error) {
	var vErr *similarity.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: vErr.Errors})
		return
	}
	log.Printf("%s: %v", msg, err)
	writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: msg + ": " + err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
