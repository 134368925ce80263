package devbackend

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/intentdesk/internal/db"
	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// wireTime is the timestamp layout written to clients.
const wireTime = "2006-01-02T15:04:05.000Z07:00"

type intentJSON struct {
	ID             int64  `json:"id"`
	Author         string `json:"author"`
	Content        string `json:"content"`
	CreationDate   string `json:"creationDate"`
	LastUpdateDate string `json:"lastUpdateDate"`
}

type reportJSON struct {
	ID            string  `json:"id"`
	AgentName     string  `json:"agentName"`
	Response      string  `json:"response"`
	CreationDate  string  `json:"creationDate"`
	ExecutionTime float64 `json:"executionTime"`
}

type jsonLDDocument struct {
	Context      string `json:"@context"`
	Type         string `json:"@type"`
	Identifier   string `json:"identifier"`
	Author       string `json:"author"`
	Text         string `json:"text"`
	DateCreated  string `json:"dateCreated"`
	DateModified string `json:"dateModified"`
}

// appendReportRequest is the body of POST /intent/{id}/intentReport.
type appendReportRequest struct {
	AgentName     string  `json:"agentName"`
	Response      string  `json:"response"`
	ExecutionTime float64 `json:"executionTime"`
}

// Health handles GET /health. It answers 503 when the database does not.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), h.db); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeError(w, &apiError{Code: "UNAVAILABLE", Status: http.StatusServiceUnavailable, Message: "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// List handles GET /intent.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	rows, err := db.ListIntents(r.Context(), h.db)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]intentJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, toIntentJSON(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /intent.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var d intent.Draft
	if err := decodeBody(w, r, &d); err != nil {
		h.fail(w, r, err)
		return
	}
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		h.fail(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}

	row := db.IntentRow{Author: d.Author, Content: d.Content}
	if err := db.InsertIntent(r.Context(), h.db, &row); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("intent created", "id", row.ID, "author", row.Author)
	writeJSON(w, http.StatusCreated, toIntentJSON(row))
}

// Update handles PATCH /intent/{id}. Only content is writable.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var p intent.Patch
	if err := decodeBody(w, r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		h.fail(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}
	if err := db.UpdateContent(r.Context(), h.db, id, p.Content); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /intent/{id}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := db.DeleteIntent(r.Context(), h.db, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("intent deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Report handles GET /intent/{id}/intentReport.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := db.GetIntent(r.Context(), h.db, id); err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := db.ListReports(r.Context(), h.db, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]reportJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, reportJSON{
			ID:            row.ID,
			AgentName:     row.AgentName,
			Response:      row.Response,
			CreationDate:  formatMillis(row.CreatedAt),
			ExecutionTime: row.ExecutionTime,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// AppendReport handles POST /intent/{id}/intentReport, which seeds a report
// entry for local development.
func (h *Handlers) AppendReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req appendReportRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.AgentName == "" {
		h.fail(w, r, errors.NewInvalidRequest("agentName is required"))
		return
	}
	if req.ExecutionTime < 0 {
		h.fail(w, r, errors.NewInvalidRequest("executionTime must not be negative"))
		return
	}

	row := db.ReportRow{
		ID:            ulid.Make().String(),
		IntentID:      id,
		AgentName:     req.AgentName,
		Response:      req.Response,
		ExecutionTime: req.ExecutionTime,
	}
	if err := db.InsertReport(r.Context(), h.db, &row); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportJSON{
		ID:            row.ID,
		AgentName:     row.AgentName,
		Response:      row.Response,
		CreationDate:  formatMillis(row.CreatedAt),
		ExecutionTime: row.ExecutionTime,
	})
}

// JSONLD handles GET /intent/{id}/json-ld.
func (h *Handlers) JSONLD(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	row, err := db.GetIntent(r.Context(), h.db, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/ld+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(jsonLDDocument{
		Context:      "https://schema.org",
		Type:         "CreativeWork",
		Identifier:   strconv.FormatInt(row.ID, 10),
		Author:       row.Author,
		Text:         row.Content,
		DateCreated:  formatMillis(row.CreatedAt),
		DateModified: formatMillis(row.UpdatedAt),
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, apiErr)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewNotFound(raw)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return errors.NewInvalidRequest("request body too large")
		}
		return errors.NewInvalidRequest("invalid JSON body")
	}
	return nil
}

func toIntentJSON(row db.IntentRow) intentJSON {
	return intentJSON{
		ID:             row.ID,
		Author:         row.Author,
		Content:        row.Content,
		CreationDate:   formatMillis(row.CreatedAt),
		LastUpdateDate: formatMillis(row.UpdatedAt),
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(wireTime)
}
