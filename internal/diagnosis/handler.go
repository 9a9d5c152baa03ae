package diagnosis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc   Service
	views *views
	page  PageConfig
}

func NewHandler(svc Service, page PageConfig) *Handler {
	return &Handler{svc: svc, views: mustParseViews(), page: page}
}

type DiagnoseRequest struct {
	CancerType string         `json:"cancer_type"`
	Inputs     map[string]any `json:"inputs"`
}

type DiagnoseResponse struct {
	*Diagnosis
	ProbabilityText string `json:"probability_text"`
}

type SchemasResponse struct {
	Schemas  []Schema `json:"schemas"`
	Warnings []string `json:"warnings"`
}

func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	resp := SchemasResponse{Schemas: Schemas(), Warnings: []string{}}
	for _, warn := range ValidateSchemas() {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	ct, req, err := decodeJSONRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	d, err := h.svc.Diagnose(r.Context(), ct, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DiagnoseResponse{Diagnosis: d, ProbabilityText: FormatProbability(d.Probability)})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	ct, req, err := decodeJSONRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.streamReport(w, r, ct, req)
}

// ShowForm renders the input form for ?type=, defaulting to the first cancer type.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	ct := CancerTypes()[0]
	if t := r.URL.Query().Get("type"); t != "" {
		parsed, err := ParseCancerType(t)
		if err != nil {
			http.Error(w, "Unknown cancer type", http.StatusBadRequest)
			return
		}
		ct = parsed
	}

	v, err := h.newFormView(ct, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.views.render(w, http.StatusOK, v)
}

func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ct, lookup, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	v, err := h.newFormView(ct, lookup)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	v.State = StateReady

	schema, _ := SchemaFor(ct)
	req, err := schema.Parse(lookup)
	if err != nil {
		v.fail(err)
		h.views.render(w, statusFor(err), v)
		return
	}

	d, err := h.svc.Diagnose(r.Context(), ct, req)
	if err != nil {
		// Inputs stay in the form so the user can resubmit.
		v.fail(err)
		h.views.render(w, statusFor(err), v)
		return
	}

	v.State = StateReportAvailable
	v.Diagnosis = d
	v.ProbabilityText = FormatProbability(d.Probability)
	h.views.render(w, http.StatusOK, v)
}

func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	ct, lookup, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	schema, _ := SchemaFor(ct)
	req, err := schema.Parse(lookup)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	h.streamReport(w, r, ct, req)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) streamReport(w http.ResponseWriter, r *http.Request, ct CancerType, req Request) {
	d, err := h.svc.Diagnose(r.Context(), ct, req)
	if err != nil {
		writeError(w, err)
		return
	}

	started := false
	err = h.svc.Report(r.Context(), d, func(name string, body io.Reader) error {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		started = true
		_, err := io.Copy(w, body)
		return err
	})
	if err != nil {
		if started {
			// Headers are gone; the client sees a truncated download.
			slog.ErrorContext(r.Context(), "report stream interrupted", "diagnosis_id", d.ID.String(), "error", err)
			return
		}
		slog.ErrorContext(r.Context(), "report generation failed", "diagnosis_id", d.ID.String(), "error", err)
		http.Error(w, "Report generation failed: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (CancerType, func(string) (string, bool), bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return "", nil, false
	}
	ct, err := ParseCancerType(r.PostForm.Get("cancer_type"))
	if err != nil {
		http.Error(w, "Unknown cancer type", http.StatusBadRequest)
		return "", nil, false
	}
	lookup := func(name string) (string, bool) {
		vals, ok := r.PostForm[name]
		if !ok || len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	}
	return ct, lookup, true
}

func decodeJSONRequest(r *http.Request) (CancerType, Request, error) {
	var body DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", Request{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ct, err := ParseCancerType(body.CancerType)
	if err != nil {
		return "", Request{}, err
	}
	schema, err := SchemaFor(ct)
	if err != nil {
		return "", Request{}, err
	}
	req, err := schema.Parse(func(name string) (string, bool) {
		v, ok := body.Inputs[name]
		if !ok || v == nil {
			return "", false
		}
		switch t := v.(type) {
		case string:
			return t, true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case bool:
			// Checkbox-style clients send booleans for Yes/No fields.
			if t {
				return "Yes", true
			}
			return "No", true
		default:
			return fmt.Sprint(t), true
		}
	})
	return ct, req, err
}

// FormatProbability renders a probability with two decimals.
func FormatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownCancerType), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, ErrModelNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrModelUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.ShowForm)
	r.Post("/diagnose", h.SubmitForm)
	r.Post("/report", h.DownloadReport)
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/schemas", h.ListSchemas)
		r.Post("/diagnose", h.Diagnose)
		r.Post("/report", h.Report)
	})
}
