package diagnosis

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *fakeRepo) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(NewService(repo, &fakeReports{}), DefaultPageConfig()))
	return r
}

func skinRepo(class int, p float64) *fakeRepo {
	return &fakeRepo{models: map[CancerType]*fakeModel{
		SkinCancer: {class: class, proba: []float64{1 - p, p}},
	}}
}

func skinForm() url.Values {
	return url.Values{
		"cancer_type": {"Skin Cancer"},
		"Gender":      {"Male"},
		"Itching":     {"Yes"},
		"Ulcers":      {"No"},
		"Bleeding":    {"No"},
		"Elevation":   {"Yes"},
		"Age":         {"40"},
	}
}

func TestAPIDiagnose(t *testing.T) {
	router := newTestRouter(skinRepo(1, 0.62))

	body := `{"cancer_type":"Skin Cancer","inputs":{"Age":40,"Gender":"Male","Itching":"Yes","Ulcers":"No","Bleeding":"No","Elevation":"Yes"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/diagnose", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Positive", resp["result"])
	assert.Equal(t, 0.62, resp["probability"])
	assert.Equal(t, "0.62", resp["probability_text"])
	assert.Equal(t, "Moderate", resp["severity"])
	assert.Equal(t, "Skin Cancer", resp["cancer_type"])

	// inputs come back in schema order
	raw := rec.Body.String()
	assert.Less(t, strings.Index(raw, `"Gender"`), strings.Index(raw, `"Age"`))
}

func TestAPIDiagnoseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown type", `{"cancer_type":"Bone Cancer","inputs":{}}`, http.StatusBadRequest},
		{"missing fields", `{"cancer_type":"Skin Cancer","inputs":{"Gender":"Male"}}`, http.StatusBadRequest},
		{"missing model", `{"cancer_type":"Lung Cancer","inputs":{"Gender":"Male","Smoking":"Yes","Yellow Fingers":"No","Anxiety":"No","Peer Pressure":"No","Chronic Disease":"No","Fatigue":"No","Allergy":"No","Wheezing":"No","Alcohol Consuming":"No","Coughing":"No","Shortness of Breath":"No","Swallowing Difficulty":"No","Chest Pain":"No","Lung cancer":"No"}}`, http.StatusServiceUnavailable},
	}

	router := newTestRouter(skinRepo(1, 0.62))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/diagnose", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAPIDiagnoseInvalidProbability(t *testing.T) {
	router := newTestRouter(&fakeRepo{models: map[CancerType]*fakeModel{
		SkinCancer: {class: 0, proba: []float64{math.NaN(), math.NaN()}},
	}})

	body := `{"cancer_type":"Skin Cancer","inputs":{"Age":40,"Gender":"Male","Itching":"Yes","Ulcers":"No","Bleeding":"No","Elevation":"Yes"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/diagnose", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "prediction failed")
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"probability": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestShowForm(t *testing.T) {
	router := newTestRouter(skinRepo(0, 0.1))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?type=Skin+Cancer", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `name="Itching"`)
	assert.Contains(t, html, `name="Age" value="25"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Radius Mean")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?type=Bone", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitFormRendersResult(t *testing.T) {
	router := newTestRouter(skinRepo(1, 0.62))

	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(skinForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "Diagnosis Result: Positive")
	assert.Contains(t, html, "Probability: 0.62")
	assert.Contains(t, html, "Seriousness Level: Moderate")
	assert.Contains(t, html, `action="/report"`)
}

func TestSubmitFormKeepsInputsOnModelFailure(t *testing.T) {
	router := newTestRouter(&fakeRepo{models: map[CancerType]*fakeModel{}})

	form := skinForm()
	form.Set("Age", "73")
	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "model not found")
	assert.Contains(t, html, `name="Age" value="73"`)
	assert.NotContains(t, html, "Diagnosis Result:")
}

func TestDownloadReport(t *testing.T) {
	router := newTestRouter(skinRepo(1, 0.9))

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(skinForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report_Skin_Cancer.pdf"`, rec.Header().Get("Content-Disposition"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "%PDF-fake", string(body))
}

func TestListSchemas(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SchemasResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Schemas, 3)
	assert.Len(t, resp.Warnings, 1)
}
