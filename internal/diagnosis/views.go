package diagnosis

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-multierror"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageConfig is the static presentation text around the form.
type PageConfig struct {
	Title   string
	Tagline string
	About   string
	Credits []string
}

func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:   "Multi-Cancer Diagnosis System",
		Tagline: "Early Detection Saves Lives",
		About:   "This system helps detect Breast, Lung, and Skin cancers early using Machine Learning.",
	}
}

type fieldView struct {
	Field
	Caption string
	Value   string
}

type formView struct {
	Page            PageConfig
	CancerTypes     []CancerType
	Selected        CancerType
	Fields          []fieldView
	State           State
	Errors          []string
	Diagnosis       *Diagnosis
	ProbabilityText string
}

func (v *formView) fail(err error) {
	v.State = StateError
	var me *multierror.Error
	if errors.As(err, &me) {
		for _, e := range me.Errors {
			v.Errors = append(v.Errors, e.Error())
		}
		return
	}
	v.Errors = append(v.Errors, err.Error())
}

// newFormView fills each field from lookup when it has a value, else from the
// schema default.
func (h *Handler) newFormView(ct CancerType, lookup func(string) (string, bool)) (*formView, error) {
	schema, err := SchemaFor(ct)
	if err != nil {
		return nil, err
	}
	v := &formView{
		Page:        h.page,
		CancerTypes: CancerTypes(),
		Selected:    ct,
		State:       StateCollecting,
	}
	for _, f := range schema.Fields {
		fv := fieldView{Field: f, Caption: f.Label(), Value: f.DefaultValue().String()}
		if lookup != nil {
			if raw, ok := lookup(f.Name); ok {
				fv.Value = raw
			}
		}
		v.Fields = append(v.Fields, fv)
	}
	return v, nil
}

type views struct {
	form *template.Template
}

func mustParseViews() *views {
	return &views{
		form: template.Must(template.New("form.html").ParseFS(templateFS, "templates/form.html")),
	}
}

func (v *views) render(w http.ResponseWriter, status int, data *formView) {
	var buf bytes.Buffer
	if err := v.form.Execute(&buf, data); err != nil {
		slog.Error("render form", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
