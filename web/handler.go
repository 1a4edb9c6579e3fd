// Package web serves an engine's healthcheck page over HTTP: JSON for
// monitors and API consumers, HTML for humans. It is transport glue only;
// every request triggers one full check cycle.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rameerez/allgood"
)

//go:embed status.html.tmpl
var statusTemplate string

// Runner runs one healthcheck cycle. *allgood.Engine satisfies it.
type Runner interface {
	RunChecks(ctx context.Context) (*allgood.Report, error)
}

// Handler maps a cycle to an HTTP response: aggregate ok is 200, error is
// 503, and a fault in the cycle machinery itself is 500 with a single
// synthetic result so monitors still get a parseable body.
type Handler struct {
	runner Runner
	log    *zap.Logger
	tmpl   *template.Template
}

func NewHandler(r Runner, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		runner: r,
		log:    log,
		tmpl:   template.Must(template.New("status").Parse(statusTemplate)),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep, err := h.runner.RunChecks(r.Context())
	if err != nil {
		h.log.Error("healthcheck cycle fault", zap.Error(err))
		rep = &allgood.Report{
			Status: allgood.AggregateError,
			Results: []allgood.Result{{
				Name:    "Healthcheck error",
				Message: "Error: " + err.Error(),
			}},
		}
		h.render(w, r, rep, http.StatusInternalServerError)
		return
	}

	code := http.StatusOK
	if !rep.OK() {
		code = http.StatusServiceUnavailable
	}
	h.render(w, r, rep, code)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, rep *allgood.Report, code int) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(rep); err != nil {
			h.log.Warn("status page encode failed", zap.Error(err))
		}
		return
	}

	data := struct {
		*allgood.Report
		OK          bool
		GeneratedAt string
	}{rep, rep.OK(), time.Now().UTC().Format("2006-01-02 15:04:05 MST")}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := h.tmpl.Execute(w, data); err != nil {
		h.log.Warn("status page render failed", zap.Error(err))
	}
}

// wantsJSON picks the representation: a .json path suffix, an explicit
// format=json query or a JSON Accept header all select JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasSuffix(r.URL.Path, ".json") {
		return true
	}
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
