package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rameerez/allgood"
)

type stubRunner struct {
	rep *allgood.Report
	err error
}

func (s stubRunner) RunChecks(context.Context) (*allgood.Report, error) {
	return s.rep, s.err
}

func okReport() *allgood.Report {
	return &allgood.Report{
		Status: allgood.AggregateOK,
		Results: []allgood.Result{
			{Name: "db", Success: true, Message: "Check passed", Duration: 1.2},
			{Name: "prod only", Success: true, Message: "Only runs in production", Skipped: true},
		},
	}
}

func errReport() *allgood.Report {
	return &allgood.Report{
		Status: allgood.AggregateError,
		Results: []allgood.Result{
			{Name: "db", Message: "Expected 1 to equal 0 but it doesn't", Duration: 3.0},
		},
	}
}

func get(t *testing.T, h http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerHealthyHTML(t *testing.T) {
	h := NewHandler(stubRunner{rep: okReport()}, nil)
	rec := get(t, h, "/healthcheck", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	require.Contains(t, body, "All checks are passing")
	require.Contains(t, body, "db")
	require.Contains(t, body, "Only runs in production")
}

func TestHandlerFailingIs503(t *testing.T) {
	h := NewHandler(stubRunner{rep: errReport()}, nil)
	rec := get(t, h, "/healthcheck", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "Some checks are failing")
}

func TestHandlerJSONBySuffix(t *testing.T) {
	h := NewHandler(stubRunner{rep: okReport()}, nil)
	rec := get(t, h, "/healthcheck.json", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var decoded struct {
		Status string `json:"status"`
		Checks []struct {
			Name    string  `json:"name"`
			Success bool    `json:"success"`
			Message string  `json:"message"`
			Skipped bool    `json:"skipped"`
			Dur     float64 `json:"duration"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Equal(t, "ok", decoded.Status)
	require.Len(t, decoded.Checks, 2)
	require.Equal(t, "db", decoded.Checks[0].Name)
	require.True(t, decoded.Checks[1].Skipped)
}

func TestHandlerJSONByAcceptHeader(t *testing.T) {
	h := NewHandler(stubRunner{rep: okReport()}, nil)
	rec := get(t, h, "/healthcheck", map[string]string{"Accept": "application/json"})
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestHandlerJSONByQuery(t *testing.T) {
	h := NewHandler(stubRunner{rep: okReport()}, nil)
	rec := get(t, h, "/healthcheck?format=json", nil)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestHandlerCycleFaultIs500(t *testing.T) {
	h := NewHandler(stubRunner{err: errors.New("cache store gone")}, nil)
	rec := get(t, h, "/healthcheck.json", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var decoded struct {
		Status string `json:"status"`
		Checks []struct {
			Name    string `json:"name"`
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Equal(t, "error", decoded.Status)
	require.Len(t, decoded.Checks, 1)
	require.Equal(t, "Healthcheck error", decoded.Checks[0].Name)
	require.False(t, decoded.Checks[0].Success)
	require.Contains(t, decoded.Checks[0].Message, "cache store gone")
}

func TestHandlerEscapesCheckNames(t *testing.T) {
	rep := &allgood.Report{
		Status: allgood.AggregateOK,
		Results: []allgood.Result{
			{Name: "<script>alert(1)</script>", Success: true, Message: "Check passed"},
		},
	}
	h := NewHandler(stubRunner{rep: rep}, nil)
	rec := get(t, h, "/healthcheck", nil)
	require.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	require.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestHandlerEndToEndWithEngine(t *testing.T) {
	engine := allgood.New()
	require.NoError(t, engine.Register("math still works", func(c *allgood.C) allgood.Outcome {
		return c.Expect(2).ToEq(2)
	}))

	h := NewHandler(engine, nil)
	rec := get(t, h, "/healthcheck.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "math still works")
}
