package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/core/domain"
)

func newAuditedEcho(sink *captureSink, opts AuditOptions, method, path string, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	recorder := NewAuditRecorder(sink, zerolog.Nop())
	ticks := 0
	recorder.now = func() time.Time {
		ticks++
		return testNow.Add(time.Duration(ticks) * 25 * time.Millisecond)
	}
	e.Add(method, path, h, recorder.Audit(opts))
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAudit_HandlerErrorRecordedOnceWithFinalStatus(t *testing.T) {
	sink := &captureSink{}
	e := newAuditedEcho(sink, AuditOptions{Action: "book.read", Entity: "book"}, http.MethodGet, "/books/:id",
		func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "Book not found")
		})

	rec := serve(e, http.MethodGet, "/books/42", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	event := sink.only(t)
	if event.StatusCode != http.StatusNotFound || event.Success {
		t.Fatalf("unexpected outcome: status=%d success=%v", event.StatusCode, event.Success)
	}
	if event.Action != "book.read" || event.Entity != "book" || event.Resource != "book" {
		t.Fatalf("unexpected static attributes: %+v", event)
	}
	if event.EntityID == nil || *event.EntityID != "42" || event.ResourceID == nil || *event.ResourceID != "42" {
		t.Fatalf("expected entity id from path param, got %v", event.EntityID)
	}
	if event.Metadata["durationMs"] != int64(25) {
		t.Fatalf("unexpected duration metadata: %v", event.Metadata["durationMs"])
	}
	if event.Timestamp.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestAudit_PanicRecordedAs500(t *testing.T) {
	sink := &captureSink{}
	e := newAuditedEcho(sink, AuditOptions{Action: "boom"}, http.MethodGet, "/boom",
		func(c echo.Context) error {
			panic("kaboom")
		})

	rec := serve(e, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if event := sink.only(t); event.StatusCode != http.StatusInternalServerError || event.Success {
		t.Fatalf("unexpected audit event %+v", event)
	}
}

func TestAudit_EntityIDFromBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"id", `{"id":"abc","title":"Dune"}`, "abc"},
		{"_id", `{"_id":"65f0c0ffee"}`, "65f0c0ffee"},
		{"numeric", `{"id":7}`, "7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &captureSink{}
			var seen string
			e := newAuditedEcho(sink, AuditOptions{Action: "book.create"}, http.MethodPost, "/books",
				func(c echo.Context) error {
					raw, _ := io.ReadAll(c.Request().Body)
					seen = string(raw)
					return c.NoContent(http.StatusCreated)
				})

			serve(e, http.MethodPost, "/books", tc.body)
			if seen != tc.body {
				t.Fatalf("handler saw %q, want the full body %q", seen, tc.body)
			}
			event := sink.only(t)
			if event.EntityID == nil || *event.EntityID != tc.want {
				t.Fatalf("expected entity id %q, got %v", tc.want, event.EntityID)
			}
		})
	}
}

func TestAudit_NoEntityID(t *testing.T) {
	sink := &captureSink{}
	e := newAuditedEcho(sink, AuditOptions{}, http.MethodPost, "/things",
		func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	serve(e, http.MethodPost, "/things", `{"title":"x"}`)
	event := sink.only(t)
	if event.EntityID != nil {
		t.Fatalf("expected nil entity id, got %q", *event.EntityID)
	}
	if event.Action != "post /things" {
		t.Fatalf("unexpected default action %q", event.Action)
	}
}

func TestAudit_ContextOverrides(t *testing.T) {
	sink := &captureSink{}
	e := newAuditedEcho(sink, AuditOptions{Action: "settings.update", Details: map[string]any{"scope": "system"}}, http.MethodPut, "/settings/:id",
		func(c echo.Context) error {
			ac := AuditFrom(c)
			ac.Action = "settings.maintenance"
			ac.SetEntityID("global")
			ac.SetSuccess(false)
			ac.AddDetail("after", true)
			ac.User = &domain.AuditUser{ID: "u9"}
			return c.NoContent(http.StatusOK)
		})

	serve(e, http.MethodPut, "/settings/1", "")
	event := sink.only(t)
	if event.Action != "settings.maintenance" || *event.EntityID != "global" || event.Success {
		t.Fatalf("overrides not applied: %+v", event)
	}
	if event.Details["scope"] != "system" || event.Details["after"] != true {
		t.Fatalf("details not merged: %+v", event.Details)
	}
	if event.User == nil || event.User.ID != "u9" {
		t.Fatalf("user override not applied: %+v", event.User)
	}
}

func TestAuditFrom_WithoutRecorder(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	ac := AuditFrom(c)
	if ac == nil {
		t.Fatalf("expected a usable audit context")
	}
	ac.AddDetail("k", "v")
}

func TestAudit_AbortHandlerPanicIsRecordedAndPropagated(t *testing.T) {
	sink := &captureSink{}
	recorder := NewAuditRecorder(sink, zerolog.Nop())
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/stream", nil), httptest.NewRecorder())
	h := recorder.Audit(AuditOptions{Action: "stream"})(func(echo.Context) error {
		panic(http.ErrAbortHandler)
	})

	defer func() {
		if p := recover(); p != http.ErrAbortHandler {
			t.Fatalf("expected http.ErrAbortHandler to propagate, got %v", p)
		}
		if event := sink.only(t); event.Action != "stream" {
			t.Fatalf("unexpected audit event %+v", event)
		}
	}()
	_ = h(c)
	t.Fatalf("expected the abort panic to propagate")
}
