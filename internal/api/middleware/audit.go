package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
)

// maxAuditBody caps how much of a JSON request body is kept for entity id lookup.
const maxAuditBody = 64 << 10

// AuditOptions are the static audit attributes of a route.
type AuditOptions struct {
	Action      string
	Entity      string
	Resource    string
	Description string
	Details     map[string]any
}

// AuditContext lets a handler override the audit event of its request before
// it is sealed. Zero fields fall back to the route options and then to the
// computed defaults.
type AuditContext struct {
	Action      string
	Entity      string
	EntityID    *string
	Resource    string
	ResourceID  *string
	Description string
	Success     *bool
	User        *domain.AuditUser
	Details     map[string]any
	Metadata    map[string]any
}

// SetEntityID overrides the audited entity id.
func (a *AuditContext) SetEntityID(id string) { a.EntityID = &id }

// SetSuccess overrides the status-derived success flag.
func (a *AuditContext) SetSuccess(ok bool) { a.Success = &ok }

// AddDetail records a key in the event details.
func (a *AuditContext) AddDetail(key string, value any) {
	if a.Details == nil {
		a.Details = make(map[string]any)
	}
	a.Details[key] = value
}

// AuditFrom returns the audit context of c. On routes without an audit
// recorder it returns a throwaway context so handlers need no nil checks.
func AuditFrom(c echo.Context) *AuditContext {
	if ac, ok := c.Get(auditKey).(*AuditContext); ok {
		return ac
	}
	return &AuditContext{}
}

// AuditRecorder emits one audit event per request once the response is done.
type AuditRecorder struct {
	sink ports.AuditSink
	log  zerolog.Logger
	now  func() time.Time
}

func NewAuditRecorder(sink ports.AuditSink, log zerolog.Logger) *AuditRecorder {
	return &AuditRecorder{sink: sink, log: log, now: time.Now}
}

// Audit wraps a route with an audit hook. It must be the outermost route
// middleware: errors returned further down are rendered here so the event
// sees the final status code, and panics are converted to 500 responses.
// http.ErrAbortHandler is recorded and then re-panicked to abort the connection.
func (r *AuditRecorder) Audit(opts AuditOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			startedAt := r.now()
			ac := &AuditContext{}
			c.Set(auditKey, ac)
			body := peekJSONBody(c)

			var once sync.Once
			fire := func() {
				once.Do(func() { r.record(c, opts, ac, body, startedAt) })
			}

			defer fire()
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						fire()
						panic(p)
					}
					perr, ok := p.(error)
					if !ok {
						perr = fmt.Errorf("%v", p)
					}
					r.log.Error().Err(perr).Str("path", c.Path()).Msg("panic in audited handler")
					c.Error(perr)
					err = nil
				}
			}()

			if herr := next(c); herr != nil {
				c.Error(herr)
			}
			return nil
		}
	}
}

func (r *AuditRecorder) record(c echo.Context, opts AuditOptions, ac *AuditContext, body []byte, startedAt time.Time) {
	finishedAt := r.now()
	status := c.Response().Status
	req := c.Request()

	event := &domain.AuditEvent{
		Action:      firstNonEmpty(ac.Action, opts.Action, strings.ToLower(req.Method)+" "+c.Path()),
		Entity:      firstNonEmpty(ac.Entity, opts.Entity),
		Resource:    firstNonEmpty(ac.Resource, opts.Resource, opts.Entity),
		Description: firstNonEmpty(ac.Description, opts.Description, req.Method+" "+c.Path()),
		EntityID:    ac.EntityID,
		ResourceID:  ac.ResourceID,
		Details:     mergeMaps(opts.Details, ac.Details),
		Success:     status < 400,
		StatusCode:  status,
		User:        ac.User,
		Timestamp:   finishedAt.UTC(),
	}
	if event.EntityID == nil {
		event.EntityID = entityID(c, body)
	}
	if event.ResourceID == nil {
		event.ResourceID = event.EntityID
	}
	if ac.Success != nil {
		event.Success = *ac.Success
	}
	if event.User == nil {
		if identity := IdentityFrom(c); identity != nil {
			event.User = &domain.AuditUser{
				ID:       identity.ID,
				Username: identity.Username,
				Email:    identity.Email,
				Role:     identity.Role,
			}
		}
	}
	event.Metadata = mergeMaps(map[string]any{
		"method":     req.Method,
		"path":       req.URL.Path,
		"route":      c.Path(),
		"ip":         c.RealIP(),
		"userAgent":  req.UserAgent(),
		"requestId":  requestID(c),
		"durationMs": finishedAt.Sub(startedAt).Milliseconds(),
	}, ac.Metadata)

	r.sink.Submit(event)
}

// peekJSONBody reads up to maxAuditBody bytes of a JSON request body and
// puts them back so the handler still sees the whole body.
func peekJSONBody(c echo.Context) []byte {
	req := c.Request()
	if req.Body == nil || !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(req.Body, maxAuditBody))
	if err != nil {
		return nil
	}
	req.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), req.Body), req.Body}
	return buf
}

// entityID falls back through the "id" path param, then body.id, then body._id.
func entityID(c echo.Context, body []byte) *string {
	if id := c.Param("id"); id != "" {
		return &id
	}
	if len(body) == 0 {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	for _, key := range []string{"id", "_id"} {
		if id, ok := scalarString(fields[key]); ok {
			return &id
		}
	}
	return nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mergeMaps(base, overrides map[string]any) map[string]any {
	if len(base) == 0 && len(overrides) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
