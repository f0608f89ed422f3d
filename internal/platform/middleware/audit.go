package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
)

// AuditEntry records who touched which part of a patient record.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	UserID     string
	UserRoles  []string
	Resource   string
	PatientID  string
	Action     string
	Method     string
	Route      string
	StatusCode int
}

// AuditRecorder persists audit entries. The log line is written either way.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error { return f(entry) }

// Audit logs every /api/v1 request after it is handled. The patient id is
// taken from routes shaped /api/v1/patients/:id/...
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			ctx := req.Context()
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Resource:   resourceOf(c.Path()),
				PatientID:  patientOf(c),
				Action:     actionOf(req.Method),
				Method:     req.Method,
				Route:      c.Path(),
				StatusCode: status,
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			if recorder != nil {
				if recErr := recorder.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}
			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("route", entry.Route).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func actionOf(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceOf names the record section a route belongs to: the segment after
// the patient id for patient routes, otherwise the first segment.
func resourceOf(route string) string {
	segs := strings.Split(strings.TrimPrefix(route, "/api/v1/"), "/")
	if len(segs) >= 3 && segs[0] == "patients" && segs[1] == ":id" {
		return segs[2]
	}
	if segs[0] == "" {
		return "unknown"
	}
	return segs[0]
}

func patientOf(c echo.Context) string {
	if strings.HasPrefix(c.Path(), "/api/v1/patients/:id") {
		return c.Param("id")
	}
	return ""
}
