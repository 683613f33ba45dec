// Package responses writes the JSON envelopes shared by the public intake
// and the back-office API.
package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	dbpkg "github.com/angelmondragon/catering-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/logger"
)

// RequestIDHeader is set by the request id middleware before handlers run.
const RequestIDHeader = "X-Request-Id"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Codes whose own message is safe to show to the caller.
var publicMessageCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:    true,
	pkgerrors.CodeForbidden:     true,
	pkgerrors.CodeUnauthorized:  true,
	pkgerrors.CodeNotFound:      true,
	pkgerrors.CodeConflict:      true,
	pkgerrors.CodeStateConflict: true,
	pkgerrors.CodeIdempotency:   true,
	pkgerrors.CodeRateLimit:     true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessEnvelope{Data: data})
}

// WriteError maps err onto its public code and status. Untyped errors become
// INTERNAL_ERROR, except a missing gorm row which reads as NOT_FOUND. logg may
// be nil when the caller has already logged.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := classify(err)
	meta := pkgerrors.MetadataFor(typed.Code())

	apiErr := APIError{
		Code:      string(typed.Code()),
		Message:   meta.PublicMessage,
		RequestID: w.Header().Get(RequestIDHeader),
	}
	if publicMessageCodes[typed.Code()] && typed.Message() != "" {
		apiErr.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}
	if meta.HTTPStatus == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if logg != nil {
		logError(ctx, logg, meta.HTTPStatus, err)
	}
	writeJSON(w, meta.HTTPStatus, ErrorEnvelope{Error: apiErr})
}

func classify(err error) *pkgerrors.Error {
	switch {
	case err == nil:
		return pkgerrors.New(pkgerrors.CodeInternal, "unknown error")
	case pkgerrors.As(err) != nil:
		return pkgerrors.As(err)
	case dbpkg.IsNotFound(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "record not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
}

// logError keeps 4xx noise at warn and attaches the Postgres fields for 5xx.
func logError(ctx context.Context, logg *logger.Logger, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	fields := pkgerrors.Dump(err).Fields()
	fields["status"] = status
	if status < http.StatusInternalServerError {
		for _, key := range []string{"pg_code", "pg_constraint", "pg_table", "pg_column", "pg_detail"} {
			delete(fields, key)
		}
		logg.Warn(logg.WithFields(ctx, fields), "request.rejected")
		return
	}
	logg.Error(logg.WithFields(ctx, fields), "request.error", err)
}

// writeJSON encodes before touching the writer so a marshal failure can still
// produce a clean 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
