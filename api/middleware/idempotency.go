package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/catering-backend/api/responses"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/catering-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	replayedHeader         = "Idempotent-Replayed"
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// A claimed key expires on its own if the process dies mid-request.
	inFlightTTL          = 2 * time.Minute
	maxIdempotentBody    = 1 << 20
	maxIdempotencyKeyLen = 128
)

type idempotencyRule struct {
	method string
	prefix string
	suffix string
	ttl    time.Duration
}

// Ordered; the first match wins. Estimate creation, conversion, payment and
// signature keep their keys for a week because they allocate numbers or move
// money.
var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, prefix: "/api/admin/v1/quotes/", suffix: "/invoices", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/admin/v1/invoices/", suffix: "/convert", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/admin/v1/invoices/", suffix: "/paid", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/admin/v1/contracts/", suffix: "/signed", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/admin/v1/", ttl: defaultIdempotencyTTL},
}

type idempotencyRecord struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	Claim       string `json:"claim,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency requires an Idempotency-Key on admin POSTs. A retry with the
// same key and body replays the first response; a different body or a retry
// racing the original is a conflict. 5xx outcomes are not remembered.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		g := &idempotencyGuard{store: store, logg: logg}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// group middleware only sees a partial chi pattern, so match the concrete path
			ttl, ok := routeTTL(r.Method, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			g.serve(w, r, next, ttl)
		})
	}
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, ttl time.Duration) {
	ctx := r.Context()
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if clientKey == "" || len(clientKey) > maxIdempotencyKeyLen {
		responses.WriteError(ctx, nil, w, pkgerrors.Field(idempotencyHeader, "header is required and at most 128 characters"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	if len(body) > maxIdempotentBody {
		responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := hashBody(body)
	admin, _ := AdminFrom(ctx)
	key := g.store.IdempotencyKey(admin.ID+"|"+r.Method+"|"+r.URL.Path, clientKey)

	existing, err := g.lookup(ctx, key)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
		return
	}
	if existing != nil {
		g.answerExisting(ctx, w, existing, hash)
		return
	}

	marker, claimed, err := g.claim(ctx, key, hash)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
		return
	}
	if !claimed {
		responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	g.remember(context.WithoutCancel(ctx), key, marker, hash, capture, ttl)
}

func (g *idempotencyGuard) lookup(ctx context.Context, key string) (*idempotencyRecord, error) {
	raw, err := g.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (g *idempotencyGuard) answerExisting(ctx context.Context, w http.ResponseWriter, record *idempotencyRecord, hash string) {
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
	case record.InFlight:
		responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
			_, _ = w.Write(decoded)
		}
	}
}

// claim stores an in-flight marker unique to this request and returns it.
func (g *idempotencyGuard) claim(ctx context.Context, key, hash string) (string, bool, error) {
	raw, err := json.Marshal(idempotencyRecord{InFlight: true, Claim: uuid.NewString(), RequestHash: hash})
	if err != nil {
		return "", false, err
	}
	marker := string(raw)
	claimed, err := g.store.SetNX(ctx, key, marker, inFlightTTL)
	return marker, claimed, err
}

// remember swaps this request's in-flight marker for the final response in
// one step, so a concurrent retry never finds the key empty. Server errors
// release the key so the admin can simply retry. A marker that expired or
// was replaced is left alone.
func (g *idempotencyGuard) remember(ctx context.Context, key, marker, hash string, capture *responseCapture, ttl time.Duration) {
	status := capture.statusOrOK()
	if status >= http.StatusInternalServerError {
		if _, err := g.store.DeleteIfValue(ctx, key, marker); err != nil {
			g.logFailure(ctx, "release idempotency key", err)
		}
		return
	}
	payload, err := json.Marshal(idempotencyRecord{
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		RequestHash: hash,
	})
	if err != nil {
		g.logFailure(ctx, "marshal idempotency record", err)
		return
	}
	swapped, err := g.store.SwapIfValue(ctx, key, marker, string(payload), ttl)
	if err != nil {
		g.logFailure(ctx, "persist idempotency record", err)
		return
	}
	if !swapped && g.logg != nil {
		g.logg.Warn(g.logg.WithField(ctx, "idempotency_key", key), "idempotency marker expired before the response was stored")
	}
}

func (g *idempotencyGuard) logFailure(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

func routeTTL(method, path string) (time.Duration, bool) {
	for _, rule := range idempotencyRules {
		if rule.method == method && strings.HasPrefix(path, rule.prefix) && strings.HasSuffix(path, rule.suffix) {
			return rule.ttl, true
		}
	}
	return 0, false
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
