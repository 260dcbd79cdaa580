package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partsbridge/marketplace/api/responses"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

const (
	IdempotencyHeader      = "Idempotency-Key"
	replayHeader           = "Idempotent-Replay"
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

type idempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

// idempotencyRule applies to requests whose path matches pattern. A pattern
// ending in "/**" matches the whole subtree; anything else is a path.Match
// glob.
type idempotencyRule struct {
	method   string
	pattern  string
	ttl      time.Duration
	required bool
}

func (r idempotencyRule) matches(method, p string) bool {
	if method != r.method {
		return false
	}
	if root, ok := strings.CutSuffix(r.pattern, "/**"); ok {
		return strings.HasPrefix(p, root+"/")
	}
	ok, _ := path.Match(r.pattern, strings.TrimSuffix(p, "/"))
	return ok
}

// Checkout, direct orders and quote acceptance must carry a key. Other
// writes under /api may. First match wins.
var idempotencyRules = []idempotencyRule{
	{http.MethodPost, "/api/cart/checkout", criticalIdempotencyTTL, true},
	{http.MethodPost, "/api/orders", criticalIdempotencyTTL, true},
	{http.MethodPost, "/api/quotation/accept", criticalIdempotencyTTL, true},
	{http.MethodPost, "/api/orders/*/cancel", criticalIdempotencyTTL, false},
	{http.MethodPost, "/api/**", defaultIdempotencyTTL, false},
	{http.MethodPut, "/api/**", defaultIdempotencyTTL, false},
	{http.MethodDelete, "/api/**", defaultIdempotencyTTL, false},
}

func routeRule(method, p string) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules {
		if rule.matches(method, p) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

// storedResponse is what a key remembers. Body is base64 in JSON.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency replays the first response recorded for a key. The same key
// with a different body is IDEMPOTENCY_KEY_REUSED. Keys are scoped to the
// caller, method and path; 5xx responses are not recorded.
func Idempotency(store idempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := routeRule(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			id := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if id == "" {
				if rule.required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyHeader+" header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := store.IdempotencyKey(requestScope(r), id)
			fingerprint := fingerprintOf(body)

			prior, err := loadResponse(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency lookup"))
				return
			}
			if prior != nil {
				if prior.Fingerprint != fingerprint {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
					return
				}
				prior.replay(w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusOrOK()
			if status >= http.StatusInternalServerError {
				return
			}
			saveResponse(ctx, logg, store, key, rule.ttl, storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			})
		})
	}
}

func requestScope(r *http.Request) string {
	return UserIDFromContext(r.Context()) + "|" + r.Method + "|" + r.URL.Path
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// loadResponse returns nil, nil when the key is unused.
func loadResponse(ctx context.Context, store idempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// saveResponse is best effort. SetNX keeps the first writer's response when
// two identical requests race.
func saveResponse(ctx context.Context, logg *logger.Logger, store idempotencyStore, key string, ttl time.Duration, resp storedResponse) {
	payload, err := json.Marshal(resp)
	if err == nil {
		_, err = store.SetNX(ctx, key, string(payload), ttl)
	}
	if err != nil && logg != nil {
		logg.Error(ctx, "store idempotent response", err)
	}
}

func (s *storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
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
