package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/partsbridge/marketplace/api/responses"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// authBodyLimit bounds how much of a login/register body is buffered to
// find the email.
const authBodyLimit = 64 << 10

type windowCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy caps attempts on one auth endpoint per client address
// and per submitted email within a fixed window. A zero limit disables that
// dimension.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// attempt is one dimension of a request checked against the policy.
type attempt struct {
	kind  string
	value string
	limit int
}

func (p AuthRateLimitPolicy) scope(a attempt) string {
	return p.name + ":" + a.kind + ":" + a.value
}

// AuthRateLimit counts attempts in Redis so the limit holds across API
// replicas. Exhausted callers get 429 RATE_LIMIT_EXCEEDED with Retry-After.
func AuthRateLimit(policy AuthRateLimitPolicy, counter windowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			attempts, err := policy.attemptsFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			for _, a := range attempts {
				allowed, count, err := counter.FixedWindowAllow(ctx, policy.scope(a), int64(a.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, logg, w, a, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// attemptsFor reads the dimensions to count. The body is buffered and put
// back so the handler can decode it again.
func (p AuthRateLimitPolicy) attemptsFor(r *http.Request) ([]attempt, error) {
	var out []attempt
	if ip := remoteAddr(r); p.ipLimit > 0 && ip != "" {
		out = append(out, attempt{kind: "ip", value: ip, limit: p.ipLimit})
	}
	if p.emailLimit <= 0 || r.Body == nil {
		return out, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, authBodyLimit+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body")
	}
	if len(body) > authBodyLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if email := emailFromBody(body); email != "" {
		sum := sha256.Sum256([]byte(email))
		out = append(out, attempt{kind: "email", value: hex.EncodeToString(sum[:]), limit: p.emailLimit})
	}
	return out, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, a attempt, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         p.name,
			"scope":          a.kind,
			"subject":        a.value,
			"attempts":       count,
			"limit":          a.limit,
			"window_seconds": int(p.window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// remoteAddr prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer.
func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}
