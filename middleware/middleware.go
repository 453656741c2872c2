package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/golang-jwt/jwt/v4/request"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"golang.org/x/time/rate"
)

const (
	KeyJwtSessionCookieName = "jwt_session"

	defaultTrackedClients = 10000
	clientIdleTTL         = 10 * time.Minute
)

// Auth validates HS256 session tokens from the bearer header or the
// session cookie.
type Auth struct {
	Secret []byte
}

func (a *Auth) parse(r *http.Request) (service.UserCredentialClaims, error) {
	tokenStr, err := request.BearerExtractor{}.ExtractToken(r)
	if errors.Is(err, request.ErrNoTokenInRequest) {
		cookie, cookieErr := r.Cookie(KeyJwtSessionCookieName)
		if cookieErr != nil {
			return service.UserCredentialClaims{}, fmt.Errorf(
				"%w, no session token in request",
				qotd_errors.ErrUnAuthenticated,
			)
		}
		tokenStr, err = cookie.Value, nil
	}
	if err != nil {
		return service.UserCredentialClaims{}, fmt.Errorf("%w, %w", qotd_errors.ErrUnAuthenticated, err)
	}

	var claims service.UserCredentialClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.Secret, nil
	})
	if err != nil || !token.Valid {
		return service.UserCredentialClaims{}, fmt.Errorf(
			"%w, invalid session token, %v",
			qotd_errors.ErrUnAuthenticated,
			err,
		)
	}
	return claims, nil
}

// JWTMiddleware rejects requests without a valid session and stores the
// claims in the request context.
func (a *Auth) JWTMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r)
		if err != nil {
			log.Debug(err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(service.WithClaims(r.Context(), claims)))
	}
}

// AdminMiddleware additionally requires the manager role.
func (a *Auth) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return a.JWTMiddleware(func(w http.ResponseWriter, r *http.Request) {
		claims, err := service.GetClaimsFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if claims.Role != service.RoleManager {
			log.WithField("user_id", claims.UserId).Warn("non manager tried an admin route")
			http.Error(w, qotd_errors.ErrUnAuthorized.Error(), http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// IssueToken signs claims with secret. Tokens are normally issued by the
// account service; this is used by tooling and tests.
func IssueToken(secret []byte, claims service.UserCredentialClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RateLimiter allows each client address perMinute requests per minute with
// a burst of the same size. Idle clients are forgotten after a while.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients *expirable.LRU[string, *rate.Limiter]
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		clients: expirable.NewLRU[string, *rate.Limiter](defaultTrackedClients, nil, clientIdleTTL),
	}
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok := l.clients.Get(key); ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.clients.Add(key, limiter)
	return limiter
}

func (l *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.limiterFor(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "too many requests, please try again later", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
