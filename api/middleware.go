package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/internal/logging"
)

const (
	CorrelationIDHeader = "X-Correlation-Id"
	UserIDHeader        = "X-User-Id"
	IdempotencyHeader   = "X-Idempotency-Key"

	actorKey = "actor_id"
)

// CorrelationID tags every request with an id taken from X-Correlation-Id or
// generated, echoes it back and attaches a request-scoped logger.
func CorrelationID(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(CorrelationIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(CorrelationIDHeader, requestID)

		reqLog := logger.With("request_id", requestID)
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), reqLog))

		start := time.Now()
		c.Next()
		reqLog.Debug("request handled",
			"method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// ActorDirectory reports whether an actor is registered.
type ActorDirectory interface {
	ActorExists(ctx context.Context, actorID string) (bool, error)
}

// Authenticate resolves the acting user from a bearer token signed with
// jwtSecret (when set) or from the X-User-Id header, and rejects requests
// from unknown users.
func Authenticate(actors ActorDirectory, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := actorFromRequest(c, jwtSecret)
		if !ok {
			return
		}

		exists, err := actors.ActorExists(c.Request.Context(), actorID)
		if err != nil {
			logging.FromContext(c.Request.Context(), nil).Error("failed to check user", "user_id", actorID, "error", err)
			abortWithStatus(c, http.StatusInternalServerError, "UNEXPECTED", unexpectedMessage)
			return
		}
		if !exists {
			abortWithStatus(c, http.StatusUnauthorized, "UNAUTHENTICATED", "User does not exist: "+actorID)
			return
		}

		c.Set(actorKey, actorID)
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(),
			logging.FromContext(c.Request.Context(), nil).With("user_id", actorID)))
		c.Next()
	}
}

func actorFromRequest(c *gin.Context, jwtSecret string) (string, bool) {
	if auth := c.GetHeader("Authorization"); jwtSecret != "" && strings.HasPrefix(auth, "Bearer ") {
		sub, err := parseSubject(strings.TrimPrefix(auth, "Bearer "), jwtSecret)
		if err != nil {
			abortWithStatus(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
			return "", false
		}
		return sub, true
	}

	actorID := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if actorID == "" {
		abortWithStatus(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing X-User-Id header")
		return "", false
	}
	return actorID, true
}

func parseSubject(raw, secret string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return sub, nil
}

// IssueToken signs an HS256 token whose subject is actorID.
func IssueToken(secret, actorID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   actorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func actorFrom(c *gin.Context) string {
	return c.GetString(actorKey)
}
