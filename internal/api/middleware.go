package api

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/service"
	"alcyxob/fitness-log/internal/session"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Constants for context keys
const (
	ContextMemberKey = "member"
	ContextTokenKey  = "sessionToken"
)

type memberContextKey struct{}

// WithMember returns a copy of ctx carrying the current member.
func WithMember(ctx context.Context, member *domain.Member) context.Context {
	return context.WithValue(ctx, memberContextKey{}, member)
}

// MemberFromContext returns the member stored by WithMember, if any.
func MemberFromContext(ctx context.Context) (*domain.Member, bool) {
	member, ok := ctx.Value(memberContextKey{}).(*domain.Member)
	return member, ok && member != nil
}

// RequireMember resolves the Bearer session token to a member.
// Every failure is a 401; the member is stored in both the gin and the request context.
func RequireMember(sessions *session.Manager, members service.MemberService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		memberID, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidSession) {
				log.WithError(err).Error("Session lookup failed")
			}
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		member, err := members.Get(c.Request.Context(), memberID)
		if err != nil {
			if !errors.Is(err, service.ErrNotFound) {
				log.WithError(err).WithField("member_id", memberID).Error("Failed to load session member")
			}
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		c.Set(ContextMemberKey, member)
		c.Set(ContextTokenKey, token)
		c.Request = c.Request.WithContext(WithMember(c.Request.Context(), member))
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if member, ok := MemberFromContext(c.Request.Context()); ok {
			fields["member_id"] = member.ID
		}
		entry := log.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// writeServiceError maps service errors onto HTTP responses.
// Unexpected errors are logged and answered with a generic 500.
func writeServiceError(c *gin.Context, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUniquenessViolation):
		abortWithError(c, http.StatusConflict, service.ErrUniquenessViolation.Error())
	case errors.Is(err, service.ErrInvalidCredential), errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrUnknownCategory):
		abortWithError(c, http.StatusNotFound, service.ErrUnknownCategory.Error())
	case errors.Is(err, service.ErrCatalogUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "Exercise catalog is unavailable, try again later")
	case errors.Is(err, service.ErrStorageDisabled):
		abortWithError(c, http.StatusNotImplemented, service.ErrStorageDisabled.Error())
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// Helper function to get the current member from the gin context (used by handlers)
func getMemberFromContext(c *gin.Context) (*domain.Member, error) {
	raw, exists := c.Get(ContextMemberKey)
	if !exists {
		return nil, errors.New("member not found in context")
	}
	member, ok := raw.(*domain.Member)
	if !ok {
		return nil, errors.New("invalid member type in context")
	}
	return member, nil
}

// currentMember fetches the member or aborts with 500; RequireMember must have run.
func currentMember(c *gin.Context) (*domain.Member, bool) {
	member, err := getMemberFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get member from context")
		return nil, false
	}
	return member, true
}
