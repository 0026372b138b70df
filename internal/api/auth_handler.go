package api

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/service"
	"alcyxob/fitness-log/internal/session"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
	memberService service.MemberService
	sessions      *session.Manager
	log           *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(memberService service.MemberService, sessions *session.Manager, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{memberService: memberService, sessions: sessions, log: log}
}

// --- Request/Response Structs ---

type SignupRequest struct {
	Username  string  `json:"username" binding:"required"`
	FirstName string  `json:"firstName" binding:"required"`
	LastName  string  `json:"lastName" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password"` // Checked by the service so an empty one reads as a bad credential
	ImageURL  string  `json:"imageUrl"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
}

// MemberResponse excludes sensitive info like password hash
type MemberResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"imageUrl"`
	Bio       *string   `json:"bio,omitempty"`
	Location  *string   `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Member    MemberResponse `json:"member"`
}

// MapMemberToResponse converts a domain.Member to its API shape.
func MapMemberToResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		FullName:  m.FullName(),
		Email:     m.Email,
		ImageURL:  m.ImageURL,
		Bio:       m.Bio,
		Location:  m.Location,
		CreatedAt: m.CreatedAt,
	}
}

// --- Handler Methods ---

// Signup creates a member and logs it in.
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	member, err := h.memberService.Signup(c.Request.Context(), service.SignupInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		ImageURL:  req.ImageURL,
		Bio:       req.Bio,
		Location:  req.Location,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	resp, err := h.issue(c, member)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login authenticates a member and returns a session token.
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	member, ok, err := h.memberService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	resp, err := h.issue(c, member)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout ends the caller's session.
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(ContextTokenKey)
	if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) issue(c *gin.Context, member *domain.Member) (*LoginResponse, error) {
	token, err := h.sessions.Issue(c.Request.Context(), member.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.sessions.TTL()),
		Member:    MapMemberToResponse(member),
	}, nil
}
