package api

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/service"
	"alcyxob/fitness-log/internal/session"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MemberHandler serves member profiles.
type MemberHandler struct {
	memberService  service.MemberService
	workoutService service.WorkoutService
	sessions       *session.Manager
	log            *logrus.Logger
}

func NewMemberHandler(memberService service.MemberService, workoutService service.WorkoutService, sessions *session.Manager, log *logrus.Logger) *MemberHandler {
	return &MemberHandler{
		memberService:  memberService,
		workoutService: workoutService,
		sessions:       sessions,
		log:            log,
	}
}

// UpdateMemberRequest is a partial update; Password is the current password and is required.
type UpdateMemberRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
	ImageURL  *string `json:"imageUrl"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	Password  string  `json:"password" binding:"required"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ProfileResponse is a member with their workouts, newest first.
type ProfileResponse struct {
	Member   MemberResponse   `json:"member"`
	Workouts []domain.Workout `json:"workouts"`
}

// GetProfile shows any member's profile.
// @Router /members/{id} [get]
func (h *MemberHandler) GetProfile(c *gin.Context) {
	member, err := h.memberService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.writeProfile(c, member)
}

// GetMe shows the caller's own profile.
// @Router /members/me [get]
func (h *MemberHandler) GetMe(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	h.writeProfile(c, member)
}

func (h *MemberHandler) writeProfile(c *gin.Context, member *domain.Member) {
	workouts, err := h.workoutService.ListForMember(c.Request.Context(), member)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Member: MapMemberToResponse(member), Workouts: workouts})
}

// UpdateMe edits the caller's profile after re-checking their password.
// @Router /members/me [patch]
func (h *MemberHandler) UpdateMe(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	updated, err := h.memberService.Edit(c.Request.Context(), member, service.MemberUpdate{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		ImageURL:  req.ImageURL,
		Bio:       req.Bio,
		Location:  req.Location,
	}, req.Password)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MapMemberToResponse(updated))
}

// DeleteMe removes the caller's account and ends the session.
// @Router /members/me [delete]
func (h *MemberHandler) DeleteMe(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	if err := h.memberService.Delete(c.Request.Context(), member); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), c.GetString(ContextTokenKey)); err != nil {
		h.log.WithError(err).WithField("member_id", member.ID).Warn("Failed to revoke session of deleted member")
	}
	c.Status(http.StatusNoContent)
}

// RequestAvatarUpload hands out a presigned URL for a new profile picture.
// @Router /members/me/avatar [post]
func (h *MemberHandler) RequestAvatarUpload(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	var req AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.memberService.RequestAvatarUpload(c.Request.Context(), member, req.ContentType)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}
