package api

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WorkoutHandler serves the caller's workouts.
type WorkoutHandler struct {
	workoutService service.WorkoutService
	log            *logrus.Logger
}

func NewWorkoutHandler(workoutService service.WorkoutService, log *logrus.Logger) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, log: log}
}

type AddExercisesRequest struct {
	Exercises []string `json:"exercises" binding:"required,min=1"`
}

type AddExercisesResponse struct {
	Workout  domain.Workout    `json:"workout"`
	Attached []domain.Exercise `json:"attached"`
	Skipped  []string          `json:"skipped"`
}

// AddToToday attaches exercises, by name, to today's workout.
// @Router /workouts/today/exercises [post]
func (h *WorkoutHandler) AddToToday(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	var req AddExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, result, err := h.workoutService.AddToToday(c.Request.Context(), member, req.Exercises)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, AddExercisesResponse{
		Workout:  *workout,
		Attached: result.Attached,
		Skipped:  result.Skipped,
	})
}

// ListMine lists the caller's workouts, newest first.
// @Router /workouts [get]
func (h *WorkoutHandler) ListMine(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	workouts, err := h.workoutService.ListForMember(c.Request.Context(), member)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// GetWorkout shows one of the caller's workouts with its exercises.
// @Router /workouts/{id} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		return
	}
	detail, err := h.workoutService.Get(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
