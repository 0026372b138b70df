package api

import (
	"alcyxob/fitness-log/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
	log             *logrus.Logger
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService, log *logrus.Logger) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService, log: log}
}

// GetCategories lists the browsable categories.
// @Router /exercises/categories [get]
func (h *ExerciseHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.exerciseService.Categories())
}

// BrowseCategory fetches a category from the catalog, caching what it returns.
// @Router /exercises/categories/{type} [get]
func (h *ExerciseHandler) BrowseCategory(c *gin.Context) {
	exercises, err := h.exerciseService.Browse(c.Request.Context(), c.Param("type"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// Search looks an exercise name up in the catalog.
// @Router /exercises/search [get]
func (h *ExerciseHandler) Search(c *gin.Context) {
	exercises, err := h.exerciseService.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// ListCached lists locally stored exercises of one type.
// @Router /exercises/cached [get]
func (h *ExerciseHandler) ListCached(c *gin.Context) {
	exercises, err := h.exerciseService.ListCached(c.Request.Context(), c.Query("type"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// GetExercise returns one cached exercise.
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exercise, err := h.exerciseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}
