package api

import (
	"alcyxob/fitness-log/internal/service"
	"alcyxob/fitness-log/internal/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(
	router *gin.Engine,
	log *logrus.Logger,
	sessions *session.Manager,
	memberService service.MemberService,
	exerciseService service.ExerciseService,
	workoutService service.WorkoutService,
) {
	authHandler := NewAuthHandler(memberService, sessions, log)
	memberHandler := NewMemberHandler(memberService, workoutService, sessions, log)
	exerciseHandler := NewExerciseHandler(exerciseService, log)
	workoutHandler := NewWorkoutHandler(workoutService, log)

	requireMember := RequireMember(sessions, memberService, log)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", requireMember, authHandler.Logout)
		}
	}

	protected := apiV1.Group("")
	protected.Use(requireMember)
	{
		// --- Member Routes ---
		memberGroup := protected.Group("/members")
		{
			memberGroup.GET("/me", memberHandler.GetMe)
			memberGroup.PATCH("/me", memberHandler.UpdateMe)
			memberGroup.DELETE("/me", memberHandler.DeleteMe)
			memberGroup.POST("/me/avatar", memberHandler.RequestAvatarUpload)
			memberGroup.GET("/:id", memberHandler.GetProfile)
		}

		// --- Exercise Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("/categories", exerciseHandler.GetCategories)
			exerciseGroup.GET("/categories/:type", exerciseHandler.BrowseCategory)
			exerciseGroup.GET("/search", exerciseHandler.Search)
			exerciseGroup.GET("/cached", exerciseHandler.ListCached)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
		}

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("", workoutHandler.ListMine)
			workoutGroup.POST("/today/exercises", workoutHandler.AddToToday)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
		}
	}
}
