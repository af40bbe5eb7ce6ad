package routes

import (
	"net/http"

	"github.com/01moynul/projectforge-golang/internal/handlers"
	"github.com/01moynul/projectforge-golang/internal/logging"
	"github.com/01moynul/projectforge-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func SetupRouter(h *handlers.Handlers, allowedOrigin string) *gin.Engine {
	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register request validators")
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger())

	// --- APPLY THE CORS GUARD ---
	router.Use(middleware.CORSMiddleware(allowedOrigin))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// --- Gateway Webhook (Public, signature verified) ---
	router.POST("/payments/webhook", h.RazorpayWebhook)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/admins/register", h.RegisterAdmin)
		v1.POST("/admins/login", h.Login)

		// --- Public Subscription Routes ---
		v1.GET("/subscriptions/plans", h.GetSubscriptionPlans)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.Tokens))
		{
			auth.GET("/subscriptions/me", h.GetMySubscription)
			auth.GET("/subscriptions/me/events", h.GetMySubscriptionEvents)
			auth.POST("/subscriptions", h.CreateSubscription)
			auth.POST("/subscriptions/:id/cancel", h.CancelSubscription)

			auth.POST("/employees", h.CreateEmployee)
			auth.GET("/employees", h.GetMyEmployees)

			auth.POST("/projects", h.CreateProject)
			auth.GET("/projects", h.GetMyProjects)
			auth.POST("/projects/:id/tasks", h.CreateTask)
			auth.GET("/projects/:id/tasks", h.GetProjectTasks)

			auth.POST("/documents", h.CreateDocument)
			auth.GET("/documents", h.GetMyDocuments)

			auth.POST("/research", h.RunResearch)
			auth.GET("/research", h.GetMyResearch)
		}
	}

	return router
}
