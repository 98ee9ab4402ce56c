package control

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bqm/internal/control/auth"
)

// Handlers bundles every handler NewRouter wires in; JobsHandler is nil
// when the durable jobqueue isn't enabled, in which case the admin
// routes are simply omitted.
type Handlers struct {
	Auth     *AuthHandler
	Queue    *QueueHandler
	Workflow *WorkflowHandler
	Stream   *StreamHandler
	Jobs     *JobsHandler
}

// NewRouter builds the control-plane gin engine: public auth routes,
// then authenticated queue/workflow/stream/admin routes.
func NewRouter(authSvc *auth.Service, h Handlers) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/healthz", HealthHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/me", authSvc.RequireAuth(), h.Auth.Me)
	}

	v1 := r.Group("/api/v1", authSvc.RequireAuth())
	{
		queues := v1.Group("/queues")
		{
			queues.POST("", h.Queue.CreateQueue)
			queues.GET("", h.Queue.ListQueues)
			queues.POST("/cancel", h.Queue.CancelRun)
			queues.GET("/:id", h.Queue.GetQueue)
			queues.DELETE("/:id", h.Queue.DeleteQueue)
			queues.POST("/:id/items", h.Queue.AddItem)
			queues.POST("/:id/tools", h.Queue.AppendTool)
			queues.POST("/:id/run", h.Queue.RunQueue)
		}

		workflows := v1.Group("/workflows")
		{
			workflows.GET("", h.Workflow.ListWorkflows)
			workflows.GET("/:title", h.Workflow.GetWorkflow)
			workflows.DELETE("/:title", h.Workflow.DeleteWorkflow)
			workflows.POST("/:title/apply", h.Workflow.ApplyWorkflow)
		}

		streams := v1.Group("/streams")
		{
			streams.GET("", h.Stream.ListStreams)
			streams.POST("", h.Stream.StartStream)
			streams.DELETE("/:name", h.Stream.StopStream)
		}

		if h.Jobs != nil {
			admin := v1.Group("/admin/jobs")
			{
				admin.GET("", h.Jobs.ListJobs)
				admin.GET("/stats", h.Jobs.GetJobStats)
				admin.GET("/:id", h.Jobs.GetJob)
			}
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
