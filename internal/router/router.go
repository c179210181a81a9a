package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/middleware"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	Handler        *handlers.Handler
	JWT            *auth.JWTManager
	Authenticator  middleware.Authenticator
	AllowedOrigins []string
	Logger         *log.Logger
}

func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	r := gin.New()

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.ErrorHandler(logger))

	h := opts.Handler
	requireAuth := middleware.AuthMiddleware(opts.JWT, opts.Authenticator)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws", requireAuth, h.WebSocket)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.CreateUser)
			authGroup.POST("/login", h.LoginUser)
			authGroup.POST("/logout", requireAuth, h.LogoutUser)
			authGroup.GET("/me", requireAuth, h.Me)
		}

		task := api.Group("/task")
		{
			task.POST("/create", requireAuth, h.CreateTask)
			task.GET("/user-tasks", requireAuth, h.GetUserTasks)
			task.PATCH("/update-task/:task_id", requireAuth, h.UpdateTask)
			task.PATCH("/update-task/:task_id/checklist/:item_index", requireAuth, h.UpdateChecklistItem)
			task.DELETE("/delete/:task_id", requireAuth, h.DeleteTask)
			task.POST("/share-board", requireAuth, h.ShareBoard)
			task.GET("/board-shares", requireAuth, h.GetBoardShares)
			task.GET("/allAssigneeEmails", requireAuth, h.GetEmailsForAssign)

			// Public so a task link can be opened without an account.
			task.GET("/:task_id", h.GetTask)
		}

		user := api.Group("/user", requireAuth)
		{
			user.PATCH("/update-user", h.UpdateUser)
			user.GET("/username", h.GetUserName)
			user.GET("/get-analytics", h.GetUserAnalytics)
		}
	}

	return r
}
