package main

import (
	"log"
	"net/http"

	"runny/backend/internal/auth"
	"runny/backend/internal/config"
	"runny/backend/internal/database"
	"runny/backend/internal/handler"
	"runny/backend/internal/hub"
	"runny/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	// Swagger imports
	_ "runny/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Runny API
// @version         1.0
// @description     This is the API for the Runny service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to the database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("database connected and migrated")

	// Wire the services with their dependencies
	store := database.NewStore(db)
	liveHub := hub.New()
	notifications := service.NewNotificationService(store, liveHub, logger)
	connections := service.NewConnectionService(store, store, notifications, logger)
	runs := service.NewRunService(store, store, notifications, logger)

	userHandler := handler.NewUserHandler(db, connections)
	connectionHandler := handler.NewConnectionHandler(connections)
	notificationHandler := handler.NewNotificationHandler(notifications, liveHub)
	runHandler := handler.NewRunHandler(db, runs)
	messageHandler := handler.NewMessageHandler(db, connections, liveHub)
	interestHandler := handler.NewInterestHandler(db)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", userHandler.Register)
			authRoutes.POST("/login", userHandler.Login)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", userHandler.SearchUsers) // Must be before /:id
			userRoutes.GET("/nearby", userHandler.NearbyUsers)
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.PUT("/me", userHandler.UpdateMe)
			userRoutes.GET("/:id", userHandler.GetUserByID)

			// Connection workflow routes keyed by the other user
			userRoutes.POST("/:id/request", connectionHandler.SendRequest)
			userRoutes.POST("/:id/cancel", connectionHandler.CancelRequest)
			userRoutes.POST("/:id/remove", connectionHandler.RemoveConnection)
		}

		// Connection workflow routes keyed by request id (protected)
		connectionRoutes := apiV1.Group("/connections")
		connectionRoutes.Use(auth.AuthMiddleware())
		{
			connectionRoutes.GET("/requests", connectionHandler.ListRequests)
			connectionRoutes.POST("/:id/accept", connectionHandler.AcceptRequest)
			connectionRoutes.POST("/:id/decline", connectionHandler.DeclineRequest)
		}

		// Notification routes (protected)
		notificationRoutes := apiV1.Group("/notifications")
		notificationRoutes.Use(auth.AuthMiddleware())
		{
			notificationRoutes.GET("", notificationHandler.List)
			notificationRoutes.GET("/unread-count", notificationHandler.UnreadCount)
			notificationRoutes.GET("/stream", notificationHandler.Stream)
			notificationRoutes.POST("/:id/read", notificationHandler.MarkRead)
		}

		// Run routes (protected)
		runRoutes := apiV1.Group("/runs")
		runRoutes.Use(auth.AuthMiddleware())
		{
			runRoutes.POST("", runHandler.CreateRun)
			runRoutes.GET("", runHandler.SearchRuns)
			runRoutes.GET("/:id", runHandler.GetRunByID)
			runRoutes.POST("/:id/join", runHandler.RequestJoin)
			runRoutes.GET("/:id/requests", runHandler.ListJoinRequests)
			runRoutes.POST("/:id/requests/:userID/accept", runHandler.AcceptJoinRequest)
			runRoutes.POST("/:id/requests/:userID/decline", runHandler.DeclineJoinRequest)
			runRoutes.POST("/:id/leave", runHandler.LeaveRun)
		}

		// Message routes (protected)
		messageRoutes := apiV1.Group("/messages")
		messageRoutes.Use(auth.AuthMiddleware())
		{
			messageRoutes.POST("/:id", messageHandler.SendMessage)
			messageRoutes.GET("/:id", messageHandler.ListConversation)
		}

		// Interest routes (protected)
		interestRoutes := apiV1.Group("/interests")
		interestRoutes.Use(auth.AuthMiddleware())
		{
			interestRoutes.GET("", interestHandler.List)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware(db))
		{
			// Interests CRUD
			interests := adminRoutes.Group("/interests")
			{
				interests.POST("", interestHandler.Create)
				interests.PUT("/:id", interestHandler.Update)
				interests.DELETE("/:id", interestHandler.Delete)
			}
		}
	}

	logger.Info("server starting",
		zap.String("addr", config.AppConfig.ListenAddr),
		zap.String("swagger", "http://localhost"+config.AppConfig.ListenAddr+"/swagger/index.html"))
	log.Fatal(router.Run(config.AppConfig.ListenAddr))
}
