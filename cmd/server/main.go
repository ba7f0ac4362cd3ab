package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"social_messenger/internal/config"
	"social_messenger/internal/handler"
	"social_messenger/internal/hub"
	"social_messenger/internal/middleware"
	"social_messenger/internal/repository"
	"social_messenger/internal/service"
	"social_messenger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)
	log.Info("Starting server", "environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := connectPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	repos := repository.NewRepositories(db, redisClient, cfg.Presence.TTL, log)

	roomHub := hub.New(repos.User, log)
	go roomHub.Run(ctx)

	services := service.NewServices(repos, roomHub, cfg, log)
	handlers := handler.NewHandlers(services, roomHub, db, redisClient, log)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, log)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, log)

	router := setupRouter(cfg, handlers, authMiddleware, rateLimitMiddleware, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}

	log.Info("Server stopped")
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MaxConnIdleTime = cfg.MaxIdleTime
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func setupRouter(
	cfg *config.Config,
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)
	router.GET("/ws", handlers.WebSocket.HandleConnection)

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.Use(rateLimitMiddleware.Limit(20, time.Minute))
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/refresh", handlers.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", handlers.Auth.Logout)
		protected.POST("/auth/change-password", handlers.Auth.ChangePassword)

		users := protected.Group("/users")
		{
			users.GET("/me", handlers.User.GetMe)
			users.PUT("/me", handlers.User.UpdateMe)
			users.GET("/:id", handlers.User.GetByID)
		}

		chats := protected.Group("/chats")
		{
			chats.POST("", handlers.Chat.CreateChat)
			chats.POST("/group", handlers.Chat.CreateGroup)
			chats.GET("", handlers.Chat.ListChats)
			chats.GET("/search", handlers.Chat.Search)
			chats.DELETE("/:id", handlers.Chat.Delete)
			chats.PUT("/:id/name", handlers.Chat.Rename)
			chats.POST("/:id/members", handlers.Chat.AddMember)
			chats.DELETE("/:id/members/:memberId", handlers.Chat.RemoveMember)
		}

		messages := protected.Group("/messages")
		{
			messages.POST("", handlers.Message.Create)
			messages.GET("/chat/:chatId", handlers.Message.ListByChat)
			messages.PUT("/:id", handlers.Message.Update)
			messages.DELETE("/:id", handlers.Message.Delete)
			messages.POST("/:id/read", handlers.Message.MarkRead)
		}

		friends := protected.Group("/friends")
		{
			friends.POST("/requests", handlers.Friend.SendRequest)
			friends.GET("/requests", handlers.Friend.ListRequests)
			friends.POST("/requests/:id/accept", handlers.Friend.Accept)
			friends.POST("/requests/:id/reject", handlers.Friend.Reject)
			friends.GET("", handlers.Friend.ListFriends)
			friends.GET("/check/:userId", handlers.Friend.Check)
			friends.DELETE("/:userId", handlers.Friend.Remove)
		}

		posts := protected.Group("/posts")
		{
			posts.POST("", handlers.Post.Create)
			posts.GET("/feed", handlers.Post.Feed)
			posts.PUT("/:id", handlers.Post.Update)
			posts.DELETE("/:id", handlers.Post.Delete)
			posts.POST("/:id/like", handlers.Post.Like)
			posts.POST("/:id/comments", handlers.Post.AddComment)
			posts.GET("/:id/comments", handlers.Post.GetComments)
			posts.DELETE("/comments/:commentId", handlers.Post.DeleteComment)
		}
	}

	return router
}
