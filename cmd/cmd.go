package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"the-arch-backend/internal/config"
	"the-arch-backend/internal/handlers"
	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/repository"
	"the-arch-backend/internal/scheduler"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Apply schema
	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	archRepo := repository.NewArchRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	postRepo := repository.NewPostRepository(db)
	eventRepo := repository.NewGetTogetherRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Push provider
	var provider services.PushProvider = services.NopProvider{}
	if cfg.APNs.Enabled {
		apns, err := services.NewAPNsProvider(cfg.APNs.CertFile, cfg.APNs.CertPass, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs provider")
		}
		provider = apns
	}

	// Initialize services
	wsHub := services.NewWSHub()
	notifier := services.NewNotificationService(userRepo, archRepo, provider)
	userService := services.NewUserService(userRepo, archRepo, questionRepo, messageRepo, eventRepo, cfg.JWT.Secret)
	archService := services.NewArchService(archRepo, userRepo, questionRepo, postRepo, eventRepo, notifier, wsHub)
	questionService := services.NewQuestionService(questionRepo, archRepo, notifier, cfg.Scheduler.RetentionDays)
	feedService := services.NewFeedService(postRepo, questionRepo, archRepo)
	postService := services.NewPostService(postRepo, archRepo, userRepo, notifier, wsHub)
	eventService := services.NewGetTogetherService(eventRepo, archRepo, userRepo, notifier, wsHub)
	messageService := services.NewMessageService(messageRepo, archRepo, userRepo, notifier, wsHub)
	mediaService, err := services.NewMediaService(archRepo, cfg.AWS.Region, cfg.AWS.S3Bucket, cfg.AWS.AccessKey, cfg.AWS.SecretKey, cfg.AWS.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}

	// Scheduler
	var sched *scheduler.Scheduler
	if !cfg.Scheduler.Disabled {
		sched, err = scheduler.New(cfg.Scheduler, scheduler.Jobs{
			CreateQuestions:  questionService.CreateDailyQuestions,
			ProcessQuestions: questionService.ProcessDailyQuestions,
			SendReminders:    questionService.SendReminders,
			Cleanup:          questionService.CleanupOldQuestions,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create scheduler")
		}
		sched.Start()
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, archService)
	archHandler := handlers.NewArchHandler(archService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	postHandler := handlers.NewPostHandler(postService, feedService, questionService)
	eventHandler := handlers.NewGetTogetherHandler(eventService)
	messageHandler := handlers.NewMessageHandler(messageService)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, archService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(userService))

			r.Route("/auth", func(r chi.Router) {
				r.Get("/me", authHandler.Me)
				r.Post("/push-token", authHandler.SetPushToken)
				r.Delete("/push-token", authHandler.ClearPushToken)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", userHandler.GetProfile)
				r.Put("/profile", userHandler.UpdateProfile)
				r.Put("/notification-settings", userHandler.UpdateNotificationSettings)
				r.Put("/password", userHandler.ChangePassword)
				r.Get("/search", userHandler.Search)
				r.Get("/dashboard", userHandler.Dashboard)
				r.Post("/leave-arch/{archID}", userHandler.LeaveArch)
				r.Delete("/account", userHandler.DeleteAccount)
			})

			r.Route("/arches", func(r chi.Router) {
				r.Post("/", archHandler.Create)
				r.Post("/join", archHandler.Join)
				r.Get("/", archHandler.List)
				r.Get("/{archID}", archHandler.Get)
				r.Put("/{archID}", archHandler.Update)
				r.Put("/{archID}/members/{userID}/role", archHandler.ChangeMemberRole)
				r.Delete("/{archID}/members/{userID}", archHandler.RemoveMember)
				r.Post("/{archID}/regenerate-invite", archHandler.RegenerateInvite)
				r.Delete("/{archID}", archHandler.Delete)
				r.Get("/{archID}/activity", archHandler.Activity)
				r.Get("/{archID}/stats", archHandler.Stats)
			})

			r.Route("/questions", func(r chi.Router) {
				r.Get("/today", questionHandler.Today)
				r.Get("/about-me", questionHandler.AboutMe)
				r.Post("/{questionID}/respond", questionHandler.Respond)
				r.Post("/{questionID}/pass", questionHandler.Pass)
				r.Delete("/{questionID}/response", questionHandler.Retract)
				r.Get("/arch/{archID}", questionHandler.ForArch)
				r.Get("/arch/{archID}/stats", questionHandler.ArchStats)
			})

			r.Route("/responses", func(r chi.Router) {
				r.Post("/{responseID}/share", questionHandler.Share)
				r.Get("/question/{questionID}", questionHandler.Responses)
				r.Get("/user/history", questionHandler.History)
				r.Get("/user/stats", questionHandler.UserStats)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/feed/{archID}", postHandler.Feed)
				r.Post("/", postHandler.Create)
				r.Get("/{postID}", postHandler.Get)
				r.Post("/{postID}/like", postHandler.Like)
				r.Post("/{postID}/comment", postHandler.Comment)
				r.Delete("/{postID}", postHandler.Delete)
				r.Post("/share-response/{responseID}", postHandler.ShareResponse)
			})

			r.Route("/gettogethers", func(r chi.Router) {
				r.Get("/", eventHandler.List)
				r.Post("/", eventHandler.Create)
				r.Get("/{id}", eventHandler.Get)
				r.Put("/{id}", eventHandler.Update)
				r.Delete("/{id}", eventHandler.Delete)
				r.Post("/{id}/rsvp", eventHandler.RSVP)
				r.Post("/{id}/timeline", eventHandler.AddTimelineEntry)
				r.Get("/{id}/stats", eventHandler.Stats)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", messageHandler.Send)
				r.Get("/conversation/{archID}/{userID}", messageHandler.Conversation)
				r.Get("/conversations/{archID}", messageHandler.Conversations)
				r.Get("/search/{archID}/{userID}", messageHandler.Search)
				r.Put("/{messageID}/read", messageHandler.MarkRead)
				r.Put("/read-all/{archID}/{senderID}", messageHandler.MarkAllRead)
				r.Delete("/{messageID}", messageHandler.Delete)
				r.Get("/stats/{archID}", messageHandler.Stats)
			})

			r.Post("/media/upload-url", mediaHandler.GetUploadURL)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
