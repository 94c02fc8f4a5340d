package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/interview-prep/backend/internal/completion"
	"github.com/interview-prep/backend/internal/config"
	"github.com/interview-prep/backend/internal/database"
	"github.com/interview-prep/backend/internal/middleware"
	"github.com/interview-prep/backend/internal/questions"
	"github.com/interview-prep/backend/internal/similarity"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.FindConfigPath(""))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("config error: %v", e)
		}
		log.Fatalf("Invalid configuration")
	}
	if cfg.Server.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is required")
	}

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Completion client; nil means lexical scoring only
	client, model, err := completion.NewFromConfig(cfg.Completion)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}
	client, closeCache := completion.WithCache(ctx, client, cfg.Redis, model)
	defer closeCache()

	// Initialize services
	store := questions.NewStore(db)
	checker := similarity.NewChecker(cfg.Similarity, client, store)
	questionHandler := questions.NewHandler(questions.NewService(store, checker, cfg.Import.MaxQuestions))

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.NewAuth(cfg.Server.JWTSecret).RequireAdmin)
	questionHandler.RegisterRoutes(admin)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("WARN: shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on :%s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	log.Printf("Server stopped")
}
