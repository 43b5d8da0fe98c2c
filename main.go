package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harvestlink/db"
	"harvestlink/middleware"
	"harvestlink/orders"
	"harvestlink/rdx"
	"harvestlink/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Security headers middleware
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Middleware: Simple request logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[%s] %s %s", r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Write([]byte("200"))
}

// Set up all routes and middleware layers
func setupRouter() http.Handler {
	router := httprouter.New()
	router.GET("/health", health)

	routes.AddAuthRoutes(router)
	routes.AddFavoriteRoutes(router)
	routes.AddHomeRoutes(router)
	routes.AddListingRoutes(router)
	routes.AddOrderRoutes(router)
	routes.AddPoolRoutes(router)
	routes.AddProfileRoutes(router)
	routes.AddRatingRoutes(router)
	routes.AddStaticRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.RecoverMiddleware(loggingMiddleware(securityHeaders(c.Handler(router))))
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatalf("MONGODB_URI environment variable is not set")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := db.Connect(connectCtx, mongoURI); err != nil {
		connectCancel()
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	connectCancel()
	log.Println("Connected to MongoDB")

	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Printf("Mongo disconnect failed: %v", err)
		}
	}()

	// Cache is optional; handlers fall back to Mongo when it is down.
	_ = rdx.Connect(context.Background())
	defer rdx.Close()

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := orders.NewSweeper()
	go sweeper.Run(sweepCtx)

	handler := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server started on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on port %s: %v", port, err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan

	log.Println("🛑 Shutdown signal received. Shutting down gracefully...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server shutdown failed: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
