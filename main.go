package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cruxPassAPI/handlers"
	"cruxPassAPI/internal/database"
	"cruxPassAPI/internal/pricing"
	"cruxPassAPI/internal/razorpay"
	"cruxPassAPI/middleware"
	"cruxPassAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	gateway             *razorpay.Client
	profileService      *services.ProfileService
	gymService          *services.GymService
	subscriptionService *services.SubscriptionService
	orderService        *services.OrderService
	paymentService      *services.PaymentService
	checkinService      *services.CheckinService
	webhookService      *services.WebhookService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	razorpayKeyID := os.Getenv("RAZORPAY_KEY_ID")
	razorpayKeySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	razorpayWebhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	if razorpayKeyID == "" || razorpayKeySecret == "" || razorpayWebhookSecret == "" {
		log.Fatal("RAZORPAY_KEY_ID, RAZORPAY_KEY_SECRET and RAZORPAY_WEBHOOK_SECRET must all be set")
	}
	gateway = razorpay.NewClient(razorpayKeyID, razorpayKeySecret, razorpayWebhookSecret)

	pricing.Configure(
		envBps("PLATFORM_FEE_BPS_DEFAULT", 1000),
		envBps("PLATFORM_FEE_BPS_SUBSCRIBER", 500),
		envBps("GST_RATE_BPS", 1800),
	)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	dbPool, err = database.Connect(ctx, dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	log.Println("Successfully connected to Postgres")

	if err := database.Migrate(ctx, dbPool); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	profileService = services.NewProfileService(dbPool)
	gymService = services.NewGymService(dbPool)
	subscriptionService = services.NewSubscriptionService(dbPool)
	orderService = services.NewOrderService(dbPool, gateway, gymService, profileService, subscriptionService)
	paymentService = services.NewPaymentService(dbPool, gateway, profileService)
	checkinService = services.NewCheckinService(dbPool, gymService, profileService)
	webhookService = services.NewWebhookService(dbPool)

	middleware.InitPrometheus()
}

func envBps(name string, fallback int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	bps, err := strconv.ParseInt(v, 10, 64)
	if err != nil || bps < 0 {
		log.Fatalf("%s must be a non-negative integer, got %q", name, v)
	}
	return bps
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	gymHandler := handlers.NewGymHandler(gymService, subscriptionService, profileService)
	profileHandler := handlers.NewProfileHandler(profileService)
	orderHandler := handlers.NewOrderHandler(orderService, paymentService)
	checkinHandler := handlers.NewCheckinHandler(checkinService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, profileService)
	webhookHandler := handlers.NewWebhookHandler(webhookService, gateway)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "cruxpass-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/razorpay", webhookHandler.HandleRazorpayWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// Gym discovery is public; detail pricing upgrades when a subscriber is
	// signed in, so it carries optional auth.
	api.HandleFunc("/gyms", gymHandler.ListGyms).Methods("GET")

	optional := api.PathPrefix("").Subrouter()
	optional.Use(middleware.OptionalAuthMiddleware)
	optional.HandleFunc("/gyms/{gymId}", gymHandler.GetGym).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/me", profileHandler.GetMe).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")

	protected.HandleFunc("/orders", orderHandler.CreateOrder).Methods("POST")
	protected.HandleFunc("/orders/{orderId}/verify", orderHandler.VerifyPayment).Methods("POST")

	protected.HandleFunc("/checkins/{checkinId}", checkinHandler.GetCheckin).Methods("GET")
	protected.HandleFunc("/checkins/{checkinId}", checkinHandler.CancelCheckin).Methods("POST")
	protected.HandleFunc("/checkins/{checkinId}/confirm", checkinHandler.ConfirmCheckin).Methods("POST")

	protected.HandleFunc("/subscriptions", subscriptionHandler.GetSubscription).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
