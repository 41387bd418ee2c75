package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"parkreserve/internal/api"
	"parkreserve/internal/db"
	"parkreserve/internal/repository"
	"parkreserve/internal/service"
)

func main() {
	godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := conn.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(conn)
	slotRepo := repository.NewSlotRepository(conn)
	vehicleRepo := repository.NewVehicleRepository(conn)
	planRepo := repository.NewPlanRepository(conn)
	bookingRepo := repository.NewBookingRepository(conn)
	paymentRepo := repository.NewPaymentRepository(conn)
	logRepo := repository.NewLogRepository(conn)

	var gateway service.CheckoutGateway
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		stripe.Key = key
		gateway = service.NewStripeService(
			os.Getenv("STRIPE_SUCCESS_URL"),
			os.Getenv("STRIPE_CANCEL_URL"),
		)
	} else {
		log.Println("STRIPE_SECRET_KEY not set, online checkout disabled")
	}

	authSvc := service.NewAuthService(userRepo, jwtSecret)
	slotSvc := service.NewSlotService(slotRepo, logRepo)
	vehicleSvc := service.NewVehicleService(vehicleRepo, logRepo)
	planSvc := service.NewPlanService(planRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, gateway)
	sender := service.NewSenderService(userRepo)
	bookingSvc := service.NewBookingService(
		bookingRepo,
		slotRepo,
		vehicleRepo,
		planRepo,
		paymentSvc,
		sender,
		service.NewTicketRenderer(),
		logRepo,
		service.DefaultPolicy(),
	)
	jobSvc := service.NewJobService(bookingSvc)

	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		if err := authSvc.SeedAdmin(context.Background(), email, os.Getenv("ADMIN_PASSWORD")); err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
	}

	router := api.NewRouter(api.Handlers{
		Auth:     api.NewAuthHandler(authSvc),
		Slots:    api.NewSlotHandler(slotSvc),
		Vehicles: api.NewVehicleHandler(vehicleSvc),
		Plans:    api.NewPlanHandler(planSvc),
		Bookings: api.NewBookingHandler(bookingSvc),
		Payments: api.NewPaymentHandler(paymentSvc),
		Logs:     api.NewLogHandler(logRepo),
	}, jwtSecret)

	c := cron.New()
	c.AddFunc("*/15 * * * *", func() {
		if err := jobSvc.SweepBookings(context.Background()); err != nil {
			log.Printf("Cron Job: sweep failed: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(router))))
}
