package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	attendancehandler "github.com/karobar-labs/karobar-backend/internal/attendance/handler"
	attendancerepo "github.com/karobar-labs/karobar-backend/internal/attendance/repository"
	attendanceservice "github.com/karobar-labs/karobar-backend/internal/attendance/service"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/internal/auth/jwt"
	ledgerhandler "github.com/karobar-labs/karobar-backend/internal/ledger/handler"
	ledgerrepo "github.com/karobar-labs/karobar-backend/internal/ledger/repository"
	ledgerservice "github.com/karobar-labs/karobar-backend/internal/ledger/service"
	"github.com/karobar-labs/karobar-backend/internal/notification"
	staffhandler "github.com/karobar-labs/karobar-backend/internal/staff/handler"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	staffservice "github.com/karobar-labs/karobar-backend/internal/staff/service"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/config"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("karobar-backend", cfg.Server.Environment)
	log.Info().Msg("starting Karobar backend")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publishers
	attendancePublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "karobar-backend", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create attendance event publisher")
	}
	ledgerPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeLedgerEvents, "karobar-backend", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ledger event publisher")
	}
	notificationPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeNotificationEvents, "karobar-backend", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create notification event publisher")
	}
	notifier := notification.NewDispatcher(notificationPublisher, log)

	// Initialize repositories
	businessRepo := staffrepo.NewBusinessRepository(db)
	employeeRepo := staffrepo.NewEmployeeRepository(db)
	sessionRepo := attendancerepo.NewSessionRepository(db)
	attendanceRepo := attendancerepo.NewAttendanceRepository(db)
	holidayRepo := attendancerepo.NewHolidayRepository(db)
	customerRepo := ledgerrepo.NewCustomerRepository(db)
	saleRepo := ledgerrepo.NewSaleRepository(db)
	paymentRepo := ledgerrepo.NewPaymentRepository(db)

	// Initialize services
	clock := civiltime.SystemClock{}
	businessService := staffservice.NewBusinessService(businessRepo, log)
	employeeService := staffservice.NewEmployeeService(employeeRepo, businessRepo, log)
	sessionService := attendanceservice.NewSessionService(sessionRepo, businessRepo, cfg.Session.TTL, clock, log)
	attendanceService := attendanceservice.NewAttendanceService(
		attendanceRepo, sessionRepo, holidayRepo, employeeRepo, businessRepo,
		attendancePublisher, notifier, clock, log,
	)
	holidayService := attendanceservice.NewHolidayService(db, holidayRepo, attendanceRepo, businessRepo, attendancePublisher, log)
	customerService := ledgerservice.NewCustomerService(customerRepo, businessRepo, log)
	ledgerService := ledgerservice.NewLedgerService(db, customerRepo, saleRepo, paymentRepo, ledgerPublisher, clock, log)

	// Initialize handlers
	businessHandler := staffhandler.NewBusinessHandler(businessService, log)
	employeeHandler := staffhandler.NewEmployeeHandler(employeeService, log)
	sessionHandler := attendancehandler.NewSessionHandler(sessionService, log)
	attendanceHandler := attendancehandler.NewAttendanceHandler(attendanceService, log)
	holidayHandler := attendancehandler.NewHolidayHandler(holidayService, log)
	customerHandler := ledgerhandler.NewCustomerHandler(customerService, log)
	ledgerHandler := ledgerhandler.NewLedgerHandler(ledgerService, log)

	jwtManager := jwt.NewManager(&cfg.JWT)
	authenticate := auth.Middleware(jwtManager)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "karobar-backend",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		// Owner routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(jwt.RoleOwner))

			r.Route("/businesses", func(r chi.Router) {
				r.Post("/", businessHandler.Create)
				r.Get("/me", businessHandler.GetMine)
				r.Put("/{businessID}", businessHandler.Update)
				r.Post("/{businessID}/attendance/session", sessionHandler.Issue)
				r.Get("/{businessID}/attendance/summary", attendanceHandler.Summary)
				r.Route("/{businessID}/holidays", func(r chi.Router) {
					r.Get("/", holidayHandler.List)
					r.Post("/", holidayHandler.Mark)
					r.Delete("/{date}", holidayHandler.Unmark)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeHandler.List)
				r.Post("/", employeeHandler.Create)
				r.Get("/{employeeID}", employeeHandler.Get)
				r.Put("/{employeeID}", employeeHandler.Update)
				r.Delete("/{employeeID}", employeeHandler.Deactivate)
				r.Get("/{employeeID}/attendance", attendanceHandler.History)
				r.Post("/{employeeID}/attendance/check-in", attendanceHandler.CheckInDirect)
				r.Post("/{employeeID}/attendance/check-out", attendanceHandler.CheckOutDirect)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Get("/", ledgerHandler.ListSales)
				r.Post("/", ledgerHandler.RecordSale)
				r.Put("/{saleID}", ledgerHandler.UpdateSale)
				r.Delete("/{saleID}", ledgerHandler.DeleteSale)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", ledgerHandler.ListPayments)
				r.Post("/", ledgerHandler.RecordPayment)
				r.Put("/{paymentID}", ledgerHandler.UpdatePayment)
				r.Delete("/{paymentID}", ledgerHandler.DeletePayment)
			})
		})

		// Attendance routes, split between owner corrections and
		// employee self-service
		r.Route("/attendance", func(r chi.Router) {
			owner := auth.RequireRole(jwt.RoleOwner)
			employee := auth.RequireRole(jwt.RoleEmployee)

			r.With(owner).Post("/manual", attendanceHandler.MarkManual)
			r.With(owner).Post("/date", attendanceHandler.MarkForDate)
			r.With(employee).Post("/check-in", attendanceHandler.CheckIn)
			r.With(employee).Post("/check-out", attendanceHandler.CheckOut)
			r.With(employee).Get("/me", attendanceHandler.HistorySelf)
			r.With(employee).Get("/holidays", holidayHandler.ListSelf)
		})

		// Customer routes, owner CRUD plus the customer self view
		r.Route("/customers", func(r chi.Router) {
			owner := auth.RequireRole(jwt.RoleOwner)

			r.With(auth.RequireRole(jwt.RoleCustomer)).Get("/me", customerHandler.Self)
			r.With(owner).Get("/", customerHandler.List)
			r.With(owner).Post("/", customerHandler.Create)
			r.With(owner).Get("/{customerID}", customerHandler.Get)
			r.With(owner).Put("/{customerID}", customerHandler.Update)
			r.With(owner).Delete("/{customerID}", customerHandler.Deactivate)
			r.With(owner).Get("/{customerID}/sales", ledgerHandler.SaleHistory)
			r.With(owner).Get("/{customerID}/payments", ledgerHandler.PaymentHistory)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
