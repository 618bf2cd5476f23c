package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nutridash/nutridash/internal/config"
	"github.com/nutridash/nutridash/internal/domain/nutrition"
	"github.com/nutridash/nutridash/internal/domain/patient"
	"github.com/nutridash/nutridash/internal/platform/auth"
	"github.com/nutridash/nutridash/internal/platform/db"
	"github.com/nutridash/nutridash/internal/platform/foodfinder"
	"github.com/nutridash/nutridash/internal/platform/middleware"
)

// PatientDirectoryAdapter adapts the patient service to the
// nutrition.PatientDirectory interface, avoiding circular imports
// between the patient and nutrition packages.
type PatientDirectoryAdapter struct {
	svc *patient.Service
}

func NewPatientDirectoryAdapter(svc *patient.Service) *PatientDirectoryAdapter {
	return &PatientDirectoryAdapter{svc: svc}
}

// Profile implements nutrition.PatientDirectory.
func (a *PatientDirectoryAdapter) Profile(ctx context.Context, id uuid.UUID) (*nutrition.Profile, error) {
	p, err := a.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, nutrition.ErrNotFound
		}
		return nil, err
	}
	return &nutrition.Profile{
		ID:         p.ID,
		Name:       p.Name,
		City:       p.City,
		EnergyUnit: p.EnergyUnit,
		Goals: nutrition.Goals{
			EnergyKcal:   float64(p.EnergyGoalKcal),
			Protein:      p.ProteinGoalG,
			Carbohydrate: p.CarbGoalG,
			Fat:          p.FatGoalG,
			Fiber:        p.FiberGoalG,
		},
		State: p.NutritionState,
	}, nil
}

// SaveState implements nutrition.PatientDirectory.
func (a *PatientDirectoryAdapter) SaveState(ctx context.Context, id uuid.UUID, state json.RawMessage) error {
	return a.svc.UpdateNutritionState(ctx, id, state)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "nutridash-server",
		Short: "Nutrition tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && cfg.AuthSecret == "" {
		e.Use(auth.DevMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(cfg.AuthSecret))
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		status := "ok"
		code := http.StatusOK
		if err := db.Health(c.Request().Context(), pool); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]string{
			"status":  status,
			"version": "0.1.0",
		})
	})

	// Domain wiring
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)
	patientHandler := patient.NewHandler(patientSvc)

	finder := foodfinder.NewClient(cfg.FoodFinderURL, cfg.FoodFinderCity, logger)
	directory := NewPatientDirectoryAdapter(patientSvc)
	nutritionSvc := nutrition.NewService(directory, finder, logger)
	nutritionHandler := nutrition.NewHandler(nutritionSvc)

	apiV1 := e.Group("/api/v1")
	patientHandler.RegisterRoutes(apiV1)
	nutritionHandler.RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
