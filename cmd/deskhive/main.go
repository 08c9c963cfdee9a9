// Command deskhive runs the helpdesk service: the inbound email webhook, the
// agent API, and the background task runner.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/api"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/database"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/presence"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/runner"
	"github.com/deskhive/deskhive/internal/service"
)

var (
	version = "dev"
	commit  = "none"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "deskhive",
	Short:   "DeskHive customer support helpdesk",
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and background tasks",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stdout, "[deskhive] ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateUp(db); err != nil {
		return err
	}

	customers := repository.NewCustomerRepository(db)
	tickets := repository.NewTicketRepository(db)
	messages := repository.NewMessageRepository(db)
	tags := repository.NewTagRepository(db)
	rules := repository.NewRuleRepository(db)
	brands := repository.NewBrandRepository(db)
	canned := repository.NewCannedResponseRepository(db)
	promos := repository.NewPromoCodeRepository(db)
	resources := repository.NewResourceRepository(db)

	var tracker presence.Tracker = presence.NewMemoryTracker(cfg.Presence.TTL)
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		tracker = presence.NewRedisTracker(client, cfg.Presence.TTL)
		logger.Printf("presence: using redis at %s", cfg.Redis.Addr)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	classifier := service.NewClassifier(rules, tags, tickets, logger)
	ingestion := service.NewIngestion(customers, tickets, messages, brands, classifier, logger)
	ticketSvc := service.NewTickets(tickets, messages, customers, tags, classifier, logger)
	cannedSvc := service.NewCannedResponses(canned)

	router := api.NewRouter(api.Deps{
		Ingestion:  ingestion,
		Tickets:    ticketSvc,
		Canned:     cannedSvc,
		Tags:       tags,
		Rules:      rules,
		Brands:     brands,
		PromoCodes: promos,
		Resources:  resources,
		Presence:   tracker,
		Metrics:    m,
		JWTSecret:  cfg.Auth.JWTSecret,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tasks := runner.New(logger,
		runner.NewSnoozeSweep(tickets, logger),
		runner.NewPresencePrune(tracker),
	)
	if err := tasks.Start(ctx); err != nil {
		return err
	}
	defer tasks.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := database.Connect(cfg.DSN(), database.Options{})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateUp(db); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}
