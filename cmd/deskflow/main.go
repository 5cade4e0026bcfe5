// Command deskflow runs the ticketing API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskflow-io/deskflow/internal/api"
	"github.com/deskflow-io/deskflow/internal/auth"
	"github.com/deskflow-io/deskflow/internal/config"
	"github.com/deskflow-io/deskflow/internal/database"
	"github.com/deskflow-io/deskflow/internal/notifications"
	"github.com/deskflow-io/deskflow/internal/outbox"
	"github.com/deskflow-io/deskflow/internal/repository"
	"github.com/deskflow-io/deskflow/internal/service"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "deskflow",
		Short: "Multi-tenant ticketing API",
	}

	var configPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the notification poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serve.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(serve)
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	tickets := repository.NewTicketRepository(db)
	comments := repository.NewCommentRepository(db)
	events := repository.NewEventRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	projects := repository.NewProjectRepository(db)
	clients := repository.NewClientRepository(db)
	users := repository.NewUserRepository(db)
	lookups := repository.NewLookupRepository(db)
	dashboards := repository.NewDashboardRepository(db)

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := api.NewServer(
		service.NewAuthService(users, jwt),
		service.NewTicketService(db, tickets, projects, users, events, outboxRepo),
		service.NewCommentService(db, tickets, comments, events, outboxRepo),
		service.NewDashboardService(dashboards),
		service.NewOrgService(clients, projects, users, lookups),
		jwt,
	)

	notifier := notifications.NewNotifier(users, notifications.NewSMTPProvider(&cfg.Email))
	poller := outbox.NewPoller(outboxRepo, notifier, cfg.Outbox)
	if err := poller.Start(); err != nil {
		return err
	}
	defer poller.Stop()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
