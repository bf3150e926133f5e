package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pharmapos/m/internal/api"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/jobs"
	"pharmapos/m/internal/logger"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/seed"
	"pharmapos/m/internal/service"
)

const shutdownTimeout = 15 * time.Second

// app is the state shared by every subcommand once the root command has run.
type app struct {
	cfg config.Config
	log *zap.Logger
	db  *sqlx.DB
}

func main() {
	_ = godotenv.Load()

	a := &app{}
	root := &cobra.Command{
		Use:           "pharmapos",
		Short:         "Pharmacy point-of-sale backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(a.serveCmd(), a.migrateCmd(), a.seedCmd(), a.reportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}

func (a *app) open() error {
	a.cfg = config.Load()
	a.log = logger.New(a.cfg.Log, a.cfg.IsDevelopment())

	db, err := database.Connect(a.cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	a.db = db
	return migrations.Run(db)
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) services() *service.Services {
	return service.New(a.db, a.log, service.Options{
		Location:            a.cfg.Location(),
		ReorderLeadDays:     a.cfg.ReorderLeadDays,
		ReorderCoverageDays: a.cfg.ReorderCoverageDays,
	})
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	svc := a.services()

	if _, err := svc.Users.EnsureAdmin(ctx, a.cfg.Admin.Username, a.cfg.Admin.Password); err != nil {
		return err
	}

	if a.cfg.SeedCatalog != "" {
		if _, err := seed.LoadMedicines(ctx, a.db, a.cfg.SeedCatalog, a.log); err != nil {
			a.log.Error("catalog seed failed", zap.String("file", a.cfg.SeedCatalog), zap.Error(err))
		}
	}

	if a.cfg.Jobs.Enabled {
		scheduler := jobs.New(svc.Medicines, a.cfg.Location(), a.log)
		if err := scheduler.Start(a.cfg.Jobs.ExpirySweepSpec, a.cfg.Jobs.LowStockSpec); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	handler := api.New(a.db, svc, a.log, api.Options{
		Secret:      a.cfg.Secret,
		TokenTTL:    a.cfg.TokenTTL,
		CORSOrigins: a.cfg.CORSOrigins,
	})
	server := &http.Server{
		Addr:              ":" + a.cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("pharmacy POS server starting", zap.String("addr", server.Addr), zap.String("env", a.cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(server.Shutdown(shutdownCtx), "shutdown http server")
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Info("schema is up to date", zap.String("dsn", a.cfg.DatabaseDSN))
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a medicine catalog from CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := seed.LoadMedicines(cmd.Context(), a.db, file, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d medicines\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog CSV path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
