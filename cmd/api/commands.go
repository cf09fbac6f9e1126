package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishek622/hiregate/internal/auth"
	"github.com/abhishek622/hiregate/internal/database"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "hiregate",
	Short:         "Hiring workflow engine",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(func(ctx context.Context, app *application) error {
			if migrateFlag {
				if err := database.Migrate(ctx, app.DB); err != nil {
					return err
				}
			}
			if noWorkerFlag {
				go app.Dispatcher.Run(ctx)
				return app.serve(ctx)
			}
			workCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				if err := app.work(workCtx); err != nil {
					app.Logger.Error("worker failed", zap.Error(err))
				}
			}()
			err := app.serve(ctx)
			cancel()
			<-done
			return err
		})
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run scheduled webhook delivery and offer expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(func(ctx context.Context, app *application) error {
			return app.work(ctx)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(func(ctx context.Context, app *application) error {
			if err := database.Migrate(ctx, app.DB); err != nil {
				return err
			}
			app.Logger.Info("migrate: schema applied")
			return nil
		})
	},
}

// tokenCmd mints a bearer token for local testing. Real tokens come from the
// identity service that shares JWT_SECRET.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an actor",
	RunE:  runToken,
}

var (
	migrateFlag  bool
	noWorkerFlag bool

	tokenAgency string
	tokenUser   string
	tokenRole   string
	tokenClient string
	tokenName   string
	tokenTTL    time.Duration
)

func init() {
	serveCmd.Flags().BoolVar(&migrateFlag, "migrate", false, "Apply the schema before serving")
	serveCmd.Flags().BoolVar(&noWorkerFlag, "no-worker", false, "Skip the scheduled jobs; run them with the worker command instead")

	tokenCmd.Flags().StringVar(&tokenAgency, "agency", "", "Agency id")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(model.RoleRecruiter), "recruiter, client or candidate")
	tokenCmd.Flags().StringVar(&tokenClient, "client", "", "Client id (client role only)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("agency")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, tokenCmd)
}

func withApplication(fn func(ctx context.Context, app *application) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()
	return fn(ctx, app)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	actor := model.Actor{Role: model.Role(tokenRole), Name: tokenName}
	if actor.AgencyID, err = uuid.Parse(tokenAgency); err != nil {
		return fmt.Errorf("invalid --agency: %w", err)
	}
	if actor.UserID, err = uuid.Parse(tokenUser); err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}
	if tokenClient != "" {
		id, err := uuid.Parse(tokenClient)
		if err != nil {
			return fmt.Errorf("invalid --client: %w", err)
		}
		actor.ClientID = &id
	}

	token, claims, err := auth.NewJWTMaker(cfg.JWT.Secret).CreateToken(actor, tokenTTL)
	if err != nil {
		return err
	}
	// Round trip through the same checks the API applies.
	if _, err := claims.Actor(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
