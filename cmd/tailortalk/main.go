package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tailortalk/tailortalk/internal/profile"
	"github.com/tailortalk/tailortalk/server"
	"github.com/tailortalk/tailortalk/server/calendar"
	"github.com/tailortalk/tailortalk/server/dialog"
	"github.com/tailortalk/tailortalk/server/session"
)

var version = "0.1.0"

const (
	oracleMaxRetries  = 3
	oracleCallTimeout = 5 * time.Second
)

var rootCmd = &cobra.Command{
	Use:   "tailortalk",
	Short: "A conversational scheduling assistant",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:              viper.GetString("mode"),
			Addr:              viper.GetString("addr"),
			Port:              viper.GetInt("port"),
			Data:              viper.GetString("data"),
			Driver:            viper.GetString("driver"),
			DSN:               viper.GetString("dsn"),
			Version:           version,
			Timezone:          viper.GetString("timezone"),
			CalendarProvider:  viper.GetString("calendar-provider"),
			CalendarID:        viper.GetString("calendar-id"),
			GoogleCredentials: viper.GetString("google-credentials"),
			GoogleToken:       viper.GetString("google-token"),
			Summary:           viper.GetString("summary"),
		}
		if err := instanceProfile.Validate(); err != nil {
			return err
		}
		return run(instanceProfile)
	},
}

func run(instanceProfile *profile.Profile) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setupLogger(instanceProfile)

	store, cleanupJob, closeStore, err := newSessionStore(instanceProfile)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	oracle, err := newOracle(ctx, instanceProfile)
	if err != nil {
		return err
	}
	oracle = calendar.WithRetry(oracle, oracleMaxRetries, oracleCallTimeout)

	engineOpts := []dialog.Option{}
	if instanceProfile.Summary != "" {
		engineOpts = append(engineOpts, dialog.WithSummary(instanceProfile.Summary))
	}
	engine := dialog.NewEngine(store, oracle, engineOpts...)
	s := server.NewServer(instanceProfile, engine)

	if cleanupJob != nil {
		cleanupJob.Start(ctx)
		defer cleanupJob.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown(gctx)
		return nil
	})
	return g.Wait()
}

func setupLogger(instanceProfile *profile.Profile) {
	level := slog.LevelInfo
	if instanceProfile.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func newSessionStore(instanceProfile *profile.Profile) (session.Store, *session.CleanupJob, func(), error) {
	switch instanceProfile.Driver {
	case "sqlite":
		store, err := session.NewSQLiteStore(instanceProfile.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		job := session.NewCleanupJob(store, session.CleanupConfig{})
		closeStore := func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close session store", "error", err)
			}
		}
		return store, job, closeStore, nil
	default:
		return session.NewMemoryStore(), nil, nil, nil
	}
}

func newOracle(ctx context.Context, instanceProfile *profile.Profile) (calendar.Oracle, error) {
	switch instanceProfile.CalendarProvider {
	case "google":
		loc, err := instanceProfile.Location()
		if err != nil {
			return nil, err
		}
		return calendar.NewGoogleOracle(ctx,
			instanceProfile.GoogleCredentials,
			instanceProfile.GoogleToken,
			instanceProfile.CalendarID,
			loc)
	default:
		slog.Warn("using fake in-memory calendar, bookings are not persisted")
		return calendar.NewFakeOracle(), nil
	}
}

func init() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "memory", `session store driver, can be "memory" or "sqlite"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name of the session store")
	rootCmd.PersistentFlags().String("timezone", "Africa/Cairo", "calendar timezone")
	rootCmd.PersistentFlags().String("calendar-provider", "fake", `calendar provider, can be "google" or "fake"`)
	rootCmd.PersistentFlags().String("calendar-id", "primary", "calendar identity to book against")
	rootCmd.PersistentFlags().String("google-credentials", "", "path to the Google OAuth credentials file")
	rootCmd.PersistentFlags().String("google-token", "", "path to the stored Google OAuth token file")
	rootCmd.PersistentFlags().String("summary", "", "event title for created bookings")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("tailortalk")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
