package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/db"
	"github.com/USA-RedDragon/germ-rpctest/internal/events"
	"github.com/USA-RedDragon/germ-rpctest/internal/history"
	"github.com/USA-RedDragon/germ-rpctest/internal/metrics"
	"github.com/USA-RedDragon/germ-rpctest/internal/rpc"
	"github.com/USA-RedDragon/germ-rpctest/internal/storage"
	"github.com/USA-RedDragon/germ-rpctest/internal/suite"
	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var ErrSuiteFailed = errors.New("suite failed")

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "germ-rpctest",
		Short:   "Exercise the RPC interface of a node and report the results",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		Args:          cobra.NoArgs,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd)
	cmd.AddCommand(
		newCallCommand(),
		newDevNodeCommand(),
		newHistoryCommand(),
	)
	return cmd
}

// loadConfig reads and validates the configuration, then applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config, err := config.LoadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.SlogLevel()})))
	return config, nil
}

func closeDB(database *gorm.DB) {
	sqlDB, err := database.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("Failed to close database", "error", err.Error())
	}
}

func run(cmd *cobra.Command, _ []string) error {
	version := cmd.Root().Annotations["version"]
	slog.Info("germ-rpctest", "version", version, "commit", cmd.Root().Annotations["commit"])

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	client := rpc.NewClient(config.Node.URL,
		rpc.WithTimeout(config.Node.Timeout),
		rpc.WithRecorder(m),
	)

	s, err := suite.New(client, suite.Options{
		GenesisKey:     config.Suite.GenesisKey,
		GenesisAccount: config.Suite.GenesisAccount,
		Seed:           config.Suite.Seed,
		SendAmount:     config.Suite.SendAmount,
	})
	if err != nil {
		return err
	}
	cases, err := suite.Select(s.Cases(), config.Suite.Run)
	if err != nil {
		return err
	}

	observers := []suite.Observer{m}

	var (
		recorder *history.Recorder
		database *gorm.DB
	)
	if config.History.Enabled {
		database, err = db.MakeDB(config)
		if err != nil {
			return fmt.Errorf("failed to make database: %w", err)
		}
		defer closeDB(database)
		recorder = history.NewRecorder(database)
		observers = append(observers, recorder)
	}

	if config.Events.Enabled {
		publisher, err := events.Connect(config.Events.URL, config.Events.Subject)
		if err != nil {
			return err
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				slog.Error("Failed to flush events", "error", err.Error())
			}
		}()
		observers = append(observers, publisher)
	}

	store, err := storage.NewStorage(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open report storage: %w", err)
	}
	defer store.Close()

	var report bytes.Buffer
	runner := suite.NewRunner(io.MultiWriter(cmd.OutOrStdout(), &report),
		suite.WithObservers(observers...),
		suite.WithNodeURL(config.Node.URL),
		suite.WithVersion(version),
	)
	summary, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}

	name, err := storage.WriteReport(store, config.Report.Name, report.Bytes(), config.Report.Compress)
	if err != nil {
		return err
	}
	slog.Info("Report written", "driver", config.Report.Driver, "name", name)

	if recorder != nil {
		// the run may have been cancelled, the report still belongs to it
		if err := recorder.AttachReport(context.WithoutCancel(ctx), summary.ID, name); err != nil {
			slog.Error("Failed to record report", "run", summary.ID, "error", err.Error())
		}
		if _, err := history.Prune(context.WithoutCancel(ctx), database, store, config.History.Retain); err != nil {
			slog.Error("Failed to prune history", "error", err.Error())
		}
	}

	if config.Metrics.Textfile != "" {
		if err := m.WriteTextfile(config.Metrics.Textfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if !summary.OK() {
		return fmt.Errorf("%w: %s", ErrSuiteFailed, summary)
	}
	return nil
}
