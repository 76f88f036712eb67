package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/devnode"
	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/USA-RedDragon/germ-rpctest/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"golang.org/x/sync/errgroup"
)

func newDevNodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devnode",
		Short: "Serve a simulated node holding the genesis funds in memory",
		Args:  cobra.NoArgs,
		RunE:  runDevNode,
	}
}

func runDevNode(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	genesis, err := keys.ParsePrivateKey(config.Suite.GenesisKey)
	if err != nil {
		return fmt.Errorf("invalid genesis key: %w", err)
	}

	m := metrics.NewMetrics()
	node := devnode.New(genesis, devnode.WithMetrics(m))
	slog.Info("Genesis account", "account", node.Genesis())

	slog.Info("Starting simulated node")
	server := devnode.NewServer(config, node, m)
	err = server.Start()
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	stop := func(_ os.Signal) {
		slog.Info("Shutting down")

		errGrp := errgroup.Group{}

		errGrp.Go(func() error {
			return server.Stop()
		})

		err := errGrp.Wait()
		if err != nil {
			slog.Error("Shutdown error", "error", err.Error())
		}
		slog.Info("Shutdown complete")
	}

	if cmd.Root().Annotations["version"] == "testing" {
		doneChannel := make(chan struct{})
		go func() {
			slog.Info("Sleeping for 5 seconds")
			time.Sleep(5 * time.Second)
			slog.Info("Sending SIGTERM")
			stop(syscall.SIGTERM)
			doneChannel <- struct{}{}
		}()
		<-doneChannel
	} else {
		shutdown.AddWithParam(stop)
		shutdown.Listen(syscall.SIGINT, syscall.SIGKILL, syscall.SIGTERM, syscall.SIGQUIT)
	}

	return nil
}
