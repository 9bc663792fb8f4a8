// Command dockdb starts and stops the disposable database containers
// declared in a yaml file, one readiness-checked container per entry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dockdb/dockdb/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "dockdb",
		Short:         "Disposable database containers for tests",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return logging.Configure(logLevel)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "f", "dockdb.yml", "Path to the container declaration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", logging.LevelInfo, "Log level: debug, info, warn or error")

	root.AddCommand(upCmd(&configPath))
	root.AddCommand(downCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func upCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start every declared container and wait until each is reachable",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			group, groupCtx := errgroup.WithContext(ctx)

			for _, containerCfg := range cfg.Containers {
				containerCfg := containerCfg
				cnt, buildErr := build(containerCfg)
				if buildErr != nil {
					return buildErr
				}

				group.Go(func() error {
					startErr := cnt.StartConfigured(groupCtx)
					if startErr != nil {
						return fmt.Errorf("start %s container %s, %w",
							containerCfg.Platform, containerCfg.Name, startErr)
					}

					return nil
				})
			}

			return group.Wait()
		},
	}
}

func downCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop every declared container",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			group, groupCtx := errgroup.WithContext(ctx)

			for _, containerCfg := range cfg.Containers {
				containerCfg := containerCfg
				cnt, buildErr := build(containerCfg)
				if buildErr != nil {
					return buildErr
				}

				group.Go(func() error {
					stopErr := cnt.StopConfigured(groupCtx)
					if stopErr != nil {
						return fmt.Errorf("stop %s container %s, %w",
							containerCfg.Platform, containerCfg.Name, stopErr)
					}

					return nil
				})
			}

			return group.Wait()
		},
	}
}
