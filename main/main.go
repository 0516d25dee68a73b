// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/config"
	"github.com/ava-labs/counterflood/node"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/version"
)

func main() {
	rootCmd := newCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "counterflood failed %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          version.Client,
		Short:        "Counter-based flood suppression for broadcast links",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runFunc,
	}

	flags := cmd.Flags()
	flags.Bool(config.VersionKey, false, "If true, print version and quit")
	config.AddFlags(flags)
	return cmd
}

func runFunc(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if printVersion, _ := flags.GetBool(config.VersionKey); printVersion {
		fmt.Fprint(cmd.OutOrStdout(), version.String(version.GitCommit))
		return nil
	}

	v, err := config.BuildViper(flags)
	if err != nil {
		return err
	}
	nodeConfig, err := config.GetNodeConfig(v)
	if err != nil {
		return fmt.Errorf("couldn't load node config: %w", err)
	}

	log, err := logging.New(version.Client, nodeConfig.Logging)
	if err != nil {
		return fmt.Errorf("couldn't initialize logger: %w", err)
	}
	defer log.Stop()

	log.Info("starting node",
		zap.Stringer("version", version.Current),
		zap.String("commit", version.GitCommit),
	)

	n, err := node.New(nodeConfig, log)
	if err != nil {
		log.Error("couldn't initialize node",
			zap.Error(err),
		)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("received OS signal, shutting down",
				zap.Stringer("signal", sig),
			)
			cancel()
		case <-ctx.Done():
		}
	}()

	return n.Dispatch(ctx)
}
