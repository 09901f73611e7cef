// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luxfi/suretyvm"
	"github.com/luxfi/suretyvm/cmd/suretyvm/oracles"
	"github.com/luxfi/suretyvm/cmd/suretyvm/run"
)

func init() {
	cobra.EnablePrefixMatching = true
}

func main() {
	cmd := &cobra.Command{
		Use:          "suretyvm",
		Short:        "Flight delay insurance ledger",
		Version:      suretyvm.Version,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		run.Command(),
		oracles.Command(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
