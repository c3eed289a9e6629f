// Package main provides the entry point for the pidrel CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version        = "0.1.0-dev"
	globalTypeName string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "pidrel",
		Short:   "Manage typed relations between persistent identifiers",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalTypeName, "type", "t", "version", "Relation type to operate on")

	rootCmd.AddCommand(
		newInitCmd(),
		newPIDCmd(),
		newChildCmd(),
		newParentsCmd(),
		newTypesCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
