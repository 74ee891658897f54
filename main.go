package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/otpdeck/internal/app"
)

func main() {
	root := &cobra.Command{
		Use:          "otpdeck",
		Short:        "otpdeck shows the current TOTP code of every enrolled service",
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return serve()
		},
	}
	root.AddCommand(sealCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for a termination signal or a failed loop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(ctx) // Stop the application gracefully
}

func sealCommand() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a plain secrets file with the configured key or passphrase",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return app.SealFile(in, out)
		},
	}
	cmd.Flags().StringVar(&in, "in", "secrets.txt", "plain secrets file, one service,secret per line")
	cmd.Flags().StringVar(&out, "out", "secrets.sealed", "where to write the sealed envelope")

	return cmd
}
