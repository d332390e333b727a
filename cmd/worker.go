/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/contactsbook/apiserver/config"
	"github.com/contactsbook/apiserver/internal/logging"
	"github.com/contactsbook/apiserver/internal/mailer"
	"github.com/contactsbook/apiserver/internal/mq"
	"github.com/contactsbook/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the confirmation email worker",
	Long: `Consumes confirmation email jobs from the configured message
broker and delivers them over SMTP. Usage:

	apiserver worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

		broker, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer func() {
			_ = broker.Close()
		}()

		tokens, err := services.NewAuthService(nil, nil, cfg.JWT)
		if err != nil {
			return fmt.Errorf("init token service: %w", err)
		}

		sender, err := mailer.New(cfg.Mail, tokens)
		if err != nil {
			return fmt.Errorf("init mailer: %w", err)
		}

		return mailer.RunWorker(cmd.Context(), broker, sender, log)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
