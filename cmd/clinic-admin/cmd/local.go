package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/medibook/booking-backend/internal/backend"
	"github.com/medibook/booking-backend/internal/service"
	"github.com/medibook/booking-backend/pkg/config"
	"github.com/medibook/booking-backend/pkg/logging"
)

var (
	configFile string
	envFile    string
)

// loadConfig reads the optional dotenv file and then the server configuration
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	return config.Load(configFile)
}

var ensureAdminCmd = &cobra.Command{
	Use:   "ensure-admin",
	Short: "Create the default administrator if it does not exist",
	Long: `Run the default admin bootstrap once against the configured store.

An existing account with the admin email is left untouched. The outcome is
printed as JSON; the command exits non-zero when the bootstrap fails.
No JWT secret is needed since the command never signs a token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		if cfg.Storage.Type == "memory" {
			logger.Warn("Memory storage is not persisted, the admin only exists for this run")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		store, err := backend.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage backend: %w", err)
		}
		defer func() { _ = store.Close() }()

		result := service.NewBootstrapService(store, cfg.Bootstrap, logger).Run(ctx)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		if result.Outcome == service.OutcomeFailed {
			return errors.New(result.Error)
		}
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return errors.New("password must not be empty")
		}
		hash, err := service.HashPassword(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func init() {
	rootCmd.AddCommand(ensureAdminCmd)
	rootCmd.AddCommand(hashPasswordCmd)

	ensureAdminCmd.Flags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "Path to configuration file")
	ensureAdminCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
}
