package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "genops",
	Short: "Genops dashboard",
	Long:  `Backend for the generator and battery operations dashboard.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	var cfg *internal.Config
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		// Load configuration from environment variables (Docker deployment)
		envCfg, err := internal.LoadConfigFromEnv()
		if err != nil {
			return nil, fmt.Errorf("error reading config from environment: %w", err)
		}
		cfg = envCfg
	} else {
		// Load configuration from file (development)
		v := viper.New()
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.SetEnvPrefix("GENOPS")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}

		var fileCfg internal.Config
		if err := v.Unmarshal(&fileCfg); err != nil {
			return nil, fmt.Errorf("error unmarshaling config: %w", err)
		}
		cfg = &fileCfg
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	logging := cfg.Observability.Logging
	logger.Configure(os.Stdout, logging.Level, logging.Format)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
