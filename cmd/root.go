package cmd

import (
	"log"

	"github.com/seedscout/seedscout/internal/investors"
	"github.com/seedscout/seedscout/internal/pipeline"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "seedscout"
)

type Config struct {
	Pipeline *pipeline.Config        `mapstructure:"pipeline"`
	Gemini   *GeminiConfig           `mapstructure:"gemini"`
	Qdrant   *investors.QdrantConfig `mapstructure:"qdrant"`
	Delivery *DeliveryConfig         `mapstructure:"delivery"`
	Server   *ServerConfig           `mapstructure:"server"`
	Founder  *FounderConfig          `mapstructure:"founder"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	Dimensions     int    `mapstructure:"dimensions"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	MaxConcurrent  int    `mapstructure:"max-concurrent"`
}

type DeliveryConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// FounderConfig is the founder profile consumed by the one-shot run command.
type FounderConfig struct {
	AboutYou     string   `mapstructure:"about-you"`
	AboutStartup string   `mapstructure:"about-startup"`
	Industries   []string `mapstructure:"industries"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "seedscout matches a founder profile to investors and drafts a personalized DM per match",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is seedscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	// Industries may arrive as a comma-separated string from env overrides.
	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.StringToSliceHookFunc(","),
	))
	if err != nil {
		return config, err
	}

	return config, nil
}
