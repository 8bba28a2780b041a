package cmd

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/seedscout/seedscout/internal/logger"
	"github.com/seedscout/seedscout/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultAddress = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching pipeline as a JSON API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8080)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	pipe, sender, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	address := defaultAddress
	if config.Server != nil && config.Server.Address != "" {
		address = config.Server.Address
	}

	var serverSender server.Sender
	if sender != nil {
		serverSender = sender
	}

	srv := &http.Server{
		Addr:              address,
		Handler:           server.New(pipe, serverSender, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serving", zap.String("address", address), zap.String("version", version))

	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
