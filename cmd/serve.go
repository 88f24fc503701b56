package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scoring web form",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", web.DefaultAddress, "address to listen on")

	viper.BindPFlag("serve.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx := context.Background()
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	pipeline, err := newPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	h := web.NewServer(config.Serve.Address, web.NewHandler(pipeline, logger))

	logger.Info("starting the web form",
		zap.String("version", version),
		zap.String("address", config.Serve.Address),
	)

	// Spin blocks until SIGINT or SIGTERM and shuts the server down gracefully.
	h.Spin()
}
