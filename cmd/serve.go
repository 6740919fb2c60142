package cmd

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/secrets"
	"github.com/spigell/job-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog and resume matching over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 8000, "port to listen on")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-matcher server", zap.String("version", version))

	src, err := catalog.Open(ctx, config.Catalog, logger)
	if err != nil {
		logger.Fatal("opening the catalog", zap.Error(err), zap.String("driver", config.Catalog.Driver))
	}
	defer catalog.Close(src)

	if store, ok := src.(*catalog.SQLStore); ok {
		count, err := store.Count(ctx)
		if err != nil {
			logger.Fatal("counting catalog postings", zap.Error(err))
		}
		if count == 0 {
			logger.Warn("catalog is empty", zap.String("hint", "load postings with the import command"))
		}
	}

	matcher, err := newMatcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the matcher", zap.Error(err))
	}

	adminKey, err := secrets.Load(secrets.Source{
		Name:     "admin api key",
		Value:    config.Server.AdminKey,
		File:     config.Server.AdminKeyFile,
		Optional: true,
	})
	if err != nil {
		logger.Fatal("loading admin api key", zap.Error(err))
	}
	if adminKey == "" {
		logger.Warn("admin endpoints are locked", zap.String("hint", "set ADMIN_API_KEY or server.admin-key-file"))
	}

	srv := server.New(server.Options{
		Catalog:  src,
		Matcher:  matcher,
		AdminKey: adminKey,
		Logger:   logger,
	})

	addr := net.JoinHostPort(config.Server.Host, strconv.Itoa(config.Server.Port))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}
