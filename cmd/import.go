package cmd

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/logger"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a catalog file into the SQL store",
	Run: func(cmd *cobra.Command, _ []string) {
		importCatalog(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("file", "f", "", "catalog file (json, yaml or toml) with a top level jobs list")
	importCmd.Flags().String("driver", "", "sql driver: sqlite or postgres (default from catalog.driver)")
	importCmd.Flags().String("dsn", "", "database dsn (default from catalog.dsn or DATABASE_URL)")
	importCmd.MarkFlagRequired("file")
}

func importCatalog(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	file, _ := cmd.Flags().GetString("file")
	driver, _ := cmd.Flags().GetString("driver")
	dsn, _ := cmd.Flags().GetString("dsn")

	if driver == "" {
		driver = strings.ToLower(config.Catalog.Driver)
	}
	if dsn == "" {
		dsn = config.Catalog.DSN
	}
	if dsn == "" && driver == catalog.DriverSQLite {
		dsn = config.Catalog.Path
	}

	if driver != catalog.DriverSQLite && driver != catalog.DriverPostgres {
		logger.Fatal("import requires a sql catalog", zap.String("driver", driver), zap.String("hint", "use --driver sqlite or --driver postgres"))
	}
	if dsn == "" {
		logger.Fatal("database dsn is required", zap.String("hint", "set --dsn, catalog.dsn or DATABASE_URL"))
	}

	postings, err := catalog.LoadFile(file, time.Now())
	if err != nil {
		logger.Fatal("reading catalog file", zap.Error(err), zap.String("file", file))
	}

	store, err := catalog.OpenSQL(ctx, driver, dsn, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("migrating the store", zap.Error(err))
	}

	n, err := store.Import(ctx, postings)
	if err != nil {
		logger.Fatal("importing postings", zap.Error(err))
	}

	logger.Info("catalog imported", zap.String("file", file), zap.Int("postings", n))
}
