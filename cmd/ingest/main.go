package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/eskrenkovic/catalog-ingest/internal/app"
	"github.com/eskrenkovic/catalog-ingest/internal/config"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/commands"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootPath := flag.String("root", "", "directory holding config.env")
	file := flag.String("file", "", "catalog JSON file: a product array or {categories, brands, products}")
	force := flag.Bool("force", false, "empty the product collection before ingesting")
	category := flag.String("category", "", "only ingest products of this category slug")
	productID := flag.Int64("merge", 0, "merge -patch into the product with this id instead of ingesting")
	patchFile := flag.String("patch", "", "JSON patch file used with -merge")
	flag.Parse()

	if *rootPath != "" {
		if err := godotenv.Load(path.Join(*rootPath, "config.env")); err != nil {
			log.Fatal(err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if *force {
		cfg.Ingest.Force = true
	}
	if *category != "" {
		cfg.Ingest.Category = *category
	}

	logger, err := core.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close sink", zap.Error(err))
		}
	}()

	var output any
	if *productID != 0 {
		output, err = runMerge(ctx, a, *productID, *patchFile)
	} else {
		output, err = runIngest(ctx, a, cfg, *file)
	}

	if metricsErr := a.WriteMetrics(); metricsErr != nil {
		logger.Warn("failed to write metrics", zap.Error(metricsErr))
	}

	if output != nil {
		content, marshalErr := json.MarshalIndent(output, "", "  ")
		if marshalErr != nil {
			logger.Error("failed to render result", zap.Error(marshalErr))
		} else {
			fmt.Println(string(content))
		}
	}

	if err != nil {
		logger.Error("command failed", zap.Error(err))
		return 1
	}

	return 0
}

func runIngest(ctx context.Context, a *app.App, cfg config.Config, file string) (any, error) {
	if file == "" {
		return nil, fmt.Errorf("-file is required: %w", core.ErrInvalidConfig)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	command, err := commands.DecodeIngestFile(data)
	if err != nil {
		return nil, err
	}

	command.Force = cfg.Ingest.Force
	command.CategoryFilter = cfg.Ingest.Category

	response, err := a.Ingest(ctx, command)
	return response, err
}

func runMerge(ctx context.Context, a *app.App, productID int64, patchFile string) (any, error) {
	if patchFile == "" {
		return nil, fmt.Errorf("-patch is required with -merge: %w", core.ErrInvalidConfig)
	}

	data, err := os.ReadFile(patchFile)
	if err != nil {
		return nil, err
	}

	patch, err := domain.DecodePatch(data)
	if err != nil {
		return nil, err
	}

	reconciled, err := a.Merge(ctx, commands.MergeProductCommand{ProductID: productID, Patch: patch})
	if err != nil {
		return nil, err
	}

	return reconciled, nil
}
