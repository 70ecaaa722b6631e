package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"supplier-sync/core/cache"
	"supplier-sync/core/config"
	"supplier-sync/core/database"
	"supplier-sync/core/logger"
	"supplier-sync/core/storage"
	"supplier-sync/feature/catalog"
	"supplier-sync/feature/commerce"
	"supplier-sync/feature/supplier"
	"supplier-sync/feature/syncer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncSupplierCode string
	syncLimit        int
	syncForceRefresh bool
	syncNoPush       bool
)

// syncCmd runs the ingestion pipeline for one or all suppliers.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync supplier feeds into the catalog",
	Long: `Fetches product, stock, price, and print data feeds from the configured
suppliers, reconciles them into the catalog database, and pushes eligible
products to the commerce platform as drafts.

Examples:
  # Sync every active supplier
  supplier-sync sync

  # Sync one supplier, first 50 products, without pushing
  supplier-sync sync --supplier makito --limit 50 --no-push

  # Ignore cached feeds
  supplier-sync sync --force-refresh`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncSupplierCode, "supplier", "", "Sync only this supplier code")
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "Cap the number of products per supplier (0 = all)")
	syncCmd.Flags().BoolVar(&syncForceRefresh, "force-refresh", false, "Bypass the feed cache")
	syncCmd.Flags().BoolVar(&syncNoPush, "no-push", false, "Skip pushing products to the commerce platform")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	store := catalog.NewStore(db, logg)
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	sources, err := supplier.LoadSources(cfg.Sync.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load supplier sources: %w", err)
	}
	sources, err = selectSources(sources, syncSupplierCode)
	if err != nil {
		return err
	}

	// Pushing is optional: with no platform credentials the run stops at the
	// catalog.
	var platform commerce.Client
	var images syncer.ImageProcessor
	if cfg.Commerce.URL != "" {
		platform, err = commerce.NewClient(cfg.Commerce, logg)
		if err != nil {
			return fmt.Errorf("failed to create commerce client: %w", err)
		}

		if cfg.Storage.Endpoint != "" {
			object, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Warn("Object storage unavailable, images will not be re-hosted", zap.Error(err))
			} else {
				images = commerce.NewImagePipeline(object, cfg.Storage, logg)
			}
		}
	} else if !syncNoPush {
		logg.Info("No commerce platform configured, skipping push stage")
	}

	service := syncer.NewService(store, cache.New(cfg.Cache), platform, images, cfg.Sync, logg)

	// Ctrl-C finishes the current product and closes the run as PARTIAL.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logg.Warn("Interrupt received, finishing current work...")
		cancel()
	}()

	opts := syncer.Options{
		Limit:        syncLimit,
		ForceRefresh: syncForceRefresh,
		Push:         !syncNoPush && platform != nil,
	}

	results, err := service.SyncAll(ctx, sources, opts)
	for _, res := range results {
		logg.Info("Run summary",
			zap.String("supplier", res.Supplier),
			zap.String("run_id", res.RunID),
			zap.String("status", string(res.Status)),
			zap.Int("processed", res.Processed),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("errors", res.Errors),
			zap.Int("pushed", res.Pushed))

		if res.Errors > 0 {
			recent, rerr := store.RunErrors(res.RunID, 5)
			if rerr != nil {
				logg.Warn("Could not load run errors", zap.Error(rerr))
				continue
			}
			for _, e := range recent {
				logg.Warn("Run error",
					zap.String("supplier", res.Supplier),
					zap.String("kind", e.Kind),
					zap.String("object", e.ObjectType+" "+e.ObjectRef),
					zap.String("message", e.Message))
			}
		}
	}
	return err
}

// selectSources filters the declared sources down to the --supplier flag.
func selectSources(sources []supplier.Source, code string) ([]supplier.Source, error) {
	if code == "" {
		return sources, nil
	}
	for _, src := range sources {
		if src.Code == code {
			return []supplier.Source{src}, nil
		}
	}
	return nil, fmt.Errorf("supplier %q is not declared in the sources file", code)
}
