package cmd

import (
	"fmt"
	"log"

	"supplier-sync/core/cache"
	"supplier-sync/core/config"
	"supplier-sync/core/logger"
	"supplier-sync/feature/commerce"
	"supplier-sync/feature/supplier"
	"supplier-sync/feature/supplier/factory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkCmd verifies connectivity to every configured feed and the platform.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test supplier feed and platform connections",
	Long: `Performs a one-record fetch against every active supplier feed and a
minimal read against the commerce platform, reporting each outcome without
touching the catalog.`,
	RunE: runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	sources, err := supplier.LoadSources(cfg.Sync.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load supplier sources: %w", err)
	}

	feedCache := cache.New(cfg.Cache)
	failures := 0

	for _, src := range sources {
		l := logger.WithSupplier(logg, src.Code)
		if !src.Active {
			l.Info("Skipped (inactive)")
			continue
		}

		client, err := factory.NewClient(src, feedCache, logg)
		if err != nil {
			failures++
			l.Error("Client construction failed", zap.Error(err))
			continue
		}

		if err := client.TestConnection(cmd.Context()); err != nil {
			failures++
			l.Error("Connection failed",
				zap.String("kind", string(supplier.KindOf(err))),
				zap.Error(err))
			continue
		}
		l.Info("Connection OK", zap.String("format", string(src.Format)))
	}

	if cfg.Commerce.URL != "" {
		platform, err := commerce.NewClient(cfg.Commerce, logg)
		if err != nil {
			failures++
			logg.Error("Commerce client construction failed", zap.Error(err))
		} else if err := platform.TestConnection(cmd.Context()); err != nil {
			failures++
			logg.Error("Commerce platform connection failed", zap.Error(err))
		} else {
			logg.Info("Commerce platform connection OK")
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d connection check(s) failed", failures)
	}
	return nil
}
