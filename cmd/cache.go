package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"supplier-sync/core/config"
	"supplier-sync/core/logger"
	"supplier-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cacheFlushPrefix string
	cacheFlushYes    bool
)

// cacheCmd groups cache maintenance operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cached object maintenance",
}

// cacheFlushCmd removes re-hosted product images and other cached objects
// from storage. The in-memory parse cache lives and dies with the sync
// process; the bucket is what persists between runs.
var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Remove cached objects from storage",
	Long: `Removes objects under a prefix from the storage bucket. With no prefix the
whole bucket is flushed; the next sync re-hosts images from the supplier
feeds.

Examples:
  # Flush everything (with interactive confirmation)
  supplier-sync cache flush --yes

  # Flush one product's images
  supplier-sync cache flush --prefix 4078/`,
	RunE: runCacheFlush,
}

func init() {
	cacheFlushCmd.Flags().StringVar(&cacheFlushPrefix, "prefix", "", "Only remove objects under this prefix")
	cacheFlushCmd.Flags().BoolVar(&cacheFlushYes, "yes", false, "Auto-confirm deletion (non-interactive)")
	cacheCmd.AddCommand(cacheFlushCmd)
	RootCmd.AddCommand(cacheCmd)
}

func runCacheFlush(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	if cfg.Storage.Endpoint == "" {
		logg.Info("No object storage configured, nothing to flush")
		return nil
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	ctx := cmd.Context()
	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		logg.Info("Bucket does not exist, nothing to flush",
			zap.String("bucket", cfg.Storage.Bucket))
		return nil
	}

	if !confirmFlush(cfg.Storage.Bucket, cacheFlushPrefix) {
		logg.Warn("Operation cancelled by user. No objects were removed.")
		return nil
	}

	removed, failed := 0, 0
	for object := range client.ListObjects(ctx, cfg.Storage.Bucket, minio.ListObjectsOptions{
		Prefix:    cacheFlushPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if err := client.RemoveObject(ctx, cfg.Storage.Bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			failed++
			logg.Error("Failed to remove object",
				zap.String("object", object.Key),
				zap.Error(err))
			continue
		}
		removed++
	}

	logg.Info("Cache flush complete",
		zap.Int("removed", removed),
		zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d object(s) could not be removed", failed)
	}
	return nil
}

// confirmFlush prompts before deleting, unless --yes was passed.
func confirmFlush(bucket, prefix string) bool {
	if cacheFlushYes {
		return true
	}

	target := bucket
	if prefix != "" {
		target = bucket + "/" + prefix
	}
	fmt.Printf("Type 'yes' to remove all objects under %s: ", target)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
