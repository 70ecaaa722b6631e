package commerce

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"supplier-sync/core/storage"
)

// ImagePipeline re-hosts supplier image URLs into object storage so the
// platform never hotlinks supplier CDNs. On total failure it falls back to
// the original URLs; a push with supplier-hosted images beats a push with
// none.
type ImagePipeline struct {
	store storage.Client
	cfg   storage.Config
	log   *zap.Logger
	http  *http.Client

	mu          sync.Mutex
	bucketReady bool
}

// NewImagePipeline builds the pipeline over an object storage client.
func NewImagePipeline(store storage.Client, cfg storage.Config, log *zap.Logger) *ImagePipeline {
	return &ImagePipeline{
		store: store,
		cfg:   cfg,
		log:   log,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Process downloads each source URL, stores it under the product ref, and
// returns payload images pointing at the re-hosted copies. Per-image
// failures are skipped; if nothing could be re-hosted the original URLs are
// returned as-is.
func (p *ImagePipeline) Process(ctx context.Context, productRef, altText string, urls []string) []Image {
	if len(urls) == 0 {
		return nil
	}

	var rehosted []Image
	for i, src := range urls {
		hosted, err := p.rehost(ctx, productRef, i, src)
		if err != nil {
			p.log.Warn("image re-host failed",
				zap.String("product_ref", productRef),
				zap.String("url", src),
				zap.Error(err))
			continue
		}
		rehosted = append(rehosted, Image{
			Src:      hosted,
			Alt:      altText,
			Name:     imageName(src),
			Position: i,
		})
	}

	if len(rehosted) > 0 {
		return rehosted
	}

	p.log.Warn("no images re-hosted, passing supplier URLs through",
		zap.String("product_ref", productRef))
	fallback := make([]Image, 0, len(urls))
	for i, src := range urls {
		fallback = append(fallback, Image{Src: src, Alt: altText, Position: i})
	}
	return fallback
}

func (p *ImagePipeline) rehost(ctx context.Context, productRef string, position int, src string) (string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: status %d", resp.StatusCode)
	}

	objectName := fmt.Sprintf("%s/%d-%s", productRef, position, imageName(src))
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err = p.store.PutObject(ctx, p.cfg.Bucket, objectName, resp.Body, resp.ContentLength,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return storage.ObjectURL(p.cfg, objectName), nil
}

func (p *ImagePipeline) ensureBucket(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bucketReady {
		return nil
	}
	exists, err := p.store.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := p.store.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
			return err
		}
	}
	p.bucketReady = true
	return nil
}

// imageName extracts a filename from a URL, dropping query strings.
func imageName(src string) string {
	name := path.Base(src)
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == "/" {
		return "image.jpg"
	}
	return name
}
