package commerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplier-sync/core/storage"
	storagemocks "supplier-sync/core/storage/mocks"
)

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProcessRehostsImages(t *testing.T) {
	srv := imageServer(t)

	store := new(storagemocks.Client)
	store.On("BucketExists", mock.Anything, "product-images").Return(true, nil).Once()
	store.On("PutObject", mock.Anything, "product-images", "4078/0-front.jpg",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)
	store.On("PutObject", mock.Anything, "product-images", "4078/1-back.jpg",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	cfg := storage.Config{Bucket: "product-images", PublicBaseURL: "https://cdn.shop.example.com"}
	pipeline := NewImagePipeline(store, cfg, zap.NewNop())

	images := pipeline.Process(context.Background(), "4078", "Urban Backpack", []string{
		srv.URL + "/front.jpg",
		srv.URL + "/back.jpg",
	})

	require.Len(t, images, 2)
	assert.Equal(t, "https://cdn.shop.example.com/4078/0-front.jpg", images[0].Src)
	assert.Equal(t, "Urban Backpack", images[0].Alt)
	assert.Equal(t, 0, images[0].Position)
	assert.Equal(t, "https://cdn.shop.example.com/4078/1-back.jpg", images[1].Src)
	store.AssertExpectations(t)
}

func TestProcessSkipsFailedDownloads(t *testing.T) {
	srv := imageServer(t)

	store := new(storagemocks.Client)
	store.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	cfg := storage.Config{Bucket: "product-images", PublicBaseURL: "https://cdn.shop.example.com"}
	pipeline := NewImagePipeline(store, cfg, zap.NewNop())

	images := pipeline.Process(context.Background(), "4078", "", []string{
		srv.URL + "/missing.jpg",
		srv.URL + "/ok.jpg",
	})

	require.Len(t, images, 1)
	assert.Contains(t, images[0].Src, "ok.jpg")
}

func TestProcessFallsBackToOriginalURLs(t *testing.T) {
	srv := imageServer(t)

	store := new(storagemocks.Client)
	store.On("BucketExists", mock.Anything, mock.Anything).Return(false, assert.AnError)

	cfg := storage.Config{Bucket: "product-images"}
	pipeline := NewImagePipeline(store, cfg, zap.NewNop())

	urls := []string{srv.URL + "/front.jpg", srv.URL + "/back.jpg"}
	images := pipeline.Process(context.Background(), "4078", "Backpack", urls)

	require.Len(t, images, 2)
	assert.Equal(t, urls[0], images[0].Src)
	assert.Equal(t, urls[1], images[1].Src)
}

func TestProcessCreatesMissingBucket(t *testing.T) {
	srv := imageServer(t)

	store := new(storagemocks.Client)
	store.On("BucketExists", mock.Anything, "product-images").Return(false, nil).Once()
	store.On("MakeBucket", mock.Anything, "product-images", mock.Anything).Return(nil).Once()
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	cfg := storage.Config{Bucket: "product-images"}
	pipeline := NewImagePipeline(store, cfg, zap.NewNop())

	images := pipeline.Process(context.Background(), "4078", "", []string{srv.URL + "/front.jpg"})
	require.Len(t, images, 1)
	store.AssertExpectations(t)
}

func TestImageName(t *testing.T) {
	assert.Equal(t, "front.jpg", imageName("https://cdn.example.com/img/front.jpg"))
	assert.Equal(t, "front.jpg", imageName("https://cdn.example.com/img/front.jpg?size=500"))
	assert.Equal(t, "image.jpg", imageName("https://cdn.example.com/"))
}
