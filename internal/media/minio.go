package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"car-portal/internal/domain"
	"car-portal/internal/pkg/metrics"
)

const backendMinIO = "minio"

// MinIOStore keeps blobs as objects under cars/<yyyy>/<mm>/. References are
// the object keys.
type MinIOStore struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
	publicUseSSL   bool
	logger         *zap.Logger
	now            func() time.Time
}

func NewMinIOStore(client *minio.Client, bucket, publicEndpoint string, publicUseSSL bool, logger *zap.Logger) *MinIOStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinIOStore{
		client:         client,
		bucket:         bucket,
		publicEndpoint: publicEndpoint,
		publicUseSSL:   publicUseSSL,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *MinIOStore) Store(ctx context.Context, category domain.MediaCategory, upload domain.Upload, limit int64) (domain.AttachmentRef, error) {
	if err := checkUpload(category, upload, limit); err != nil {
		metrics.MediaOperations.WithLabelValues(backendMinIO, "store", metrics.ResultRejected).Inc()
		return "", err
	}

	now := s.now()
	key := fmt.Sprintf("cars/%s/%s", now.Format("2006/01"), generateName(upload.FileName, now))

	size := upload.Size
	if size <= 0 {
		size = -1
	}
	reader := newLimitedReader(upload.Reader, limit)

	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		if exceeded(reader) {
			metrics.MediaOperations.WithLabelValues(backendMinIO, "store", metrics.ResultRejected).Inc()
			return "", tooLarge(limit)
		}
		metrics.MediaOperations.WithLabelValues(backendMinIO, "store", metrics.ResultError).Inc()
		return "", domain.NewStorageError("upload to minio", err)
	}

	metrics.MediaOperations.WithLabelValues(backendMinIO, "store", metrics.ResultOK).Inc()
	metrics.MediaIngestedBytes.WithLabelValues(backendMinIO, string(category)).Add(float64(info.Size))

	return domain.AttachmentRef(key), nil
}

func (s *MinIOStore) Delete(ctx context.Context, ref domain.AttachmentRef) {
	key := strings.TrimPrefix(string(ref), "/")
	if key == "" {
		return
	}
	// RemoveObject on a missing key succeeds, which keeps deletes idempotent.
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		metrics.MediaOperations.WithLabelValues(backendMinIO, "delete", metrics.ResultError).Inc()
		s.logger.Warn("failed to remove attachment", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return
	}
	metrics.MediaOperations.WithLabelValues(backendMinIO, "delete", metrics.ResultOK).Inc()
}

func (s *MinIOStore) Exists(ctx context.Context, ref domain.AttachmentRef) bool {
	key := strings.TrimPrefix(string(ref), "/")
	if key == "" {
		return false
	}
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	return err == nil
}

func (s *MinIOStore) URL(ref domain.AttachmentRef) string {
	scheme := "http"
	if s.publicUseSSL {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   s.publicEndpoint,
		Path:   "/" + s.bucket + "/" + strings.TrimPrefix(string(ref), "/"),
	}
	return u.String()
}
