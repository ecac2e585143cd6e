package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"car-portal/internal/domain"
	"car-portal/internal/pkg/metrics"
)

const backendDisk = "disk"

// DiskStore keeps blobs as flat files in one directory. References are the
// public paths under urlPrefix, e.g. /uploads/1718000000000-123456789.jpg.
type DiskStore struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

func NewDiskStore(dir, urlPrefix string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Dir is the directory served statically under the URL prefix.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Store(ctx context.Context, category domain.MediaCategory, upload domain.Upload, limit int64) (domain.AttachmentRef, error) {
	if err := checkUpload(category, upload, limit); err != nil {
		metrics.MediaOperations.WithLabelValues(backendDisk, "store", metrics.ResultRejected).Inc()
		return "", err
	}

	name := generateName(upload.FileName, s.now())
	fullPath := filepath.Join(s.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		metrics.MediaOperations.WithLabelValues(backendDisk, "store", metrics.ResultError).Inc()
		return "", domain.NewStorageError("create blob", err)
	}

	reader := newLimitedReader(upload.Reader, limit)
	size, err := io.Copy(f, reader)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, fullPath)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		if exceeded(reader) {
			metrics.MediaOperations.WithLabelValues(backendDisk, "store", metrics.ResultRejected).Inc()
			return "", tooLarge(limit)
		}
		metrics.MediaOperations.WithLabelValues(backendDisk, "store", metrics.ResultError).Inc()
		return "", domain.NewStorageError("write blob", err)
	}

	metrics.MediaOperations.WithLabelValues(backendDisk, "store", metrics.ResultOK).Inc()
	metrics.MediaIngestedBytes.WithLabelValues(backendDisk, string(category)).Add(float64(size))

	return domain.AttachmentRef(path.Join(s.urlPrefix, name)), nil
}

func (s *DiskStore) Delete(ctx context.Context, ref domain.AttachmentRef) {
	fullPath, err := s.resolve(ref)
	if err != nil {
		metrics.MediaOperations.WithLabelValues(backendDisk, "delete", metrics.ResultError).Inc()
		s.logger.Warn("refusing to delete attachment", zap.String("ref", string(ref)), zap.Error(err))
		return
	}

	err = os.Remove(fullPath)
	switch {
	case err == nil:
		metrics.MediaOperations.WithLabelValues(backendDisk, "delete", metrics.ResultOK).Inc()
	case errors.Is(err, os.ErrNotExist):
		metrics.MediaOperations.WithLabelValues(backendDisk, "delete", metrics.ResultMissing).Inc()
	default:
		metrics.MediaOperations.WithLabelValues(backendDisk, "delete", metrics.ResultError).Inc()
		s.logger.Warn("failed to remove attachment", zap.String("ref", string(ref)), zap.Error(err))
	}
}

func (s *DiskStore) Exists(ctx context.Context, ref domain.AttachmentRef) bool {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

func (s *DiskStore) URL(ref domain.AttachmentRef) string {
	return string(ref)
}

// resolve maps a reference back to a file inside dir, rejecting anything that
// would escape it.
func (s *DiskStore) resolve(ref domain.AttachmentRef) (string, error) {
	name, ok := strings.CutPrefix(string(ref), s.urlPrefix+"/")
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errInvalidRef
	}
	return filepath.Join(s.dir, name), nil
}
