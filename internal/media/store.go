// Package media stores the photo and video blobs attached to car records.
// It knows nothing about records: callers sequence Store/Delete themselves.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"car-portal/internal/domain"
)

// Store is the blob backend used by the car record lifecycle.
type Store interface {
	// Store persists upload under a generated name after checking its declared
	// content type against category and its size against limit (<= 0 means
	// unlimited). Rejections are *domain.MediaRejectedError, backend failures
	// *domain.StorageError.
	Store(ctx context.Context, category domain.MediaCategory, upload domain.Upload, limit int64) (domain.AttachmentRef, error)
	// Delete removes the blob. Missing blobs and I/O failures are logged,
	// never returned.
	Delete(ctx context.Context, ref domain.AttachmentRef)
	Exists(ctx context.Context, ref domain.AttachmentRef) bool
	// URL returns the address clients use to fetch the blob.
	URL(ref domain.AttachmentRef) string
}

var errInvalidRef = errors.New("invalid attachment reference")

func checkUpload(category domain.MediaCategory, upload domain.Upload, limit int64) error {
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	switch category {
	case domain.MediaImage, domain.MediaVideo:
	default:
		return domain.NewMediaRejectedError(fmt.Sprintf("unknown media category %q", category), false)
	}
	if !strings.HasPrefix(contentType, string(category)+"/") {
		return domain.NewMediaRejectedError(
			fmt.Sprintf("only %s files are allowed, got %q", category, upload.ContentType), false)
	}
	if limit > 0 && upload.Size > limit {
		return tooLarge(limit)
	}
	return nil
}

func tooLarge(limit int64) error {
	return domain.NewMediaRejectedError(fmt.Sprintf("file exceeds the %d byte limit", limit), true)
}

// generateName builds "<unix millis>-<9 random digits><ext>".
func generateName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%d-%09d%s", now.UnixMilli(), rand.IntN(1_000_000_000), ext)
}

// limitedReader fails once more than limit bytes have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

var errTooLarge = errors.New("upload exceeds size limit")

func newLimitedReader(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &limitedReader{r: r, remaining: limit}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, errTooLarge
	}
	return n, err
}

func exceeded(r io.Reader) bool {
	lr, ok := r.(*limitedReader)
	return ok && lr.exceeded
}
