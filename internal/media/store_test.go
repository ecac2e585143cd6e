package media

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-portal/internal/domain"
)

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name        string
		category    domain.MediaCategory
		contentType string
		size        int64
		limit       int64
		wantErr     bool
		tooLarge    bool
	}{
		{name: "image ok", category: domain.MediaImage, contentType: "image/jpeg", size: 10, limit: 100},
		{name: "video ok", category: domain.MediaVideo, contentType: "video/mp4", size: 10, limit: 100},
		{name: "mixed case type", category: domain.MediaImage, contentType: "Image/PNG", size: 10, limit: 100},
		{name: "video as photo", category: domain.MediaImage, contentType: "video/mp4", wantErr: true},
		{name: "image as video", category: domain.MediaVideo, contentType: "image/png", wantErr: true},
		{name: "missing type", category: domain.MediaImage, contentType: "", wantErr: true},
		{name: "prefix only", category: domain.MediaImage, contentType: "imagefoo", wantErr: true},
		{name: "declared size over limit", category: domain.MediaVideo, contentType: "video/mp4", size: 101, limit: 100, wantErr: true, tooLarge: true},
		{name: "no limit", category: domain.MediaVideo, contentType: "video/mp4", size: 1 << 40, limit: 0},
		{name: "unknown category", category: "audio", contentType: "audio/mpeg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkUpload(tt.category, domain.Upload{ContentType: tt.contentType, Size: tt.size}, tt.limit)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrMediaRejected)
			var rejected *domain.MediaRejectedError
			require.True(t, errors.As(err, &rejected))
			assert.Equal(t, tt.tooLarge, rejected.TooLarge)
		})
	}
}

func TestGenerateName(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	pattern := regexp.MustCompile(`^1718000000123-\d{9}\.jpg$`)

	name := generateName("Front Bumper.JPG", now)
	assert.Regexp(t, pattern, name)

	assert.NotEqual(t, generateName("a.jpg", now), generateName("a.jpg", now), "random suffix should differ")
	assert.Regexp(t, `^1718000000123-\d{9}$`, generateName("noext", now))
	assert.Regexp(t, `^1718000000123-\d{9}\.mp4$`, generateName("../../etc/clip.mp4", now))
}

func TestLimitedReader(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		r := newLimitedReader(strings.NewReader("12345"), 5)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "12345", string(data))
		assert.False(t, exceeded(r))
	})

	t.Run("over limit", func(t *testing.T) {
		r := newLimitedReader(strings.NewReader("123456"), 5)
		_, err := io.ReadAll(r)
		assert.ErrorIs(t, err, errTooLarge)
		assert.True(t, exceeded(r))
	})

	t.Run("unlimited passes through", func(t *testing.T) {
		src := bytes.NewReader(make([]byte, 1024))
		r := newLimitedReader(src, 0)
		assert.Same(t, src, r)
	})
}
