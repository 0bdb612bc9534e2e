package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/orangeboy/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_ObjectKey(t *testing.T) {
	b, err := NewBucket("https://proj.example", "k", "product-images", nil)
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }

	k1 := b.ObjectKey("my photo (1).png")
	k2 := b.ObjectKey("my photo (1).png")
	assert.True(t, strings.HasPrefix(k1, "2024-05-06/"))
	assert.True(t, strings.HasSuffix(k1, "-my_photo_1_.png"))
	assert.NotEqual(t, k1, k2)
	assert.NotContains(t, b.ObjectKey("../../etc/passwd"), "..")
}

func TestBucket_Upload(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"Key":"ok"}`)
	}))
	defer srv.Close()

	b, err := NewBucket(srv.URL, "service-key", "product-images", srv.Client())
	require.NoError(t, err)
	url, err := b.Upload(context.Background(), &domain.Upload{Filename: "tea.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/storage/v1/object/product-images/"))
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png", string(gotBody))
	key := strings.TrimPrefix(gotPath, "/storage/v1/object/product-images/")
	assert.Equal(t, srv.URL+"/storage/v1/object/public/product-images/"+key, url)
}

func TestBucket_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	b, err := NewBucket(srv.URL, "k", "b", srv.Client())
	require.NoError(t, err)
	_, err = b.Upload(context.Background(), &domain.Upload{Filename: "a.png", Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
