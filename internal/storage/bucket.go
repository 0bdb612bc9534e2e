package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/guonaihong/gout"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/pkg/errors"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Bucket uploads product images to an object storage bucket that exposes the
// storage/v1 REST layout and serves objects publicly.
type Bucket struct {
	baseURL string
	key     string
	bucket  string
	client  *http.Client
	node    *snowflake.Node
	now     func() time.Time
}

func NewBucket(baseURL, key, bucket string, client *http.Client) (*Bucket, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Bucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		bucket:  bucket,
		client:  client,
		node:    node,
		now:     time.Now,
	}, nil
}

// ObjectKey builds a date prefixed, collision free object name.
func (b *Bucket) ObjectKey(filename string) string {
	name := unsafeName.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("%s/%s-%s", b.now().Format("2006-01-02"), b.node.Generate().String(), name)
}

// PublicURL is where an uploaded object can be fetched without credentials.
func (b *Bucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.baseURL, b.bucket, key)
}

// Upload stores the file and returns its public URL.
func (b *Bucket) Upload(ctx context.Context, up *domain.Upload) (string, error) {
	key := b.ObjectKey(up.Filename)
	target := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.baseURL, b.bucket, key)

	var resp string
	var code int
	err := gout.New(b.client).
		POST(target).
		WithContext(ctx).
		SetHeader(gout.H{
			"Authorization": "Bearer " + b.key,
			"apikey":        b.key,
			"Content-Type":  up.ContentType,
			"x-upsert":      "false",
		}).
		SetBody(string(up.Data)).
		BindBody(&resp).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "bucket upload")
	}
	if code < 200 || code > 299 {
		return "", errors.Errorf("bucket upload status %d: %s", code, resp)
	}
	return b.PublicURL(key), nil
}
