package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"doppel/internal/services"
)

// ObjectStore is the slice of the minio client the publisher needs.
type ObjectStore interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

var _ ObjectStore = (*minio.Client)(nil)

// Client moves artifacts between remote references and the local workspace.
// Both operations are blocking and single-attempt; callers do not retry.
type Client struct {
	httpClient *http.Client
	store      ObjectStore
	bucket     string
	publicBase string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a transfer client publishing into the given bucket.
func New(store ObjectStore, bucket, publicBase string, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("object store required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("bucket required")
	}
	publicBase = strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if publicBase == "" {
		return nil, errors.New("public base url required")
	}
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		store:      store,
		bucket:     bucket,
		publicBase: publicBase,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fetch streams a remote object into the workspace at destPath.
func (c *Client) Fetch(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return services.Wrap(services.ErrTransfer, "", "fetch", fmt.Sprintf("build request for %s", rawURL), err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransfer, "", "fetch", fmt.Sprintf("get %s", rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransfer, "", "fetch", fmt.Sprintf("get %s: status %d", rawURL, resp.StatusCode), nil)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return services.Wrap(services.ErrTransfer, "", "fetch", fmt.Sprintf("create %s", destPath), err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(destPath)
		return services.Wrap(services.ErrTransfer, "", "fetch", fmt.Sprintf("write %s", destPath), err)
	}
	if err := file.Close(); err != nil {
		return services.Wrap(services.ErrTransfer, "", "fetch", fmt.Sprintf("close %s", destPath), err)
	}
	return nil
}

// Publish streams a local artifact to durable storage and returns the stable
// public URL of the form <base>/<bucket>/<key>.
func (c *Client) Publish(ctx context.Context, localPath, key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", services.Wrap(services.ErrTransfer, "", "publish", "destination key required", nil)
	}

	opts := minio.PutObjectOptions{ContentType: contentTypeForKey(key)}
	if _, err := c.store.FPutObject(ctx, c.bucket, key, localPath, opts); err != nil {
		return "", services.Wrap(services.ErrTransfer, "", "publish", fmt.Sprintf("upload %s", key), err)
	}

	return c.URLFor(key), nil
}

// URLFor returns the public URL an object key resolves to.
func (c *Client) URLFor(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, strings.TrimLeft(key, "/"))
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(key, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
