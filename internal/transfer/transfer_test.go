package transfer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"

	"doppel/internal/services"
	"doppel/internal/transfer"
)

type fakeStore struct {
	bucket string
	key    string
	path   string
	opts   minio.PutObjectOptions
	err    error
}

func (f *fakeStore) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket = bucketName
	f.key = objectName
	f.path = filePath
	f.opts = opts
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, f.err
}

func newClient(t *testing.T, store transfer.ObjectStore) *transfer.Client {
	t.Helper()
	client, err := transfer.New(store, "results-bucket", "https://store.example/")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestFetchStreamsBodyToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	client := newClient(t, &fakeStore{})
	dest := filepath.Join(t.TempDir(), "source.mp4")

	if err := client.Fetch(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read fetched file: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestFetchNonOKStatusIsTransferError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newClient(t, &fakeStore{})
	dest := filepath.Join(t.TempDir(), "source.mp4")

	err := client.Fetch(context.Background(), srv.URL, dest)
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected no file on failed fetch, stat err=%v", statErr)
	}
}

func TestPublishReturnsPublicURL(t *testing.T) {
	store := &fakeStore{}
	client := newClient(t, store)

	local := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(local, []byte("final"), 0o644); err != nil {
		t.Fatalf("write local file: %v", err)
	}

	url, err := client.Publish(context.Background(), local, "results/J1_result.mp4")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if url != "https://store.example/results-bucket/results/J1_result.mp4" {
		t.Fatalf("unexpected url %q", url)
	}
	if store.bucket != "results-bucket" || store.key != "results/J1_result.mp4" || store.path != local {
		t.Fatalf("unexpected upload call: %+v", store)
	}
	if store.opts.ContentType != "video/mp4" {
		t.Fatalf("unexpected content type %q", store.opts.ContentType)
	}
}

func TestPublishUploadFaultIsTransferError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	client := newClient(t, store)

	local := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(local, []byte("final"), 0o644); err != nil {
		t.Fatalf("write local file: %v", err)
	}

	_, err := client.Publish(context.Background(), local, "results/J1_result.mp4")
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected underlying fault in message, got %v", err)
	}
}
