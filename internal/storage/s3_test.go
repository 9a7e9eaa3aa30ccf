package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func testS3Config(endpoint string) S3Config {
	return S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}
}

func TestNewS3Storage(t *testing.T) {
	tempDir := t.TempDir()

	cfg := testS3Config("http://localhost:4566") // LocalStack-like endpoint

	storage, err := NewS3Storage(context.Background(), tempDir, cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	if storage.bucket != cfg.Bucket {
		t.Errorf("bucket = %v, want %v", storage.bucket, cfg.Bucket)
	}
	if storage.region != cfg.Region {
		t.Errorf("region = %v, want %v", storage.region, cfg.Region)
	}
}

func TestNewS3Storage_RequiresBucketAndRegion(t *testing.T) {
	_, err := NewS3Storage(context.Background(), t.TempDir(), S3Config{Bucket: "only-bucket"})
	if !errors.Is(err, ErrS3NotConfigured) {
		t.Errorf("expected ErrS3NotConfigured, got %v", err)
	}
}

func TestS3Storage_InheritsLocalStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewS3Storage(context.Background(), tempDir, testS3Config("http://localhost:4566"))
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	path, err := storage.TempOutput(context.Background(), "/podcasts/episode.opus")
	if err != nil {
		t.Fatalf("TempOutput() error = %v", err)
	}
	if filepath.Dir(path) != tempDir || filepath.Ext(path) != ".opus" {
		t.Errorf("unexpected temp output %s", path)
	}

	if err := storage.Discard(path); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
}

func TestS3Storage_Publish_MockServer(t *testing.T) {
	// Create a mock S3 server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}

		if !strings.Contains(r.URL.Path, "/test-bucket/trimmed/test.opus") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if !strings.Contains(string(body), "test content") {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	storage, err := NewS3Storage(context.Background(), t.TempDir(), testS3Config(server.URL))
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	url, err := storage.Publish(context.Background(), "trimmed/test.opus", bytes.NewReader([]byte("test content")))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	expectedURL := server.URL + "/test-bucket/trimmed/test.opus"
	if url != expectedURL {
		t.Errorf("url = %v, want %v", url, expectedURL)
	}
}

func TestS3Storage_Publish_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	storage, err := NewS3Storage(context.Background(), t.TempDir(), testS3Config(server.URL))
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	_, err = storage.Publish(context.Background(), "key", bytes.NewReader([]byte("data")))
	if err == nil {
		t.Error("expected error from forbidden upload")
	}
}

func TestS3Storage_ObjectURL(t *testing.T) {
	s := &S3Storage{bucket: "b", region: "eu-west-1"}
	if got := s.objectURL("k.opus"); got != "https://b.s3.eu-west-1.amazonaws.com/k.opus" {
		t.Errorf("objectURL() = %s", got)
	}

	s.endpoint = "http://minio:9000/"
	if got := s.objectURL("k.opus"); got != "http://minio:9000/b/k.opus" {
		t.Errorf("objectURL() = %s", got)
	}
}
