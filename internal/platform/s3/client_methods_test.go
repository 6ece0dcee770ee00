package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Client{s3: client, region: "us-east-1"}, server
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "static credentials",
			opts: Options{Endpoint: "https://s3.example.com", Region: "eu-central-1", AccessKey: "a", SecretKey: "b"},
		},
		{
			name: "default credential chain",
			opts: Options{Region: "eu-central-1", PathStyle: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewClient(tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.region != tt.opts.Region {
				t.Errorf("expected region %s, got %s", tt.opts.Region, client.region)
			}
		})
	}
}

func TestEnsureBucket_Exists(t *testing.T) {
	t.Parallel()

	var creates atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(200)
		case http.MethodPut:
			creates.Add(1)
			w.WriteHeader(200)
		}
	})

	client, server := testClient(t, handler)
	defer server.Close()

	if err := client.EnsureBucket(context.Background(), "certs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := creates.Load(); n != 0 {
		t.Errorf("expected no create call, got %d", n)
	}
}

func TestEnsureBucket_Creates(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var created bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(404)
		case http.MethodPut:
			mu.Lock()
			created = true
			mu.Unlock()
			xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
		}
	})

	client, server := testClient(t, handler)
	defer server.Close()

	if err := client.EnsureBucket(context.Background(), "certs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !created {
		t.Error("expected bucket to be created")
	}
}

func TestEnsureBucket_AlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(404)
			return
		}
		xmlResponse(w, 409, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>BucketAlreadyOwnedByYou</Code>
  <Message>Your previous request to create the named bucket succeeded and you already own it.</Message>
</Error>`)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	if err := client.EnsureBucket(context.Background(), "certs"); err != nil {
		t.Fatalf("expected nil error for already owned bucket, got: %v", err)
	}
}

func TestEnsureBucket_Forbidden(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	err := client.EnsureBucket(context.Background(), "certs")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to check bucket certs") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestPutObject_Success(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	var capturedIfNoneMatch string
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			body, _ := io.ReadAll(r.Body)
			capturedBody = body
			capturedIfNoneMatch = r.Header.Get("If-None-Match")
			mu.Unlock()
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	data := []byte("identity: logs")
	if err := client.PutObject(context.Background(), "certs", "logs.yaml", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(capturedBody, data) {
		t.Errorf("expected body %q, got %q", data, capturedBody)
	}
	if capturedIfNoneMatch != "" {
		t.Errorf("unconditional put sent If-None-Match %q", capturedIfNoneMatch)
	}
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 400, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>InvalidArgument</Code>
  <Message>Bad Request</Message>
</Error>`)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	err := client.PutObject(context.Background(), "certs", "logs.yaml", []byte("data"))
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to put object logs.yaml in bucket certs") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestPutObjectIfAbsent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	objects := map[string][]byte{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.Method != http.MethodPut {
			w.WriteHeader(405)
			return
		}
		if r.Header.Get("If-None-Match") != "*" {
			w.WriteHeader(400)
			return
		}
		if _, ok := objects[r.URL.Path]; ok {
			xmlResponse(w, 412, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>PreconditionFailed</Code>
  <Message>At least one of the pre-conditions you specified did not hold</Message>
</Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		objects[r.URL.Path] = body
		w.WriteHeader(200)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	ctx := context.Background()
	if err := client.PutObjectIfAbsent(ctx, "certs", "logs.yaml", []byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := client.PutObjectIfAbsent(ctx, "certs", "logs.yaml", []byte("second"))
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := string(objects["/certs/logs.yaml"]); got != "first" {
		t.Errorf("expected first write to win, got %q", got)
	}
}

func TestGetObject_Success(t *testing.T) {
	t.Parallel()

	expectedData := []byte("object content here")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Length", fmt.Sprintf("%d", len(expectedData)))
			w.WriteHeader(200)
			_, _ = w.Write(expectedData)
			return
		}
		w.WriteHeader(404)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	data, err := client.GetObject(context.Background(), "certs", "logs.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, expectedData) {
		t.Errorf("expected %q, got %q", expectedData, data)
	}
}

func TestGetObject_NotFound(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>NoSuchKey</Code>
  <Message>The specified key does not exist.</Message>
</Error>`)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	_, err := client.GetObject(context.Background(), "certs", "missing.yaml")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestGetObject_Error(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 403, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>Access Denied</Message>
</Error>`)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	_, err := client.GetObject(context.Background(), "certs", "logs.yaml")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if errors.Is(err, ErrObjectNotFound) {
		t.Error("access denied must not look like a missing object")
	}
	if !strings.Contains(err.Error(), "failed to get object logs.yaml from bucket certs") {
		t.Errorf("unexpected error message: %v", err)
	}
}
