// Package storage puts completion photos into object storage and returns
// their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Options struct {
	Driver    string // minio | s3 | memory
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL, when set, prefixes object keys instead of the driver's own URL form.
	PublicURL string
}

// New builds the store selected by o.Driver.
func New(ctx context.Context, o Options) (Store, error) {
	switch strings.ToLower(o.Driver) {
	case "minio":
		return NewMinio(o)
	case "s3":
		return NewS3(ctx, o)
	case "", "memory":
		return NewMemory(o.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", o.Driver)
	}
}

// PhotoKey returns work-orders/<id>/<random><ext>. The extension comes from
// the uploaded file name, lower-cased.
func PhotoKey(workOrderID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(fileName, "\\", "/")))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("work-orders/%s/%s%s", workOrderID, uuid.New(), ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// Memory keeps objects in process. Used for local runs and tests.
type Memory struct {
	base string

	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemory(publicURL string) *Memory {
	if publicURL == "" {
		publicURL = "memory://photos"
	}
	return &Memory{base: publicURL, objects: map[string][]byte{}}
}

func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()
	return joinURL(m.base, key), nil
}

// Get returns a stored object.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
