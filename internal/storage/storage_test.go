package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoKey(t *testing.T) {
	id := uuid.New()
	key := PhotoKey(id, "IMG_0042.JPG")
	assert.True(t, strings.HasPrefix(key, "work-orders/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, PhotoKey(id, "IMG_0042.JPG"))

	assert.NotContains(t, PhotoKey(id, "noext"), ".")
	assert.True(t, strings.HasSuffix(PhotoKey(id, `C:\photos\a.png`), ".png"))
}

func TestMemoryPut(t *testing.T) {
	m := NewMemory("https://cdn.example.com/")
	url, err := m.Put(context.Background(), "work-orders/x/a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/work-orders/x/a.jpg", url)

	b, ok := m.Get("work-orders/x/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(b))
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Options{Driver: "ftp"})
	assert.Error(t, err)
}
