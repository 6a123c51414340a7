package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-dreamer/internal/services/retry"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type memStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	publicBase  string
	putErr      error
	deleted     []string
	presignHits int
}

func newMemStore(publicBase string) *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}, publicBase: publicBase}
}

func (m *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	m.presignHits++
	return "https://signed.example/" + key + "?X-Amz-Expires=" + expiry.String(), nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStore) PublicURL(key string) string { return m.publicBase + "/" + key }

func fastConfig() UploaderConfig {
	cfg := DefaultUploaderConfig()
	cfg.Retry = retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return cfg
}

func TestUploadImageFromURL_PublicURL(t *testing.T) {
	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	}))
	defer public.Close()
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer source.Close()

	store := newMemStore(public.URL)
	u := NewUploader(store, fastConfig(), nopLogger{})
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }

	img, err := u.UploadImageFromURL(context.Background(), source.URL, "user-1", "room-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.Key, "user-1/room-1/1700000000000_"))
	assert.True(t, strings.HasSuffix(img.Key, ".jpg"))
	assert.Equal(t, public.URL+"/"+img.Key, img.URL)
	assert.Equal(t, []byte("jpeg-bytes"), store.objects[img.Key])
	assert.Equal(t, "image/jpeg", store.types[img.Key])
	assert.Zero(t, store.presignHits)
}

func TestUploadImageFromURL_FallsBackToSignedURL(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "")
		_, _ = w.Write([]byte("png"))
	}))
	defer source.Close()
	private := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer private.Close()

	store := newMemStore(private.URL)
	img, err := NewUploader(store, fastConfig(), nopLogger{}).UploadImageFromURL(context.Background(), source.URL, "u", "r")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.URL, "https://signed.example/u/r/"))
	assert.Contains(t, img.URL, "168h0m0s")
	assert.True(t, strings.HasSuffix(img.Key, ".png"))
	assert.Equal(t, 1, store.presignHits)
}

func TestUploadImageFromURL_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer source.Close()

	store := newMemStore(source.URL)
	_, err := NewUploader(store, fastConfig(), nopLogger{}).UploadImageFromURL(context.Background(), source.URL, "u", "r")
	require.NoError(t, err)
	// three GETs plus the HEAD reachability check
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))
}

func TestUploadImageFromURL_GivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer source.Close()

	_, err := NewUploader(newMemStore(""), fastConfig(), nopLogger{}).UploadImageFromURL(context.Background(), source.URL, "u", "r")
	require.Error(t, err)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestUploadImageFromURL_RejectsLargeImages(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, MaxImageBytes+10))
	}))
	defer source.Close()

	_, err := NewUploader(newMemStore(""), fastConfig(), nopLogger{}).UploadImageFromURL(context.Background(), source.URL, "u", "r")
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestUploadImageFromURL_StoreFailure(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer source.Close()

	store := newMemStore("")
	store.putErr = errors.New("bucket gone")
	_, err := NewUploader(store, fastConfig(), nopLogger{}).UploadImageFromURL(context.Background(), source.URL, "u", "r")
	assert.ErrorContains(t, err, "bucket gone")
}

func TestUploaderDisabled(t *testing.T) {
	u := NewUploader(nil, fastConfig(), nopLogger{})
	assert.False(t, u.Enabled())
	_, err := u.UploadImageFromURL(context.Background(), "http://x", "u", "r")
	assert.Error(t, err)
	assert.False(t, u.DeleteImage(context.Background(), "k"))
}

func TestDeleteImage(t *testing.T) {
	store := newMemStore("")
	assert.True(t, NewUploader(store, fastConfig(), nopLogger{}).DeleteImage(context.Background(), "a/b/c.png"))
	assert.Equal(t, []string{"a/b/c.png"}, store.deleted)
}

func TestNewStore_EmptyDriverDisables(t *testing.T) {
	store, err := New(context.Background(), Options{})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = New(context.Background(), Options{Driver: "ftp"})
	var unknown *UnknownDriverError
	assert.ErrorAs(t, err, &unknown)
}
