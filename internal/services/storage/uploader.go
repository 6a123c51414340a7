package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-dreamer/internal/services/retry"
)

const (
	MaxImageBytes        = 5 * 1024 * 1024
	DefaultPresignExpiry = 7 * 24 * time.Hour
)

var ErrImageTooLarge = errors.New("image file size exceeds 5MB limit")

// StoredImage is where an uploaded image ended up.
type StoredImage struct {
	URL string
	Key string
}

type UploaderConfig struct {
	Retry           retry.Config
	DownloadTimeout time.Duration
	CheckTimeout    time.Duration
	PresignExpiry   time.Duration
}

func DefaultUploaderConfig() UploaderConfig {
	return UploaderConfig{
		Retry:           retry.Config{MaxAttempts: 3, BaseDelay: time.Second},
		DownloadTimeout: 30 * time.Second,
		CheckTimeout:    5 * time.Second,
		PresignExpiry:   DefaultPresignExpiry,
	}
}

// Uploader copies provider-hosted images into our own bucket.
type Uploader struct {
	store  ObjectStore
	client *http.Client
	config UploaderConfig
	logger Logger
	now    func() time.Time
}

func NewUploader(store ObjectStore, config UploaderConfig, logger Logger) *Uploader {
	return &Uploader{
		store:  store,
		client: &http.Client{},
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Enabled is false when no backend is configured.
func (u *Uploader) Enabled() bool {
	return u != nil && u.store != nil
}

// UploadImageFromURL downloads the image and stores it under
// {userID}/{roomID}/{unixMillis}_{uuid}.{ext}. The returned URL is public when it
// answers a HEAD request, presigned otherwise.
func (u *Uploader) UploadImageFromURL(ctx context.Context, imageURL, userID, roomID string) (*StoredImage, error) {
	if !u.Enabled() {
		return nil, errors.New("object storage is not configured")
	}

	var stored *StoredImage
	err := retry.Do(ctx, u.config.Retry, func(ctx context.Context, attempt int) error {
		u.logger.Debug("Uploading image", "attempt", attempt, "max_attempts", u.config.Retry.MaxAttempts)
		img, err := u.uploadOnce(ctx, imageURL, userID, roomID)
		if err != nil {
			u.logger.Warn("Image upload attempt failed", "attempt", attempt, "error", err)
			return err
		}
		stored = img
		return nil
	})
	if err != nil {
		u.logger.Error("Failed to upload image", "error", err)
		return nil, fmt.Errorf("upload image: %w", err)
	}

	u.logger.Info("Image uploaded", "key", stored.Key)
	return stored, nil
}

func (u *Uploader) uploadOnce(ctx context.Context, imageURL, userID, roomID string) (*StoredImage, error) {
	data, contentType, err := u.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	ext := "png"
	if strings.Contains(contentType, "jpeg") {
		ext = "jpg"
	}
	key := fmt.Sprintf("%s/%s/%d_%s.%s", userID, roomID, u.now().UnixMilli(), uuid.NewString(), ext)

	if err := u.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}
	return &StoredImage{URL: u.resolveURL(ctx, key), Key: key}, nil
}

func (u *Uploader) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.config.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", retry.Permanent(fmt.Errorf("build download request: %w", err))
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("failed to fetch image from URL: %s", resp.Status)
	}

	// one byte past the limit tells us the body is too large
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", retry.Permanent(ErrImageTooLarge)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

// resolveURL prefers the public URL and falls back to a presigned one.
func (u *Uploader) resolveURL(ctx context.Context, key string) string {
	public := u.store.PublicURL(key)
	if u.reachable(ctx, public) {
		return public
	}

	signed, err := u.store.PresignGet(ctx, key, u.config.PresignExpiry)
	if err != nil {
		u.logger.Warn("Presign failed, returning public URL", "key", key, "error", err)
		return public
	}
	return signed
}

func (u *Uploader) reachable(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, u.config.CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// DeleteImage removes a stored object; failures are logged and reported as false.
func (u *Uploader) DeleteImage(ctx context.Context, key string) bool {
	if !u.Enabled() {
		return false
	}
	if err := u.store.Delete(ctx, key); err != nil {
		u.logger.Error("Failed to delete image", "key", key, "error", err)
		return false
	}
	return true
}
