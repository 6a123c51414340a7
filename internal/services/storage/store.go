// Package storage persists generated images into object storage.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore provides access to object storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	// PublicURL is where the object is served when the bucket allows anonymous reads.
	PublicURL(key string) string
}

// Logger defines the logging interface used by the storage services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Options holds what is needed to construct a backend. Driver selects it.
type Options struct {
	Driver        string
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// New builds the configured backend. An empty driver returns (nil, nil): uploads are disabled.
func New(ctx context.Context, opts Options) (ObjectStore, error) {
	switch opts.Driver {
	case "":
		return nil, nil
	case DriverMinio:
		store, err := NewMinioStore(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverS3:
		store, err := NewS3Store(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, &UnknownDriverError{Driver: opts.Driver}
	}
}

type UnknownDriverError struct{ Driver string }

func (e *UnknownDriverError) Error() string {
	return "unknown storage driver " + e.Driver
}
