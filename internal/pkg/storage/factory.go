package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted in the storage.driver config key.
const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

// ErrUnknownDriver indicates the configured driver name matches no backend.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the per-backend configuration; only the block for
// the selected driver is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

// NewFromDriver builds the Storage backend named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(driver) {
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverGCS:
		return NewGCS(ctx, opts.GCS)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
