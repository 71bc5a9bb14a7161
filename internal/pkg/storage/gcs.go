package storage

import (
	"context"
	"io"

	gcs "cloud.google.com/go/storage"
)

type GCSAdapter struct {
	client *gcs.Client
}

type GCSOptions struct {
	// Client overrides the default client, used by tests with a
	// fake-gcs-server backed client.
	Client *gcs.Client
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		created, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		client = created
	}
	return &GCSAdapter{client: client}, nil
}

func (g *GCSAdapter) Close() error { return g.client.Close() }

func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	writer := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if opts.ContentType != "" {
		writer.ContentType = opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		writer.Metadata = opts.Metadata
	}

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return ObjectInfo{}, err
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}

	attrs := writer.Attrs()
	if attrs == nil {
		return ObjectInfo{
			Bucket:      bucket,
			Key:         key,
			Size:        opts.Size,
			ContentType: opts.ContentType,
			Metadata:    opts.Metadata,
		}, nil
	}
	return gcsAttrsToInfo(attrs), nil
}

func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj := g.client.Bucket(bucket).Object(key)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	info := ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        reader.Attrs.Size,
		ContentType: reader.Attrs.ContentType,
		UpdatedAt:   reader.Attrs.LastModified,
	}
	return reader, info, nil
}

func (g *GCSAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, err
	}
	return gcsAttrsToInfo(attrs), nil
}

func (g *GCSAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	return g.client.Bucket(bucket).Object(key).Delete(ctx)
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}
