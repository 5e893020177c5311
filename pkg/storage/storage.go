// Package storage wraps the Cloud Storage bucket operations the bootstrap
// flow needs behind a small interface so interactive flows can be tested
// without network access.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// ErrNotFound reports that the requested bucket does not exist.
var ErrNotFound = errors.New("storage: bucket not found")

// ErrForbidden reports that the caller lacks permission on the bucket,
// which usually means the name is taken by another project.
var ErrForbidden = errors.New("storage: access to bucket denied")

// Client is the subset of Cloud Storage the bootstrap flow touches.
type Client interface {
	// ListBuckets returns the bucket names visible in the project.
	ListBuckets(ctx context.Context, project string) ([]string, error)
	// GetBucket resolves a bucket by name. Missing buckets map to
	// ErrNotFound and permission failures to ErrForbidden.
	GetBucket(ctx context.Context, name string) (string, error)
	// CreateBucket creates a bucket in the project and returns its name.
	CreateBucket(ctx context.Context, project, name string) (string, error)
}

type gcsClient struct {
	client *gcs.Client
}

// NewClient dials Cloud Storage with application default credentials.
func NewClient(ctx context.Context) (Client, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialing cloud storage: %w", err)
	}
	return &gcsClient{client: c}, nil
}

func (g *gcsClient) ListBuckets(ctx context.Context, project string) ([]string, error) {
	var names []string
	it := g.client.Buckets(ctx, project)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing buckets in %s: %w", project, mapError(err))
		}
		names = append(names, attrs.Name)
	}
}

func (g *gcsClient) GetBucket(ctx context.Context, name string) (string, error) {
	attrs, err := g.client.Bucket(name).Attrs(ctx)
	if err != nil {
		return "", mapError(err)
	}
	return attrs.Name, nil
}

func (g *gcsClient) CreateBucket(ctx context.Context, project, name string) (string, error) {
	if err := g.client.Bucket(name).Create(ctx, project, nil); err != nil {
		return "", mapError(err)
	}
	return name, nil
}

func mapError(err error) error {
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return ErrNotFound
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, apiErr.Message)
		}
	}
	return err
}
