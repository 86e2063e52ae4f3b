package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// CloudStorageClient wraps the avatar bucket. Avatar uploads are handled by
// the out-of-scope profile service; this client resolves stored object paths
// to servable URLs for the profile snapshots carried on conversations.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// PublicURL resolves an avatar object path to its public URL.
func (c *CloudStorageClient) PublicURL(objectPath string) string {
	if objectPath == "" {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectPath)
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
