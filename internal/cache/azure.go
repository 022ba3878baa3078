package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fridgefeast/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type BlobCache struct {
	client    *azblob.Client
	container string
}

var _ ListCache = (*BlobCache)(nil)

// NewBlobClient authenticates with the shared key when one is given and with
// the default Azure credential chain otherwise.
func NewBlobClient(cfg config.AzureConfig) (*azblob.Client, error) {
	if cfg.AccountName == "" {
		return nil, errors.New("azure storage account name is required")
	}
	serviceURL := cfg.Endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}

	if cfg.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		return azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default azure credential: %w", err)
	}
	return azblob.NewClient(serviceURL, cred, nil)
}

func NewBlobCache(client *azblob.Client, container string) *BlobCache {
	return &BlobCache{client: client, container: container}
}

// EnsureContainer creates the container if it is missing.
func (bc *BlobCache) EnsureContainer(ctx context.Context) error {
	_, err := bc.client.CreateContainer(ctx, bc.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", bc.container, err)
	}
	return nil
}

// Ready lets the server's readiness check wait on storage.
func (bc *BlobCache) Ready(ctx context.Context) error {
	return bc.EnsureContainer(ctx)
}

func (bc *BlobCache) List(ctx context.Context, prefix string, _ string) ([]string, error) {
	var keys []string
	pager := bc.client.NewListBlobsFlatPager(bc.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get next page of blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			keys = append(keys, strings.TrimPrefix(*item.Name, prefix))
		}
	}
	return keys, nil
}

func (bc *BlobCache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	stream, err := bc.client.DownloadStream(ctx, bc.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		slog.ErrorContext(ctx, "failed to download blob", "key", key, "error", err)
		return nil, err
	}
	return stream.Body, nil
}

func (bc *BlobCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := bc.client.ServiceClient().NewContainerClient(bc.container).NewBlobClient(key).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, err
}

func (bc *BlobCache) Put(ctx context.Context, key, value string, opts PutOptions) error {
	uploadOpts := &azblob.UploadStreamOptions{}
	if opts.Condition == PutIfNoneMatch {
		etag := azcore.ETagAny
		uploadOpts.AccessConditions = &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: &etag},
		}
	}
	_, err := bc.client.UploadStream(ctx, bc.container, key, strings.NewReader(value), uploadOpts)
	if err != nil && opts.Condition == PutIfNoneMatch &&
		(bloberror.HasCode(err, bloberror.BlobAlreadyExists) || bloberror.HasCode(err, bloberror.ConditionNotMet)) {
		return ErrAlreadyExists
	}
	return err
}
