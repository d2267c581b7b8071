package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrObjectNotFound = errors.New("storage object not found")

// getGoogleClient prefers GCS_CREDENTIALS_JSON, then Application Default Credentials.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func gcsBucket() (string, error) {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	return bucket, nil
}

// CheckObjectsExistInGCS returns ErrObjectNotFound (wrapped with the path) for the first missing object.
func CheckObjectsExistInGCS(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if GetStorageProvider() != StorageProviderGCS {
		return fmt.Errorf("storage provider %q is not supported", GetStorageProvider())
	}
	bucketName, err := gcsBucket()
	if err != nil {
		return err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	bucket := client.Bucket(bucketName)
	for _, p := range UniqueSlice(paths) {
		key := ObjectKeyFromPath(p)
		if key == "" {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, p)
		}
		if _, err := bucket.Object(key).Attrs(ctx); err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) {
				return fmt.Errorf("%w: %s", ErrObjectNotFound, p)
			}
			return err
		}
	}
	return nil
}
