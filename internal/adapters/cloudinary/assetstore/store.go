// Package assetstore stores profile photos in Cloudinary.
package assetstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/assetstore"
)

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type uploaderAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Store is an assetstore.Store backed by Cloudinary. Paths are Cloudinary public IDs.
type Store struct {
	folder   string
	upload   uploaderAPI
	imageURL func(publicID string) (string, error)
}

func New(cfg Config) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Store{
		folder: cfg.Folder,
		upload: &cld.Upload,
		imageURL: func(publicID string) (string, error) {
			a, err := cld.Image(publicID)
			if err != nil {
				return "", err
			}
			return a.String()
		},
	}, nil
}

func (s *Store) Put(ctx context.Context, obj assetstore.Object) (string, error) {
	res, err := s.upload.Upload(ctx, obj.Body, uploader.UploadParams{
		PublicID: strings.TrimSuffix(obj.Key, path.Ext(obj.Key)),
		Folder:   s.folder,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to upload %s: %w", obj.Key, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: failed to upload %s: %s", obj.Key, res.Error.Message)
	}
	if res.PublicID == "" {
		return "", errors.New("cloudinary: no public ID returned")
	}
	return res.PublicID, nil
}

// Delete destroys the asset. A public ID Cloudinary does not know is not an error.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	res, err := s.upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary: failed to delete %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: failed to delete %s: %s", publicID, res.Error.Message)
	}
	return nil
}

func (s *Store) URL(ctx context.Context, publicID string) (string, error) {
	_ = ctx
	if publicID == "" {
		return "", assetstore.ErrNotFound
	}
	u, err := s.imageURL(publicID)
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to build URL for %s: %w", publicID, err)
	}
	return u, nil
}
