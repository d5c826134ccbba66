package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Folder groups onboarding documents in the media library.
const Folder = "onboarding-documents"

// FileUploader pushes KYC documents to Cloudinary and returns their secure
// URL.
type FileUploader struct {
	cld    *cloudinary.Cloudinary
	logger *slog.Logger
}

func New(cloudName, apiKey, apiSecret string, logger *slog.Logger) (*FileUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}

	return &FileUploader{
		cld:    cld,
		logger: logger,
	}, nil
}

func (f *FileUploader) Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       Folder,
		PublicID:     publicID(name),
		ResourceType: resourceType(contentType),
	}

	result, err := f.cld.Upload.Upload(ctx, content, params)
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}

	f.logger.Info("file uploaded", "url", result.SecureURL, "bytes", result.Bytes)
	return result.SecureURL, nil
}

func publicID(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// resourceType uploads images as images and lets Cloudinary detect the rest.
func resourceType(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return "image"
	}
	return "auto"
}
