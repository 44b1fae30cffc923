package imagehost

import (
	"context"
	"fmt"
	"io"

	"contacts-server/internal/interfaces"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Compile-time check to ensure CloudinaryUploader implements ImageUploader
var _ interfaces.ImageUploader = (*CloudinaryUploader)(nil)

// avatarTransformation crops uploads to the avatar display size.
const avatarTransformation = "c_fill,h_250,w_250"

// CloudinaryUploader stores avatar images with Cloudinary and returns
// fixed-size delivery URLs.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	logger *zap.Logger
}

// NewCloudinaryUploader authenticates against Cloudinary with API
// credentials.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret string, logger *zap.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary client: %w", err)
	}
	return &CloudinaryUploader{
		cld:    cld,
		logger: logger.Named("Cloudinary"),
	}, nil
}

// Upload stores the image under the given public ID, overwriting any
// previous upload, and returns a 250x250 fill-cropped URL pinned to the new
// version.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:  publicID,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		u.logger.Error("Cloudinary upload failed", zap.Error(err), zap.String("publicID", publicID))
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}

	img, err := u.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to build cloudinary asset: %w", err)
	}
	img.Transformation = avatarTransformation
	img.Version = resp.Version

	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build cloudinary url: %w", err)
	}

	u.logger.Info("Avatar uploaded", zap.String("publicID", publicID), zap.Int("version", resp.Version))
	return url, nil
}
