package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Enabled() bool { return true }

func (c *Cloudinary) Upload(ctx context.Context, photo Photo) (Uploaded, error) {
	resp, err := c.cld.Upload.Upload(ctx, DataURI(photo.Data), uploader.UploadParams{
		Folder:       photo.Folder,
		ResourceType: "image",
	})
	if err != nil {
		return Uploaded{}, err
	}
	if resp.Error.Message != "" {
		return Uploaded{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return Uploaded{URL: resp.SecureURL, ExternalID: resp.PublicID}, nil
}
