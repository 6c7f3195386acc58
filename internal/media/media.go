// Package media uploads arrival photos to external image storage.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderOff        = "off"
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
)

var (
	ErrNotConfigured = errors.New("photo storage not configured")
	ErrInvalidImage  = errors.New("invalid image payload")
)

type Config struct {
	Provider   string
	Cloudinary CloudinaryConfig
	S3         S3Config
}

// Photo carries either a data URI or bare base64 image bytes.
type Photo struct {
	Data   string
	Folder string
}

type Uploaded struct {
	URL        string
	ExternalID string
}

type Store interface {
	Upload(ctx context.Context, photo Photo) (Uploaded, error)
	Enabled() bool
}

func New(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOff:
		return Off{}, nil
	case ProviderCloudinary:
		return NewCloudinary(cfg.Cloudinary)
	case ProviderS3:
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown photo provider: %s", cfg.Provider)
	}
}

type Off struct{}

func (Off) Upload(context.Context, Photo) (Uploaded, error) {
	return Uploaded{}, ErrNotConfigured
}

func (Off) Enabled() bool { return false }

// LooksLikeImage accepts data URIs and long bare base64 strings.
func LooksLikeImage(data string) bool {
	return strings.HasPrefix(data, "data:image/") || len(data) > 2000
}

// DataURI returns data as a data URI, defaulting bare base64 to JPEG.
func DataURI(data string) string {
	if strings.HasPrefix(data, "data:") {
		return data
	}
	return "data:image/jpeg;base64," + data
}

func decode(data string) ([]byte, string, error) {
	contentType := "image/jpeg"
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", ErrInvalidImage
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		data = payload
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", ErrInvalidImage
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return raw, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
