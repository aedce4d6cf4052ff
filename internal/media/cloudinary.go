package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary posts unsigned uploads with an upload preset, straight from
// the client.
type Cloudinary struct {
	CloudName string
	Preset    string

	cld *cloudinary.Cloudinary
}

// NewCloudinary builds an unsigned uploader. No API secret is needed: the
// preset decides what the upload may do.
func NewCloudinary(cloudName, preset string, hc *http.Client) (*Cloudinary, error) {
	if cloudName == "" || preset == "" {
		return nil, fmt.Errorf("cloudinary: cloud name and upload preset are required")
	}
	cld, err := cloudinary.NewFromParams(cloudName, "", "")
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	if hc != nil {
		cld.Upload.Client = *hc
	}
	return &Cloudinary{CloudName: cloudName, Preset: preset, cld: cld}, nil
}

// SetUploadPrefix points uploads at another API host.
func (c *Cloudinary) SetUploadPrefix(prefix string) {
	c.cld.Config.API.UploadPrefix = prefix
}

// Upload sends r as an image and returns its secure_url.
func (c *Cloudinary) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	res, err := c.cld.Upload.UnsignedUpload(ctx, r, c.Preset, uploader.UploadParams{ResourceType: "image"})
	if err != nil {
		return "", fmt.Errorf("cloudinary: upload %s: %w", filename, err)
	}
	if res.Error.Message != "" || res.SecureURL == "" {
		return "", fmt.Errorf("cloudinary: upload %s failed: %s", filename, res.Error.Message)
	}
	return res.SecureURL, nil
}
