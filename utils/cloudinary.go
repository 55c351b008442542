package utils

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloud uploads campaign images to Cloudinary. Credentials are injected
// from the configuration at startup.
type Cloud struct {
	cloudName    string
	apiKey       string
	apiSecret    string
	uploadPrefix string
}

func NewCloud(cloudName, apiKey, apiSecret string) *Cloud {
	return &Cloud{cloudName: cloudName, apiKey: apiKey, apiSecret: apiSecret}
}

// NewCloudWithUploadPrefix points the client at an alternate API base
// URL. Use in tests to run uploads against a stub server.
func NewCloudWithUploadPrefix(cloudName, apiKey, apiSecret, uploadPrefix string) *Cloud {
	return &Cloud{cloudName: cloudName, apiKey: apiKey, apiSecret: apiSecret, uploadPrefix: uploadPrefix}
}

// Configured reports whether uploads can be performed.
func (c *Cloud) Configured() bool {
	return c != nil && c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

func (c *Cloud) instance() (*cloudinary.Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(c.cloudName, c.apiKey, c.apiSecret)
	if err != nil {
		return nil, err
	}
	if c.uploadPrefix != "" {
		cld.Config.API.UploadPrefix = c.uploadPrefix
	}
	return cld, nil
}

// UploadCampaignImage stores a campaign cover image in the "campaigns"
// folder and returns its public URL.
func (c *Cloud) UploadCampaignImage(file multipart.File, fileHeader *multipart.FileHeader) (string, error) {
	cld, err := c.instance()
	if err != nil {
		return "", fmt.Errorf("cloudinary config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	uploadResp, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: "campaigns",
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %v", err)
	}

	return uploadResp.SecureURL, nil
}

// DeleteImage removes a previously uploaded image given its full URL.
// Used when a campaign's cover image is replaced.
func (c *Cloud) DeleteImage(imageURL string) error {
	cld, err := c.instance()
	if err != nil {
		return fmt.Errorf("cloudinary config error: %v", err)
	}

	publicID, err := extractPublicID(imageURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("delete error: %v", err)
	}

	return nil
}

// extractPublicID pulls the Cloudinary public ID out of a delivery URL.
// Example: https://res.cloudinary.com/demo/image/upload/v1234567890/campaigns/abc123.jpg
func extractPublicID(imageURL string) (string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(parsedURL.Path, "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}

	// Drop the version segment (e.g. v1234567890) if present.
	cleanPath := parts[len(parts)-2:]
	if strings.HasPrefix(cleanPath[0], "v") {
		parts = append(parts[:len(parts)-2], parts[len(parts)-1])
	}

	publicID := strings.TrimSuffix(path.Join(parts[3:]...), path.Ext(parts[len(parts)-1]))

	return publicID, nil
}
