package services

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// MediaDownloader fetches inbound attachments from the channel's media URLs
type MediaDownloader struct {
	client *resty.Client
}

// NewMediaDownloader authenticates downloads with the Twilio account credentials
func NewMediaDownloader(accountSID, authToken string, timeout time.Duration) *MediaDownloader {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if accountSID != "" {
		client.SetBasicAuth(accountSID, authToken)
	}
	return &MediaDownloader{client: client}
}

// Fetch downloads url and names the file after its content type
func (m *MediaDownloader) Fetch(ctx context.Context, url string) (*models.Media, error) {
	resp, err := m.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("media download returned %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &models.Media{
		Data:        resp.Body(),
		ContentType: contentType,
		Filename:    "tw-" + uuid.NewString()[:8] + extensionFor(contentType),
	}, nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(contentType)
	}
	switch {
	case strings.Contains(mediaType, "pdf"):
		return ".pdf"
	case strings.Contains(mediaType, "png"):
		return ".png"
	case strings.Contains(mediaType, "webp"):
		return ".webp"
	case strings.Contains(mediaType, "jpeg"), strings.Contains(mediaType, "jpg"):
		return ".jpg"
	}
	return ""
}
