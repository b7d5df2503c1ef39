package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/tidwall/gjson"
)

// ExtractorClient posts document files to the OCR/extraction service
type ExtractorClient struct {
	client  *resty.Client
	baseURL string
}

// NewExtractorClient creates a client for the extraction service at baseURL
func NewExtractorClient(baseURL, apiKey string, timeout time.Duration) *ExtractorClient {
	client := resty.New()
	client.SetTimeout(timeout)
	if apiKey != "" {
		client.SetHeader("x-api-key", apiKey)
	}
	return &ExtractorClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Extract uploads one file tagged with intent (pessoa, veiculo or cte)
func (e *ExtractorClient) Extract(ctx context.Context, media *models.Media, intent string) (*models.Extraction, error) {
	if media == nil || len(media.Data) == 0 {
		return nil, fmt.Errorf("empty media")
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParam("tipo", intent).
		SetMultipartField("file", media.Filename, media.ContentType, bytes.NewReader(media.Data)).
		Post(e.baseURL + "/upload")
	if err != nil {
		return nil, fmt.Errorf("extractor request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("extractor returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	ext := parseExtraction(resp.Body())
	log.Debug().
		Str("intent", intent).
		Int("text_len", len(ext.Text)).
		Bool("has_key", ext.Key != "").
		Msg("📄 Extraction received")
	return ext, nil
}

// parseExtraction reads the text out of the response shapes the extractor
// has returned over time
func parseExtraction(body []byte) *models.Extraction {
	res := gjson.ParseBytes(body)
	ext := &models.Extraction{
		Text:       extractedText(res),
		StorageRef: res.Get("temp_path").String(),
		Status:     res.Get("status").String(),
	}
	ext.Key = res.Get("chave").String()
	if ext.Key == "" {
		ext.Key = res.Get("dados.chave").String()
	}
	return ext
}

func extractedText(res gjson.Result) string {
	dados := res.Get("dados")
	var text string
	switch {
	case dados.IsObject() && dados.Get("text").Type == gjson.String:
		text = dados.Get("text").String()
	case dados.Type == gjson.String:
		text = dados.String()
	default:
		for _, path := range []string{"text", "result.text", "message", "output", "content"} {
			if v := res.Get(path); v.Type == gjson.String && v.String() != "" {
				text = v.String()
				break
			}
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(text, `\n`, "\n"))
}
