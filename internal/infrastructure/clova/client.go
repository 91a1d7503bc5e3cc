// Package clova calls the CLOVA OCR HTTP API to recognize receipt page
// images. One call per page; the multipart request carries a JSON message
// part and the image bytes.
package clova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/pkg/config"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// Client is a CLOVA OCR API client implementing scan.OCRClient.
type Client struct {
	url    string
	secret string
	http   *http.Client
	log    *logger.Logger
}

// New builds a client from configuration. The timeout applies per page.
func New(cfg config.OCRConfig, log *logger.Logger) *Client {
	return &Client{
		url:    cfg.URL,
		secret: cfg.Secret,
		http:   &http.Client{Timeout: cfg.Timeout()},
		log:    log,
	}
}

type message struct {
	Images    []messageImage `json:"images"`
	RequestID string         `json:"requestId"`
	Version   string         `json:"version"`
	Timestamp int64          `json:"timestamp"`
}

type messageImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

type response struct {
	Images []struct {
		Fields []struct {
			InferText string `json:"inferText"`
		} `json:"fields"`
	} `json:"images"`
}

// RecognizePage sends one PNG page image and returns the recognized text,
// one field per line in the API's reading order.
func (c *Client) RecognizePage(ctx context.Context, image []byte) (string, error) {
	body, contentType, err := buildRequest(image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-OCR-SECRET", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error().Int("status", resp.StatusCode).Msg("ocr request rejected")
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrExternalService, resp.StatusCode, snippet)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrExternalService, err)
	}
	if len(parsed.Images) == 0 {
		return "", fmt.Errorf("%w: empty response", domain.ErrExternalService)
	}

	lines := make([]string, 0, len(parsed.Images[0].Fields))
	for _, f := range parsed.Images[0].Fields {
		lines = append(lines, f.InferText)
	}
	return strings.Join(lines, "\n"), nil
}

func buildRequest(image []byte) (*bytes.Buffer, string, error) {
	msg := message{
		Images:    []messageImage{{Format: "png", Name: "page"}},
		RequestID: uuid.NewString(),
		Version:   "V2",
		Timestamp: time.Now().UnixMilli(),
	}
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("message", string(msgJSON)); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile("file", "page.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
