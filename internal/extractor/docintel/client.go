package docintel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/config"
	"github.com/aryandalviplx/OCR-bill/internal/port"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// extractionPrompt asks the model for the raw text plus the header fields the
// structuring step understands. Line items stay in the text; parsing them is
// not the service's job.
const extractionPrompt = `Extract the full text content of this document.
Respond with JSON only, in this exact shape:
{"text": "<full document text, one physical line per text line>",
 "fields": {"vendor_name": "", "invoice_number": "", "bill_date": "YYYY-MM-DD", "total_amount": "", "currency": ""},
 "page_count": <number of pages>}
Omit a field from "fields" when the document does not state it. Do not guess values.`

// ServiceError is a non-2xx response from the extraction service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service error (status %d): %s", e.StatusCode, e.Message)
}

// Client implements port.TextExtractor against Gemini's document
// understanding API. Requests carry the document inline (base64) and are
// bounded by the configured page limit and HTTP timeout.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	maxPages int
	http     *http.Client
}

// NewClient creates an extraction service client from configuration.
func NewClient(cfg *config.ExtractorConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 100
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		maxPages: maxPages,
		http:     &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	Text      string            `json:"text"`
	Fields    map[string]string `json:"fields"`
	PageCount int               `json:"page_count"`
}

// ExtractText sends the document to the extraction service and returns the
// extracted text and header fields.
func (c *Client) ExtractText(ctx context.Context, content []byte, contentType string) (*port.TextExtraction, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": contentType,
							"data":      base64.StdEncoding.EncodeToString(content),
						},
					},
					{
						"text": extractionPrompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return c.parseResponse(respBody)
}

func (c *Client) parseResponse(body []byte) (*port.TextExtraction, error) {
	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("extraction service returned no content")
	}

	payload := strings.TrimSpace(envelope.Candidates[0].Content.Parts[0].Text)
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")

	var parsed extractResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("decoding extraction payload: %w", err)
	}
	if parsed.PageCount > c.maxPages {
		return nil, fmt.Errorf("document has %d pages, limit is %d", parsed.PageCount, c.maxPages)
	}

	return &port.TextExtraction{
		Text:      parsed.Text,
		Fields:    parsed.Fields,
		PageCount: parsed.PageCount,
	}, nil
}
