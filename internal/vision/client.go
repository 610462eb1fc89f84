// Package vision extracts structured listing fields from device screenshots
// by calling a multimodal model endpoint.
package vision

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"brandpatrol/internal/httputil"
	"brandpatrol/internal/models"
)

const extractionPrompt = `You are looking at a product listing screen from a shopping app.
Extract the following fields and answer with ONLY a JSON object:
{"title": "...", "shop_name": "...", "price": "...", "description": "..."}
Use an empty string for any field not visible on screen.`

// Client calls a vision model endpoint to read listing screens.
type Client struct {
	endpoint string
	model    string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	retries  int
	log      *zap.Logger
}

// Options configure a Client.
type Options struct {
	Endpoint string
	Model    string
	Token    string
	// RequestsPerMinute bounds the call rate. Zero means 20.
	RequestsPerMinute int
	MaxRetries        int
}

// NewClient builds a vision client. Endpoint and model must be set.
func NewClient(opts Options, log *zap.Logger) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("vision endpoint is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("vision model is required")
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return &Client{
		endpoint: opts.Endpoint,
		model:    opts.Model,
		token:    opts.Token,
		http:     httputil.NewHTTPClient(nil),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		retries:  retries,
		log:      log,
	}, nil
}

// chat request/response in the OpenAI-compatible shape most vision
// endpoints speak.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Fields is the JSON shape the model is asked to produce.
type Fields struct {
	Title       string `json:"title"`
	ShopName    string `json:"shop_name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// ExtractListing sends a PNG screenshot to the model and returns the
// listing fields it reads off the screen.
func (c *Client) ExtractListing(ctx context.Context, screenshot []byte) (models.ProductObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.ProductObservation{}, err
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(screenshot),
				}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return models.ProductObservation{}, fmt.Errorf("encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.ProductObservation{}, fmt.Errorf("build vision request: %w", err)
	}
	req.Header = httputil.JSONAPIHeaders(c.token)
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := httputil.DoWithRetry(c.http, req, c.retries)
	if err != nil {
		return models.ProductObservation{}, fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.ProductObservation{}, fmt.Errorf("vision endpoint returned %d", resp.StatusCode)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return models.ProductObservation{}, fmt.Errorf("read vision response: %w", err)
	}
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return models.ProductObservation{}, fmt.Errorf("parse vision response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return models.ProductObservation{}, fmt.Errorf("vision response has no choices")
	}

	content := cr.Choices[0].Message.Content
	fields, err := ParseModelJSON(content)
	if err != nil {
		c.log.Warn("vision output not parseable", zap.String("content", content))
		return models.ProductObservation{}, err
	}

	obs := models.ProductObservation{
		Title:       strings.TrimSpace(fields.Title),
		ShopName:    strings.TrimSpace(fields.ShopName),
		Description: strings.TrimSpace(fields.Description),
		Price:       ParsePrice(fields.Price),
		RawText:     content,
	}
	return obs, nil
}

// ParseModelJSON pulls the field object out of a model reply. Models wrap
// JSON in prose or code fences often enough that three attempts are made:
// the raw text, the first fenced block, then the outermost brace pair.
func ParseModelJSON(content string) (Fields, error) {
	var fields Fields
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
		return fields, nil
	}
	if block, ok := fencedBlock(trimmed); ok {
		if err := json.Unmarshal([]byte(block), &fields); err == nil {
			return fields, nil
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &fields); err == nil {
			return fields, nil
		}
	}
	return Fields{}, fmt.Errorf("no JSON object found in model reply")
}

func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		// Skip the language tag on the fence line.
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// ParsePrice converts a displayed price string to a number. Currency marks,
// thousand separators and unit suffixes are stripped; unparseable input
// yields zero.
func ParsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	for _, cut := range []string{"¥", "￥", "$", "€", "元", "起"} {
		s = strings.ReplaceAll(s, cut, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%f", &v); err != nil {
		return 0
	}
	return v
}
