package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/pipeline"
	"google.golang.org/genai"
)

// GeminiOptions configures the extraction client.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient implements pipeline.Extractor over the Gemini generateContent API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// NewGeminiClient creates a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, opts GeminiOptions, logger *common.Logger) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if opts.Model == "" {
		return nil, errors.New("gemini model is required")
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: c, model: opts.Model, logger: logger}, nil
}

// Extract sends one generateContent request and returns the text of the first
// part of the first candidate. A response without text yields "".
func (c *GeminiClient) Extract(ctx context.Context, req *pipeline.Request) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data}})
			continue
		}
		parts = append(parts, &genai.Part{Text: p.Text})
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}},
		ResponseMIMEType:  req.ResponseMIMEType,
	}
	if req.ResponseMIMEType == pipeline.ResponseMIMEType {
		config.ResponseSchema = ReportSchema()
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{{Role: "user", Parts: parts}}, config)
	if err != nil {
		c.logger.Debug().Err(err).Str("model", c.model).Dur("duration", time.Since(start)).Msg("gemini request failed")
		return "", fmt.Errorf("gemini generateContent: %w", err)
	}

	c.logger.Debug().Str("model", c.model).Dur("duration", time.Since(start)).Msg("gemini request complete")

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// ReportSchema is the structured output schema requested from the model.
func ReportSchema() *genai.Schema {
	text := &genai.Schema{Type: genai.TypeString}
	entry := func(withPrice bool) *genai.Schema {
		props := map[string]*genai.Schema{
			"rank":          {Type: genai.TypeInteger},
			"name":          text,
			"changePercent": text,
		}
		if withPrice {
			props["price"] = text
		}
		return &genai.Schema{Type: genai.TypeObject, Properties: props}
	}
	list := func(limit int64, withPrice bool) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: entry(withPrice), MaxItems: &limit}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"extractedTime": {Type: genai.TypeString, Description: "time shown at the top left, hh:mm"},
			"marketStatus": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"kospi":              text,
					"kospiChange":        text,
					"kospiChangeAmount":  text,
					"kosdaq":             text,
					"kosdaqChange":       text,
					"kosdaqChangeAmount": text,
				},
			},
			"realtimeStocks":   list(pipeline.MaxStocks, true),
			"cumulativeStocks": list(pipeline.MaxStocks, true),
			"themesByRank":     list(pipeline.MaxThemes, false),
			"themesByChange":   list(pipeline.MaxThemes, false),
		},
	}
}
