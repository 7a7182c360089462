package diagnosis

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/config"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"google.golang.org/genai"
)

// generator is the part of the genai Models service the client depends on.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Image is an optional photo of the fault sent alongside the text prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Client turns equipment context into a structured diagnosis using Gemini.
type Client struct {
	gen    generator
	cfg    config.AIConfig
	logger *log.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a client. A missing API key is not an error here: the client is
// still built and every Analyze call reports ErrConfigurationMissing.
func New(ctx context.Context, cfg config.AIConfig, logger *log.Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: logger, sleep: sleepContext}
	if cfg.APIKey == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.gen = client.Models
	return c, nil
}

func newWithGenerator(gen generator, cfg config.AIConfig) *Client {
	return &Client{
		gen:    gen,
		cfg:    cfg,
		logger: log.StandardLogger(),
		sleep:  func(context.Context, time.Duration) error { return nil },
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.gen != nil && c.cfg.APIKey != ""
}

// Analyze asks the model for possible causes and solutions. manualText and
// history may be empty. The result always has at least one cause and one solution.
func (c *Client) Analyze(ctx context.Context, info models.EquipmentInfo, manualText, history string, image *Image) (*models.DiagnosticResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("inference API key: %w", models.ErrConfigurationMissing)
	}

	parts := []*genai.Part{genai.NewPartFromText(userPrompt(info, manualText, history))}
	if image != nil && len(image.Data) > 0 {
		mime := image.MIMEType
		if mime == "" {
			mime = mimetype.Detect(image.Data).String()
		}
		parts = append(parts, genai.NewPartFromBytes(image.Data, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(info.Category), genai.RoleUser),
		Temperature:       genai.Ptr(c.cfg.Temperature),
		MaxOutputTokens:   c.cfg.MaxOutputTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}

	resp, err := c.generate(ctx, contents, genConfig)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: model returned no content", models.ErrSchemaMismatch)
	}

	result, err := ParseResult(text)
	if err != nil {
		c.logger.WithFields(log.Fields{
			"model":  c.cfg.Model,
			"length": len(text),
		}).Warn("Unusable diagnosis payload")
		return nil, err
	}
	return result, nil
}
