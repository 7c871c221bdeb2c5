package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/prodshot-api/internal/config"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"google.golang.org/genai"
)

const (
	classifierQuestion    = "Determine the category and subcategory of this product:"
	classifierTemperature = float32(0.1)
)

// contentGenerator is the subset of genai.Models used by Client.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client classifies product photos and generates in-context product shots.
type Client struct {
	models contentGenerator
	config config.LLMConfig
	logger *slog.Logger
}

// NewClient creates a Client backed by the Gemini API.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newClient(client.Models, cfg, logger)
}

func newClient(models contentGenerator, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ClassifierModel == "" || cfg.ImageModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", ErrInvalidConfig)
	}

	return &Client{
		models: models,
		config: cfg,
		logger: logger.With("component", "gemini_client"),
	}, nil
}

// Classify asks the classifier model for a CATEGORY|SUBCATEGORY answer.
// The labels are returned upper-cased but otherwise unvalidated.
func (c *Client) Classify(ctx context.Context, img domain.Image, instruction string) (string, string, error) {
	if len(img.Data) == 0 {
		return "", "", ErrEmptyImage
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	temperature := classifierTemperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
		Temperature: &temperature,
	}

	resp, err := c.models.GenerateContent(ctx, c.config.ClassifierModel, imageContents(img, classifierQuestion), cfg)
	if err != nil {
		return "", "", fmt.Errorf("classification request: %w", err)
	}

	candidate, err := firstCandidate(resp)
	if err != nil {
		return "", "", err
	}

	answer := candidateText(candidate)
	category, subcategory, err := parseCategory(answer)
	if err != nil {
		return "", "", err
	}

	c.logger.DebugContext(ctx, "classification received",
		"file_name", img.Name,
		"category", category,
		"subcategory", subcategory)

	return category, subcategory, nil
}

// EditImage asks the image model to regenerate img following prompt and
// returns the first image in the response.
func (c *Client) EditImage(ctx context.Context, img domain.Image, prompt string) (domain.Image, error) {
	if len(img.Data) == 0 {
		return domain.Image{}, ErrEmptyImage
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := c.models.GenerateContent(ctx, c.config.ImageModel, imageContents(img, prompt), cfg)
	if err != nil {
		return domain.Image{}, fmt.Errorf("image generation request: %w", err)
	}

	candidate, err := firstCandidate(resp)
	if err != nil {
		return domain.Image{}, err
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			continue
		}

		c.logger.DebugContext(ctx, "generated image received",
			"file_name", img.Name,
			"mime_type", part.InlineData.MIMEType,
			"bytes", len(part.InlineData.Data))

		return domain.Image{
			Name:        img.Name,
			ContentType: part.InlineData.MIMEType,
			Data:        part.InlineData.Data,
		}, nil
	}

	if text := candidateText(candidate); text != "" {
		return domain.Image{}, fmt.Errorf("%w: no image in response, model said: %.200s", ErrInvalidResponse, text)
	}
	return domain.Image{}, fmt.Errorf("%w: no image in response", ErrInvalidResponse)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := c.config.Timeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// imageContents builds a single user turn carrying text and the image.
func imageContents(img domain.Image, text string) []*genai.Content {
	mimeType := img.ContentType
	if mimeType == "" {
		mimeType = domain.ContentTypeFor(img.Name)
	}

	return []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: text},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}},
		},
	}}
}

func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, ErrContentBlocked
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", ErrInvalidResponse)
	}
	return candidate, nil
}

func candidateText(candidate *genai.Candidate) string {
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// parseCategory splits the first line of a classifier answer on '|'.
func parseCategory(answer string) (string, string, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	category, subcategory, found := strings.Cut(line, "|")
	if !found {
		return "", "", fmt.Errorf("%w: unexpected classification %q", ErrInvalidResponse, line)
	}

	category = strings.ToUpper(strings.Trim(strings.TrimSpace(category), "*`"))
	subcategory = strings.ToUpper(strings.Trim(strings.TrimSpace(subcategory), "*`"))
	if category == "" || subcategory == "" {
		return "", "", fmt.Errorf("%w: unexpected classification %q", ErrInvalidResponse, line)
	}
	return category, subcategory, nil
}
