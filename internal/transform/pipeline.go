package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/prodshot-api/internal/domain"
)

// BackgroundRemover replaces the background of an image with plain white.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img domain.Image) (domain.Image, error)
}

// Classifier assigns a product image to a category and subcategory.
// instruction lists the allowed answers.
type Classifier interface {
	Classify(ctx context.Context, img domain.Image, instruction string) (category, subcategory string, err error)
}

// ImageEditor generates a new image from img guided by prompt.
type ImageEditor interface {
	EditImage(ctx context.Context, img domain.Image, prompt string) (domain.Image, error)
}

// Pipeline implements task.Transformer on top of the image providers.
type Pipeline struct {
	remover    BackgroundRemover
	classifier Classifier
	editor     ImageEditor
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(remover BackgroundRemover, classifier Classifier, editor ImageEditor, logger *slog.Logger) (*Pipeline, error) {
	if remover == nil {
		return nil, fmt.Errorf("%w: background remover", ErrNilDependency)
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier", ErrNilDependency)
	}
	if editor == nil {
		return nil, fmt.Errorf("%w: image editor", ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", ErrNilDependency)
	}

	return &Pipeline{
		remover:    remover,
		classifier: classifier,
		editor:     editor,
		logger:     logger.With("component", "transform_pipeline"),
	}, nil
}

// Transform converts img according to mode.
func (p *Pipeline) Transform(ctx context.Context, mode domain.Mode, img domain.Image) (domain.Image, error) {
	switch mode {
	case domain.ModeWhite:
		return p.white(ctx, img)
	case domain.ModeInterior:
		return p.interior(ctx, img)
	default:
		return domain.Image{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
}

func (p *Pipeline) white(ctx context.Context, img domain.Image) (domain.Image, error) {
	out, err := p.remover.RemoveBackground(ctx, img)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: background removal for %s: %w", ErrProviderFailure, img.Name, err)
	}

	return domain.Image{
		Name:        domain.WhiteOutputName(img),
		ContentType: "image/png",
		Data:        out.Data,
	}, nil
}

// interior frames img to 3:4, classifies it, generates the product in a
// matching scene and crops the result back to 3:4.
func (p *Pipeline) interior(ctx context.Context, img domain.Image) (domain.Image, error) {
	logger := p.logger.With("file_name", img.Name)

	src, err := decodeImage(img.Data)
	if err != nil {
		return domain.Image{}, err
	}

	framedData, err := encodeJPEG(padToAspect(src))
	if err != nil {
		return domain.Image{}, err
	}
	framed := domain.Image{
		Name:        img.Stem() + ".jpg",
		ContentType: "image/jpeg",
		Data:        framedData,
	}

	class := p.classify(ctx, logger, framed)
	logger.InfoContext(ctx, "product classified",
		"category", class.Category,
		"subcategory", class.Subcategory)

	prompt, err := ContextPrompt(class)
	if err != nil {
		return domain.Image{}, err
	}

	edited, err := p.editor.EditImage(ctx, framed, prompt)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: scene generation for %s: %w", ErrProviderFailure, img.Name, err)
	}

	generated, err := decodeImage(edited.Data)
	if err != nil {
		return domain.Image{}, err
	}

	cropped := cropToAspect(generated)
	data, err := encodeJPEG(cropped)
	if err != nil {
		return domain.Image{}, err
	}

	logger.DebugContext(ctx, "generated image cropped",
		"width", cropped.Bounds().Dx(),
		"height", cropped.Bounds().Dy())

	return domain.Image{
		Name:        domain.InteriorOutputName(img, class.Category),
		ContentType: "image/jpeg",
		Data:        data,
	}, nil
}

// classify never fails: provider errors and unknown answers fall back to
// FallbackClassification.
func (p *Pipeline) classify(ctx context.Context, logger *slog.Logger, img domain.Image) Classification {
	category, subcategory, err := p.classifier.Classify(ctx, img, ClassifierInstruction())
	if err != nil {
		logger.WarnContext(ctx, "classification failed, using fallback", "error", err)
		return FallbackClassification()
	}

	class, ok := ParseClassification(category + "|" + subcategory)
	if !ok {
		logger.WarnContext(ctx, "unknown classification, using fallback",
			"category", category,
			"subcategory", subcategory)
		return FallbackClassification()
	}
	return class
}
