package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vbonduro/animalexplorer/internal/domain"
	"github.com/vbonduro/animalexplorer/internal/variant"
)

var (
	// ErrUnconfigured is returned before any network call when no provider
	// credential is available.
	ErrUnconfigured = errors.New("model gateway is not configured")
	// ErrAllModelsExhausted is returned when every candidate model failed.
	ErrAllModelsExhausted = errors.New("all candidate models failed")

	errEmptyReply = errors.New("empty reply")
)

const DefaultAttemptTimeout = 60 * time.Second

// Request is a single prompt sent to one model. Image is nil for chat.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// Provider sends one request to one named model of a hosted AI service.
type Provider interface {
	Generate(ctx context.Context, model string, req Request) (string, error)
}

// Analysis is the raw answer of the first model that identified an image.
type Analysis struct {
	Text  string
	Model string
}

type Config struct {
	// VisionModels and ChatModels are tried in order, cheapest first.
	VisionModels   []string
	ChatModels     []string
	AttemptTimeout time.Duration
	Variant        variant.Variant
}

type Gateway struct {
	provider Provider
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New builds a Gateway. A nil provider yields a gateway that reports
// ErrUnconfigured for every call.
func New(provider Provider, cfg Config, logger *slog.Logger) *Gateway {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Gateway{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer("github.com/vbonduro/animalexplorer/internal/gateway"),
	}
}

func (g *Gateway) Configured() bool {
	return g.provider != nil
}

// AnalyzeImage asks the vision candidates, in order, to identify the animal
// in image and returns the first reply.
func (g *Gateway) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	if !g.Configured() {
		return nil, ErrUnconfigured
	}

	req := Request{Prompt: g.cfg.Variant.AnalysisPrompt, Image: image, MIMEType: mimeType}
	text, model, err := g.firstSuccess(ctx, "vision", g.cfg.VisionModels, req)
	if err != nil {
		return nil, err
	}
	return &Analysis{Text: text, Model: model}, nil
}

// Chat answers message, grounded in animal when one is given. When every
// candidate fails the variant's placeholder reply is returned instead of an
// error; only ErrUnconfigured is reported as an error.
func (g *Gateway) Chat(ctx context.Context, message string, animal *domain.AnimalRecord) (string, error) {
	if !g.Configured() {
		return "", ErrUnconfigured
	}

	req := Request{Prompt: BuildChatPrompt(g.cfg.Variant, message, animal)}
	reply, _, err := g.firstSuccess(ctx, "chat", g.cfg.ChatModels, req)
	if err != nil {
		g.logger.Warn("chat degraded to placeholder reply", "error", err)
		return g.cfg.Variant.ChatUnavailable, nil
	}
	return reply, nil
}

func (g *Gateway) firstSuccess(ctx context.Context, kind string, models []string, req Request) (string, string, error) {
	if len(models) == 0 {
		return "", "", fmt.Errorf("%w: no %s models configured", ErrAllModelsExhausted, kind)
	}

	errs := make([]error, 0, len(models))
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrAllModelsExhausted, err)
		}

		text, err := g.attempt(ctx, kind, model, req)
		if err == nil {
			g.logger.Info("model attempt succeeded", "kind", kind, "model", model, "chars", len(text))
			return text, model, nil
		}
		g.logger.Warn("model attempt failed", "kind", kind, "model", model, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
	}

	return "", "", fmt.Errorf("%w: %w", ErrAllModelsExhausted, errors.Join(errs...))
}

// attempt issues exactly one request, bounded by the per-attempt timeout.
func (g *Gateway) attempt(ctx context.Context, kind, model string, req Request) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.attempt", trace.WithAttributes(
		attribute.String("gateway.kind", kind),
		attribute.String("gateway.model", model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
	defer cancel()

	text, err := g.provider.Generate(ctx, model, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyReply
	}
	if err != nil {
		span.SetAttributes(attribute.String("gateway.outcome", "error"))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("gateway.outcome", "ok"))
	return text, nil
}
