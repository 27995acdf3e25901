package enrich

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"aura/internal/design"
	"aura/internal/infra"
	"aura/internal/vision"
)

// Request is the context a product source works from: the original design
// inputs plus the final generated image.
type Request struct {
	Style       string
	RoomType    string
	Instruction string
	ImageURL    string
}

// Source is one tier of the product waterfall. It reports false when it has
// nothing to offer and the coordinator should try the next tier.
type Source interface {
	Products(ctx context.Context, req Request) ([]design.Product, bool)
}

// Coordinator walks an ordered chain of product sources and returns the
// first non-empty result, trimmed to the shared cap. With a fallback source
// at the end of the chain the result is never empty.
type Coordinator struct {
	sources []Source
	logger  *infra.Logger
}

// NewCoordinator builds a coordinator over the given sources, tried in order.
func NewCoordinator(logger *infra.Logger, sources ...Source) *Coordinator {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Coordinator{sources: sources, logger: logger}
}

// Products returns at most design.MaxProducts stubs for the finished design.
func (c *Coordinator) Products(ctx context.Context, req Request) []design.Product {
	for i, source := range c.sources {
		products, ok := source.Products(ctx, req)
		if !ok || len(products) == 0 {
			continue
		}
		if len(products) > design.MaxProducts {
			products = products[:design.MaxProducts]
		}
		c.logger.Debug().Int("tier", i).Int("products", len(products)).Msg("enrich: products resolved")
		return products
	}
	c.logger.Warn().Msg("enrich: no source produced products")
	return nil
}

// AnalyzerSource adapts the vision analyzer into the waterfall. It reports
// false whenever the analyzer is disabled, errors, or finds nothing, so
// analysis failures never surface past the coordinator.
type AnalyzerSource struct {
	analyzer *vision.Analyzer
}

// NewAnalyzerSource wraps a vision analyzer.
func NewAnalyzerSource(analyzer *vision.Analyzer) *AnalyzerSource {
	return &AnalyzerSource{analyzer: analyzer}
}

// Products implements Source.
func (s *AnalyzerSource) Products(ctx context.Context, req Request) ([]design.Product, bool) {
	if s.analyzer == nil || !s.analyzer.Enabled() {
		return nil, false
	}
	analysis := s.analyzer.DetectProducts(ctx, req.ImageURL)
	if !analysis.OK || len(analysis.Items) == 0 {
		return nil, false
	}
	products := make([]design.Product, 0, len(analysis.Items))
	for _, item := range analysis.Items {
		products = append(products, design.Product{
			Name:  item.Name,
			Type:  item.Type,
			Price: "Check Prices",
			Image: design.PlaceholderThumbnail(firstWord(item.Name)),
			Link:  design.ShoppingLink(strings.ReplaceAll(strings.TrimSpace(item.Query), " ", "+")),
		})
	}
	return products, true
}

// FallbackSource is the deterministic backstop; it always produces a result.
type FallbackSource struct{}

// NewFallbackSource returns the rule-based product source.
func NewFallbackSource() *FallbackSource {
	return &FallbackSource{}
}

// Products implements Source.
func (s *FallbackSource) Products(ctx context.Context, req Request) ([]design.Product, bool) {
	return design.FallbackProducts(req.Style, req.RoomType, req.Instruction), true
}

func firstWord(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return name
	}
	return parts[0]
}
