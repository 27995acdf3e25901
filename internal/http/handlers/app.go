package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"aura/internal/design"
	"aura/internal/enrich"
	"aura/internal/generate"
	"aura/internal/infra"
	"aura/internal/store"
)

// Generator runs one redesign request to completion.
type Generator interface {
	Generate(ctx context.Context, req design.Request) (*generate.Result, error)
}

// ProductFinder resolves the shopping list for a finished design.
type ProductFinder interface {
	Products(ctx context.Context, req enrich.Request) []design.Product
}

// App bundles the handler dependencies. History may be nil when no database
// is configured; everything else is required.
type App struct {
	Config    *infra.Config
	Logger    infra.Logger
	Generator Generator
	Products  ProductFinder
	History   *store.DesignRepo
}

func NewApp(cfg *infra.Config, logger infra.Logger, generator Generator, products ProductFinder, history *store.DesignRepo) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Generator: generator,
		Products:  products,
		History:   history,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
