package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aura/internal/design"
	"aura/internal/enrich"
	"aura/internal/generate"
	"aura/internal/store"
)

type designRequest struct {
	Image       string `json:"image"`
	Style       string `json:"style"`
	RoomType    string `json:"room_type"`
	Instruction string `json:"instruction"`
	Intensity   int    `json:"intensity"`
}

type designResponse struct {
	ImageURL  string           `json:"image_url"`
	Rationale string           `json:"rationale"`
	Products  []design.Product `json:"products"`
}

// DesignsCreate runs the full pipeline for one uploaded room photo: image
// generation first, then product enrichment. Enrichment can never fail the
// request; generation failures map the error taxonomy onto status codes.
func (a *App) DesignsCreate(w http.ResponseWriter, r *http.Request) {
	var req designRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Image = strings.TrimSpace(req.Image)
	if req.Image == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image is required")
		return
	}
	if strings.TrimSpace(req.Style) == "" {
		req.Style = "custom"
	}
	if strings.TrimSpace(req.RoomType) == "" {
		req.RoomType = "Living Room"
	}

	genReq := design.Request{
		Image:       req.Image,
		Style:       req.Style,
		RoomType:    req.RoomType,
		Instruction: req.Instruction,
		Intensity:   req.Intensity,
	}
	result, err := a.Generator.Generate(r.Context(), genReq)
	if err != nil {
		kind := generate.KindOf(err)
		var genErr *generate.Error
		message := "generation failed"
		if errors.As(err, &genErr) && genErr.Message != "" {
			message = genErr.Message
		}
		a.Logger.Error().Err(err).Str("kind", string(kind)).Msg("designs: generation failed")
		a.error(w, statusForKind(kind), string(kind), message)
		return
	}

	products := a.Products.Products(r.Context(), enrich.Request{
		Style:       req.Style,
		RoomType:    req.RoomType,
		Instruction: req.Instruction,
		ImageURL:    result.ImageURL,
	})

	a.recordDesign(r, genReq, result)

	a.json(w, http.StatusOK, designResponse{
		ImageURL:  result.ImageURL,
		Rationale: result.Rationale,
		Products:  products,
	})
}

// DesignsRecent serves the history feed. Without a configured database the
// feed is simply empty.
func (a *App) DesignsRecent(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.json(w, http.StatusOK, map[string]any{"items": []store.DesignRecord{}})
		return
	}
	records, err := a.History.ListRecent(r.Context(), 20)
	if err != nil {
		a.Logger.Error().Err(err).Msg("designs: list history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	if records == nil {
		records = []store.DesignRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": records})
}

// recordDesign persists the finished generation. Best effort only: history
// must never fail a request that already produced an image.
func (a *App) recordDesign(r *http.Request, req design.Request, result *generate.Result) {
	if a.History == nil {
		return
	}
	rec := &store.DesignRecord{
		Style:       req.Style,
		RoomType:    req.RoomType,
		Instruction: req.Instruction,
		Intensity:   req.Intensity,
		Strength:    result.Strength,
		ImageURL:    result.ImageURL,
		Rationale:   result.Rationale,
	}
	if err := a.History.Insert(r.Context(), rec); err != nil {
		a.Logger.Warn().Err(err).Msg("designs: record history failed")
	}
}

func statusForKind(kind generate.ErrorKind) int {
	switch kind {
	case generate.KindConfiguration:
		return http.StatusServiceUnavailable
	case generate.KindSubmission, generate.KindModel:
		return http.StatusBadGateway
	case generate.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}
