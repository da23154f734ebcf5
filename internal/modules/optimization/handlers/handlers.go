// Package handlers provides HTTP handlers for backtests and grid searches.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/aristath/sentinel-tuner/internal/modules/observations"
	"github.com/aristath/sentinel-tuner/internal/modules/optimization"
	"github.com/aristath/sentinel-tuner/internal/modules/strategy"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// DataSource is the loaded observation set served by the API.
// *observations.Index satisfies it.
type DataSource interface {
	optimization.Dataset
	Find(date, ticker string) (domain.Observation, bool)
	Summary() observations.Summary
}

// Handler handles optimization HTTP requests
type Handler struct {
	service *optimization.Service
	data    DataSource
	grid    optimization.Grid
	opts    optimization.SearchOptions
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler. grid and opts are the defaults used
// when a request does not override them.
func NewHandler(
	service *optimization.Service,
	data DataSource,
	grid optimization.Grid,
	opts optimization.SearchOptions,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service: service,
		data:    data,
		grid:    grid,
		opts:    opts,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// DecideRequest selects one observation and a parameter set
type DecideRequest struct {
	Date   string              `json:"date"`
	Ticker string              `json:"ticker"`
	Params domain.ParameterSet `json:"params"`
}

// DecideResponse explains the decision for one observation
type DecideResponse struct {
	Prepared strategy.Prepared `json:"prepared"`
	Action   domain.Action     `json:"action"`
}

// SearchRequest overrides the configured grid and reporting options.
// Grid fields left empty keep the configured candidates.
type SearchRequest struct {
	Grid     *optimization.Grid `json:"grid,omitempty"`
	TopN     *int               `json:"top_n,omitempty"`
	MinBuys  *int               `json:"min_buys,omitempty"`
	MinSells *int               `json:"min_sells,omitempty"`
}

// SearchResponse summarizes a search and lists its top results
type SearchResponse struct {
	RunID     string                      `json:"run_id"`
	StartedAt time.Time                   `json:"started_at"`
	ElapsedMs int64                       `json:"elapsed_ms"`
	Evaluated int                         `json:"evaluated"`
	Qualified int                         `json:"qualified"`
	Filtered  int                         `json:"filtered"`
	Best      *optimization.RankedResult  `json:"best"`
	Top       []optimization.RankedResult `json:"top"`
}

// HandleGetSummary handles GET /api/v1/observations/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.data.Summary())
}

// HandleDecide handles POST /api/v1/decide
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Date == "" || req.Ticker == "" {
		h.writeError(w, http.StatusBadRequest, "date and ticker are required")
		return
	}

	obs, ok := h.data.Find(req.Date, req.Ticker)
	if !ok {
		h.writeError(w, http.StatusNotFound, "No observation for "+req.Ticker+" on "+req.Date)
		return
	}

	prepared := strategy.Prepare(obs, h.data)
	h.writeJSON(w, http.StatusOK, DecideResponse{
		Prepared: prepared,
		Action:   prepared.Decide(req.Params),
	})
}

// HandleBacktest handles POST /api/v1/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	var params domain.ParameterSet
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if params.AllocPct <= 0 || params.AllocPct > 1 {
		h.writeError(w, http.StatusBadRequest, "alloc_pct must be in (0, 1]")
		return
	}

	startTime := time.Now()
	result := h.service.Backtest(h.data, params, h.opts)

	h.log.Debug().
		Interface("params", params).
		Dur("elapsed", time.Since(startTime)).
		Msg("Backtest completed")

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSearch handles POST /api/v1/search
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	grid, opts, err := h.resolve(req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Search(r.Context(), h.data, grid, opts)
	if err != nil {
		h.writeSearchError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toResponse(result, opts.TopN))
}

// HandleGetLatest handles GET /api/v1/search/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	result := h.service.Latest()
	if result == nil {
		h.writeError(w, http.StatusNotFound, "No search has completed yet")
		return
	}
	h.writeJSON(w, http.StatusOK, toResponse(result, h.opts.TopN))
}

// streamMessage is one websocket frame of a streamed search
type streamMessage struct {
	Type     string                 `json:"type"` // progress, result or error
	Progress *optimization.Progress `json:"progress,omitempty"`
	Result   *SearchResponse        `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// HandleStream handles GET /api/v1/search/stream.
// It upgrades to a websocket, runs a search with the configured grid and streams
// progress frames followed by a single result frame.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	// Closing the client side cancels the search
	ctx := conn.CloseRead(r.Context())

	opts := h.opts
	opts.Progress = func(p optimization.Progress) {
		h.send(ctx, conn, streamMessage{Type: "progress", Progress: &p})
	}

	result, err := h.service.Search(ctx, h.data, h.grid, opts)
	if err != nil {
		h.send(ctx, conn, streamMessage{Type: "error", Error: err.Error()})
		conn.Close(websocket.StatusInternalError, "search failed")
		return
	}

	resp := toResponse(result, opts.TopN)
	h.send(ctx, conn, streamMessage{Type: "result", Result: &resp})
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg streamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode stream message")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("Failed to write stream message")
	}
}

// resolve merges request overrides with the configured defaults
func (h *Handler) resolve(req SearchRequest) (optimization.Grid, optimization.SearchOptions, error) {
	grid := h.grid
	if req.Grid != nil {
		override := *req.Grid
		if override.BuyScore != nil {
			grid.BuyScore = override.BuyScore
		}
		if override.BuyRSIMax != nil {
			grid.BuyRSIMax = override.BuyRSIMax
		}
		if override.SellScore != nil {
			grid.SellScore = override.SellScore
		}
		if override.SellScoreMild != nil {
			grid.SellScoreMild = override.SellScoreMild
		}
		if override.SellRSIMin != nil {
			grid.SellRSIMin = override.SellRSIMin
		}
		if override.SellBB != nil {
			grid.SellBB = override.SellBB
		}
		if override.RequireMACDImproving != nil {
			grid.RequireMACDImproving = override.RequireMACDImproving
		}
		if override.AllocPct != nil {
			grid.AllocPct = override.AllocPct
		}
	}
	if err := grid.Validate(); err != nil {
		return grid, h.opts, err
	}

	opts := h.opts
	if req.TopN != nil {
		opts.TopN = *req.TopN
	}
	if req.MinBuys != nil {
		opts.MinBuys = *req.MinBuys
	}
	if req.MinSells != nil {
		opts.MinSells = *req.MinSells
	}
	if opts.TopN < 0 || opts.MinBuys < 0 || opts.MinSells < 0 {
		return grid, opts, errors.New("top_n, min_buys and min_sells must not be negative")
	}

	return grid, opts, nil
}

func toResponse(result *optimization.SearchResult, topN int) SearchResponse {
	return SearchResponse{
		RunID:     result.RunID,
		StartedAt: result.StartedAt,
		ElapsedMs: result.Elapsed.Milliseconds(),
		Evaluated: result.Evaluated,
		Qualified: result.Qualified,
		Filtered:  result.Filtered,
		Best:      result.Best(),
		Top:       result.Top(topN),
	}
}

func (h *Handler) writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "Search timed out")
	case errors.Is(err, context.Canceled):
		// client went away
		h.writeError(w, http.StatusServiceUnavailable, "Search cancelled")
	case errors.Is(err, optimization.ErrEmptyGrid):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, "Search failed: "+err.Error())
	}
}

// Helper methods

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
