package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/surface-packer/internal/packing"
	"github.com/eugenenazirov/surface-packer/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultSurfaceSide = 500
	defaultMaxSide     = 4096
	defaultMaxCost     = 500_000_000
)

// Handler wires packer and storage dependencies into HTTP handlers.
type Handler struct {
	packer  packing.Packer
	storage storage.Storage
	logger  *zap.Logger

	clock func() time.Time

	surfaceWidth  int
	surfaceHeight int
	maxSide       int
	maxCost       int64

	mu              sync.RWMutex
	blocksUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger sets the logger used for per-layout debug output.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSurface sets the surface size used when a layout request omits one and
// the largest side a request may ask for.
func WithSurface(width, height, maxSide int) HandlerOption {
	return func(h *Handler) {
		h.surfaceWidth = width
		h.surfaceHeight = height
		h.maxSide = maxSide
	}
}

// WithCostBudget caps packing.ScanCost for a single layout request. Values
// below one keep the default.
func WithCostBudget(maxCost int64) HandlerOption {
	return func(h *Handler) {
		if maxCost > 0 {
			h.maxCost = maxCost
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(packer packing.Packer, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		packer:        packer,
		storage:       store,
		logger:        zap.NewNop(),
		surfaceWidth:  defaultSurfaceSide,
		surfaceHeight: defaultSurfaceSide,
		maxSide:       defaultMaxSide,
		maxCost:       defaultMaxCost,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.blocksUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBlocks(w http.ResponseWriter, r *http.Request) {
	_ = r
	blocks, err := h.storage.GetBlocks()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := blocksResponse{
		Blocks:    blocks,
		UpdatedAt: h.currentBlocksUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutBlocks(w http.ResponseWriter, r *http.Request) {
	var req blocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Blocks) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid blocks", "blocks must contain at least one definition")
		return
	}

	if err := h.storage.SetBlocks(req.Blocks); err != nil {
		if errors.Is(err, storage.ErrInvalidBlocks) {
			writeError(w, http.StatusBadRequest, "Invalid blocks", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markBlocksUpdated()

	blocks, err := h.storage.GetBlocks()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := blocksResponse{
		Blocks:    blocks,
		UpdatedAt: h.currentBlocksUpdatedAt(),
		Message:   "Blocks updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLayout runs a fresh pack cycle; clients re-post it with new bounds on resize.
// Omitted width, height or blocks fall back to the configured surface and the
// stored definitions. An explicit empty blocks list is rejected.
func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	width, height := h.surfaceWidth, h.surfaceHeight
	if req.Width != nil {
		width = *req.Width
	}
	if req.Height != nil {
		height = *req.Height
	}
	if width > h.maxSide || height > h.maxSide {
		writeError(w, http.StatusBadRequest, "Invalid surface", packing.ErrSurfaceTooLarge.Error(),
			fmt.Sprintf("Keep width and height at or below %d", h.maxSide))
		return
	}

	var blocks []packing.Size
	if req.Blocks == nil {
		stored, err := h.storage.GetBlocks()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		blocks = stored
	} else {
		blocks = *req.Blocks
		if err := storage.ValidateBlocks(blocks); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid blocks", err.Error())
			return
		}
	}

	if cost := packing.ScanCost(width, height, len(blocks)); cost > h.maxCost {
		writeError(w, http.StatusBadRequest, "Layout too large", packing.ErrLayoutTooExpensive.Error(),
			fmt.Sprintf("Estimated cost %d is above %d; use a smaller surface or fewer blocks", cost, h.maxCost))
		return
	}

	// The pack itself cannot be interrupted; skip it for clients already gone.
	if err := r.Context().Err(); err != nil {
		h.logger.Debug("layout skipped", zap.String("request_id", requestIDFromContext(r.Context())), zap.Error(err))
		return
	}

	start := time.Now()
	result, err := packing.Layout(h.packer, width, height, blocks)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(err, packing.ErrInvalidDimension):
			writeError(w, http.StatusBadRequest, "Invalid surface", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	resp := NewLayoutResponse(uuid.NewString(), result, elapsed)
	h.logger.Debug("layout computed",
		zap.String("layout_id", resp.LayoutID),
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.Int("placed", len(result.Coordinates)),
		zap.Int("unplaced", len(result.Unplaced)),
		zap.Duration("duration", elapsed),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentBlocksUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.blocksUpdatedAt
}

func (h *Handler) markBlocksUpdated() {
	h.mu.Lock()
	h.blocksUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// NewLayoutResponse converts a layout result into its wire representation.
func NewLayoutResponse(id string, result packing.Result, elapsed time.Duration) LayoutResponse {
	blocks := make([]PlacedBlock, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		blocks = append(blocks, PlacedBlock{
			Index:   b.Index,
			X:       b.X,
			Y:       b.Y,
			Width:   b.Width,
			Height:  b.Height,
			Rotated: b.Rotated,
			Placed:  b.Placed(),
		})
	}
	return LayoutResponse{
		LayoutID:          id,
		Surface:           packing.Size{Width: result.Width, Height: result.Height},
		Fullness:          result.Fullness,
		FullnessPercent:   int(math.Round(result.Fullness * 100)),
		Coverage:          result.Coverage,
		Blocks:            blocks,
		Coordinates:       result.Coordinates,
		Unplaced:          result.Unplaced,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
}

type blocksRequest struct {
	Blocks []packing.Size `json:"blocks"`
}

type layoutRequest struct {
	Width  *int            `json:"width"`
	Height *int            `json:"height"`
	Blocks *[]packing.Size `json:"blocks"`
}

// LayoutResponse is the wire form of one layout run, shared by the HTTP API
// and the pack command.
type LayoutResponse struct {
	LayoutID          string                `json:"layoutId" yaml:"layoutId"`
	Surface           packing.Size          `json:"surface" yaml:"surface"`
	Fullness          float64               `json:"fullness" yaml:"fullness"`
	FullnessPercent   int                   `json:"fullnessPercent" yaml:"fullnessPercent"`
	Coverage          float64               `json:"coverage" yaml:"coverage"`
	Blocks            []PlacedBlock         `json:"blocks" yaml:"blocks"`
	Coordinates       []packing.DisplayRect `json:"coordinates" yaml:"coordinates"`
	Unplaced          []int                 `json:"unplaced" yaml:"unplaced"`
	CalculationTimeMs int64                 `json:"calculationTimeMs" yaml:"calculationTimeMs"`
}

// PlacedBlock is what a renderer needs for one block. X and Y use a
// bottom-left origin and are zero when Placed is false.
type PlacedBlock struct {
	Index   int  `json:"index" yaml:"index"`
	X       int  `json:"x" yaml:"x"`
	Y       int  `json:"y" yaml:"y"`
	Width   int  `json:"width" yaml:"width"`
	Height  int  `json:"height" yaml:"height"`
	Rotated bool `json:"rotated" yaml:"rotated"`
	Placed  bool `json:"placed" yaml:"placed"`
}

type blocksResponse struct {
	Blocks    []packing.Size `json:"blocks"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Message   string         `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
