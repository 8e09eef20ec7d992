package application

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/surface-packer/internal/api"
	"github.com/eugenenazirov/surface-packer/internal/config"
	"github.com/eugenenazirov/surface-packer/internal/packing"
)

// Output formats accepted by RunLayout.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// RunLayout packs the configured blocks onto the configured surface once and
// writes the result to w in the requested format.
func RunLayout(cfg config.Config, logger *zap.Logger, w io.Writer, format string) error {
	start := time.Now()
	result, err := packing.Layout(packing.New(), cfg.SurfaceWidth, cfg.SurfaceHeight, cfg.Blocks)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	resp := api.NewLayoutResponse(uuid.NewString(), result, time.Since(start))

	logger.Info("layout computed",
		zap.String("layout_id", resp.LayoutID),
		zap.Int("width", resp.Surface.Width),
		zap.Int("height", resp.Surface.Height),
		zap.Int("placed", len(resp.Coordinates)),
		zap.Ints("unplaced", resp.Unplaced),
		zap.Float64("fullness", resp.Fullness),
	)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
