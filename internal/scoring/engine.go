// Package scoring turns a feature vector into a coastal threat probability.
package scoring

import (
	"log/slog"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

// Nominal ceilings used to normalize raw feature values into [0,1].
// A two-meter surge, 50 m/s winds, or 2 mg/m^3 chlorophyll-a each saturate
// their term.
const (
	seaLevelCeiling  = 2.0
	windSpeedCeiling = 50.0
	chlACeiling      = 2.0
)

// Heuristic term weights.
const (
	seaLevelWeight  = 0.4
	windSpeedWeight = 0.3
	chlAWeight      = 0.3
)

// Model is a trained classifier. Infer may fail; the engine treats any
// failure as a signal to fall back to the heuristic for that single call.
type Model interface {
	Infer(fv domain.FeatureVector) (float64, error)
}

// Engine scores feature vectors. Predict never fails: with no model loaded,
// or when inference errors, it falls back to the deterministic heuristic so
// ingestion never blocks on model availability.
type Engine struct {
	model  Model
	logger *slog.Logger
}

// NewEngine creates a scoring engine. Pass a nil model to run heuristic-only.
func NewEngine(model Model, logger *slog.Logger) *Engine {
	if model == nil {
		logger.Info("no trained model loaded, using heuristic scoring")
	}
	return &Engine{model: model, logger: logger}
}

// Predict returns a threat probability in [0,1] for the given features.
func (e *Engine) Predict(fv domain.FeatureVector) float64 {
	if e.model != nil {
		p, err := e.model.Infer(fv)
		if err == nil {
			return clamp01(p)
		}
		e.logger.Warn("model inference failed, falling back to heuristic", "error", err)
	}
	return Heuristic(fv)
}

// Heuristic scores a feature vector without a trained model: each of
// sea_level, wind_speed, and chl_a is normalized by its nominal ceiling and
// clamped, then combined as a weighted sum. Monotonic non-decreasing in each
// of the three features.
func Heuristic(fv domain.FeatureVector) float64 {
	sea := clamp01(fv[domain.FeatureSeaLevel] / seaLevelCeiling)
	wind := clamp01(fv[domain.FeatureWindSpeed] / windSpeedCeiling)
	chl := clamp01(fv[domain.FeatureChlA] / chlACeiling)
	return clamp01(seaLevelWeight*sea + windSpeedWeight*wind + chlAWeight*chl)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
