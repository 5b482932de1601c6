package scoring_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
	"github.com/couchcryptid/coastal-threat-bridge/internal/scoring"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func vector(seaLevel, windSpeed, chlA float64) domain.FeatureVector {
	var fv domain.FeatureVector
	fv[domain.FeatureSeaLevel] = seaLevel
	fv[domain.FeatureWindSpeed] = windSpeed
	fv[domain.FeatureChlA] = chlA
	return fv
}

func TestHeuristic(t *testing.T) {
	t.Run("reference vector", func(t *testing.T) {
		// 0.4*0.75 + 0.3*0.8 + 0.3*0.5 = 0.69
		got := scoring.Heuristic(vector(1.5, 40, 1.0))
		assert.InDelta(t, 0.69, got, 1e-9)
	})

	t.Run("all zero features score zero", func(t *testing.T) {
		assert.Zero(t, scoring.Heuristic(domain.FeatureVector{}))
	})

	t.Run("each term saturates at its ceiling", func(t *testing.T) {
		got := scoring.Heuristic(vector(100, 500, 50))
		assert.Equal(t, 1.0, got)
	})

	t.Run("salinity and temp do not affect the score", func(t *testing.T) {
		base := vector(1.0, 20, 0.5)
		shifted := base
		shifted[domain.FeatureSalinity] = 40
		shifted[domain.FeatureTemp] = 35
		assert.Equal(t, scoring.Heuristic(base), scoring.Heuristic(shifted))
	})

	t.Run("output stays in unit interval", func(t *testing.T) {
		inputs := []domain.FeatureVector{
			vector(0, 0, 0),
			vector(0.1, 0, 0),
			vector(2.0, 50, 2.0),
			vector(1e6, 1e6, 1e6),
		}
		for _, fv := range inputs {
			got := scoring.Heuristic(fv)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	})

	t.Run("monotonic non-decreasing per feature", func(t *testing.T) {
		steps := []float64{0, 0.5, 1.0, 1.5, 2.0, 10, 60}
		for _, feature := range []int{domain.FeatureSeaLevel, domain.FeatureWindSpeed, domain.FeatureChlA} {
			prev := -1.0
			for _, v := range steps {
				fv := vector(0.8, 15, 0.4)
				fv[feature] = v
				got := scoring.Heuristic(fv)
				assert.GreaterOrEqual(t, got, prev, "feature index %d at value %v", feature, v)
				prev = got
			}
		}
	})
}

type stubModel struct {
	prob float64
	err  error
}

func (s *stubModel) Infer(domain.FeatureVector) (float64, error) {
	return s.prob, s.err
}

func TestEnginePredict(t *testing.T) {
	t.Run("nil model uses heuristic", func(t *testing.T) {
		e := scoring.NewEngine(nil, discardLogger())
		assert.InDelta(t, 0.69, e.Predict(vector(1.5, 40, 1.0)), 1e-9)
	})

	t.Run("model output is clamped", func(t *testing.T) {
		e := scoring.NewEngine(&stubModel{prob: 1.7}, discardLogger())
		assert.Equal(t, 1.0, e.Predict(domain.FeatureVector{}))

		e = scoring.NewEngine(&stubModel{prob: -0.2}, discardLogger())
		assert.Equal(t, 0.0, e.Predict(domain.FeatureVector{}))
	})

	t.Run("inference error falls back to heuristic", func(t *testing.T) {
		e := scoring.NewEngine(&stubModel{err: errors.New("model file corrupted")}, discardLogger())
		assert.InDelta(t, 0.69, e.Predict(vector(1.5, 40, 1.0)), 1e-9)
	})
}
