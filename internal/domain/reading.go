package domain

import "time"

// FeatureOrder is the fixed projection order shared between readings and the
// scoring engine. Changing it invalidates any trained model.
var FeatureOrder = [...]string{"sea_level", "wind_speed", "salinity", "temp", "chl_a"}

// Indexes into a FeatureVector, matching FeatureOrder.
const (
	FeatureSeaLevel = iota
	FeatureWindSpeed
	FeatureSalinity
	FeatureTemp
	FeatureChlA
)

// FeatureVector is a Reading's values projected onto FeatureOrder.
type FeatureVector [len(FeatureOrder)]float64

// Reading is one raw sensor observation. It is immutable once built: the
// ingestion pipeline hands independent copies of Values to persistence and
// broadcast, never the same map.
type Reading struct {
	ID         int64              `json:"id,omitempty"`
	SensorType string             `json:"sensor_type"`
	Source     string             `json:"source"`
	Values     map[string]float64 `json:"values"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Features projects the reading's values onto the fixed feature order.
// Features absent from the map contribute 0.0.
func (r Reading) Features() FeatureVector {
	var fv FeatureVector
	for i, name := range FeatureOrder {
		fv[i] = r.Values[name]
	}
	return fv
}

// CloneValues returns an independent copy of the reading's value map so that
// downstream consumers never share mutable state with the pipeline.
func (r Reading) CloneValues() map[string]float64 {
	if r.Values == nil {
		return nil
	}
	out := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}
