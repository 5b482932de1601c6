// Package domain models coastal environmental sensor readings and the threat
// alerts derived from them.
//
// # Data Source
//
// Readings arrive from field sensors (tide gauges, weather stations, water
// quality buoys) as flat JSON posted to the ingestion API. Each reading
// carries a free-form map of feature values; the scoring contract only cares
// about the five features listed in [FeatureOrder], projected in that exact
// order. Missing features default to zero so a partially instrumented site
// still produces a score.
//
// # Feature Conventions
//
//	sea_level   meters above datum, nominal ceiling 2.0 m
//	wind_speed  meters per second, nominal ceiling 50 m/s
//	salinity    practical salinity units (not used by the fallback heuristic)
//	temp        degrees Celsius (not used by the fallback heuristic)
//	chl_a       chlorophyll-a concentration in mg/m^3, nominal ceiling 2.0
//
// # Severity Classification
//
// Threat probabilities map onto a two-level severity scale with strict
// thresholds: above 0.7 is high, above 0.4 is medium, anything else raises
// no alert. The boundary values themselves (exactly 0.7, exactly 0.4) fall
// into the lower bucket.
//
// # Broadcast Frames
//
// Everything fanned out to dashboard subscribers is a [BroadcastMessage]:
// a JSON object whose "type" field ("reading" or "alert") is the sole
// discriminator clients use to pick a payload shape. The tag is injected by
// the publishing side, never accepted from callers.
package domain
