package domain

// Signal math constants, inherited from the upstream pipeline.
const (
	MaxRawEntropy      = 3.0
	HealthFloor        = 0.2
	HealthEntropyWt    = 0.6
	HealthDissonanceWt = 0.4
)

// SignalSnapshot is a point-in-time quality reading for an analysis: the
// baseline handed in by the caller, and the fresh estimates produced by each
// target re-attempt. Snapshots are passed by value; nothing mutates one in
// place.
type SignalSnapshot struct {
	Confidence         float64 `json:"confidence"`
	Entropy            float64 `json:"entropy"`
	Dissonance         float64 `json:"dissonance"`
	HealthScore        float64 `json:"health_score"`
	PersistenceEntropy float64 `json:"persistence_entropy"`
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeEntropy maps a raw persistence-entropy reading onto [0,1].
func NormalizeEntropy(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	v := raw / MaxRawEntropy
	if v > 1 {
		return 1
	}
	return v
}

// HealthFromSignals recomputes the health figure from entropy and dissonance
// using the pipeline's fixed weighting, floored so a bad reading never reports
// a dead system.
func HealthFromSignals(entropy, dissonance float64) float64 {
	raw := 1.0 - (HealthEntropyWt*entropy + HealthDissonanceWt*dissonance)
	if raw < HealthFloor {
		return HealthFloor
	}
	if raw > 1 {
		return 1
	}
	return raw
}
