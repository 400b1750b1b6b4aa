package cache

// Keyer derives cache keys.
type Keyer interface {
	// PointsKey identifies the result of one deterministic generation.
	PointsKey(opts PointsKeyOpts) string
}

// PointsKeyOpts holds everything a deterministic generation depends on.
// Functions carries each input function's history lines; identities are
// deliberately absent so equal functions share entries.
type PointsKeyOpts struct {
	Type       string     `json:"type"`
	Iterations int        `json:"iterations"`
	Skips      int        `json:"skips,omitempty"`
	Seed       string     `json:"seed,omitempty"`
	Functions  [][]string `json:"functions"`
}

// DefaultKeyer produces "points:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PointsKey hashes opts into a key.
func (DefaultKeyer) PointsKey(opts PointsKeyOpts) string {
	return hashKey("points", opts)
}
