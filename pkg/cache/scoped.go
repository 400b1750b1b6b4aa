package cache

// ScopedKeyer wraps a Keyer with a prefix so that several sessions or hosts
// can share one backend without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "lab-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PointsKey generates a prefixed key for point set caching.
func (k *ScopedKeyer) PointsKey(opts PointsKeyOpts) string {
	return k.prefix + k.inner.PointsKey(opts)
}
