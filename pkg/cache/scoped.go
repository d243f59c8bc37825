package cache

// ScopedKeyer wraps a Keyer with a prefix so several sites or environments
// can share one Redis/Valkey instance without colliding.
//
// Example usage:
//
//	// Storefront and admin area keep separate namespaces
//	storefront := NewScopedKeyer(NewDefaultKeyer(), "site:storefront:")
//	admin := NewScopedKeyer(NewDefaultKeyer(), "site:admin:")
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

// DocumentKey generates a prefixed key for merged document caching.
func (k *ScopedKeyer) DocumentKey(handles []string, fingerprint string) string {
	return k.prefix + k.inner.DocumentKey(handles, fingerprint)
}
