package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each PDK or tenant its
// own namespace in a shared cache:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "pdk:generic:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key. A nil
// inner keyer means [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(signature string) string {
	return k.prefix + k.inner.LayoutKey(signature)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(signature string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(signature, opts)
}
