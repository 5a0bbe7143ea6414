package cache

// Keyer derives cache keys. Implementations must be deterministic: the
// same inputs always give the same key.
type Keyer interface {
	// LayoutKey keys the layout document of a component signature.
	LayoutKey(signature string) string

	// ArtifactKey keys one export of a component signature.
	ArtifactKey(signature string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the export options an artifact depends on.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Check  bool   `json:"check,omitempty"`
	PDK    string `json:"pdk,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<signature>". Signatures are already content
// hashes, so they are used as they are.
func (DefaultKeyer) LayoutKey(signature string) string {
	return "layout:" + signature
}

// ArtifactKey returns "artifact:<sha256 of signature and opts>".
func (DefaultKeyer) ArtifactKey(signature string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", signature, opts)
}

var _ Keyer = DefaultKeyer{}
