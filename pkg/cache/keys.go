package cache

// Keyer builds cache keys for each kind of cached value.
type Keyer interface {
	// DocumentKey identifies a workflow document fetched from url.
	DocumentKey(url string) string

	// LayoutKey identifies a positioned document by the hash of the
	// unpositioned document and the layout options.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies rendered output of a positioned document.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds everything besides the document that changes a layout.
type LayoutKeyOpts struct {
	Strategy   string `json:"strategy"`
	Center     bool   `json:"center"`
	ConfigHash string `json:"config_hash"`
}

// ArtifactKeyOpts holds everything besides the layout that changes an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Renderer string  `json:"renderer,omitempty"`
	Detailed bool    `json:"detailed"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey returns "doc:<url>".
func (DefaultKeyer) DocumentKey(url string) string { return "doc:" + url }

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
