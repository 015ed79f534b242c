package model

// Role tells which side of the reconciliation a source feeds.
type Role string

const (
	// RoleDatabase marks the community database, the reference collection.
	RoleDatabase Role = "database"

	// RoleLive marks the retailer's live site, the collection under test.
	RoleLive Role = "live"
)

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleDatabase || r == RoleLive
}

// ImageRecord is a single downloaded coupon image.
// It is created by the fetch stage and never modified afterwards.
type ImageRecord struct {
	// Raw holds the image bytes exactly as served.
	Raw []byte `json:"-"`

	// ContentHash is the 64-bit identity hash of Raw.
	// Identical byte sequences always produce the same value, across runs
	// and processes.
	ContentHash uint64 `json:"content_hash"`

	// Name is the display name taken from the final URL path segment.
	// Unmatched images are saved under this name.
	Name string `json:"name"`

	// SourceURL is the URL the bytes were downloaded from.
	SourceURL string `json:"source_url"`

	// Source is the name of the configured source that listed SourceURL.
	Source string `json:"source"`
}

// Size returns the number of raw bytes.
func (r ImageRecord) Size() int {
	return len(r.Raw)
}

// Collection is the ordered set of images fetched from one side of a run.
// It is built once and only read afterwards.
type Collection []ImageRecord

// Len returns the number of records.
func (c Collection) Len() int {
	return len(c)
}

// Hashes returns the set of content hashes in the collection.
func (c Collection) Hashes() map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(c))
	for _, r := range c {
		set[r.ContentHash] = struct{}{}
	}
	return set
}

// Names returns the display names in collection order.
func (c Collection) Names() []string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name
	}
	return names
}

// BySource returns the records that came from the named source.
func (c Collection) BySource(source string) Collection {
	out := make(Collection, 0)
	for _, r := range c {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}
