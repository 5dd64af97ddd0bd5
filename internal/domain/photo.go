package domain

import "encoding/json"

// SizeLabel names one of the rendition sizes a photo is served in
type SizeLabel string

const (
	SizeRaw     SizeLabel = "raw"
	SizeFull    SizeLabel = "full"
	SizeRegular SizeLabel = "regular"
	SizeSmall   SizeLabel = "small"
	SizeThumb   SizeLabel = "thumb"
)

// KnownSizeLabels lists the rendition sizes from largest to smallest.
// Labels outside this set are kept in Photo.URLs as plain keys.
var KnownSizeLabels = []SizeLabel{SizeRaw, SizeFull, SizeRegular, SizeSmall, SizeThumb}

// IsKnown reports whether the label is one of the closed set of sizes
func (l SizeLabel) IsKnown() bool {
	for _, known := range KnownSizeLabels {
		if l == known {
			return true
		}
	}
	return false
}

// Photo is a single search hit: a stable identifier plus rendition URLs
type Photo struct {
	ID   string            `json:"id"`
	URLs map[string]string `json:"urls"`
}

// MarshalJSON writes nil URLs as an empty object so the output decodes again
func (p Photo) MarshalJSON() ([]byte, error) {
	type wire Photo
	if p.URLs == nil {
		p.URLs = map[string]string{}
	}
	return json.Marshal(wire(p))
}

// Equal compares photos by ID only; URL contents are ignored.
func (p Photo) Equal(other Photo) bool {
	return p.ID == other.ID
}

// URL returns the rendition URL for a size label
func (p Photo) URL(label SizeLabel) (string, bool) {
	u, ok := p.URLs[string(label)]
	if !ok || u == "" {
		return "", false
	}
	return u, true
}

// PreviewURL returns the URL used for grid cells
func (p Photo) PreviewURL() (string, bool) {
	return p.URL(SizeRegular)
}

// OpenURL returns the best URL for viewing the photo outside the terminal
func (p Photo) OpenURL() (string, bool) {
	for _, label := range []SizeLabel{SizeFull, SizeRegular, SizeRaw, SizeSmall, SizeThumb} {
		if u, ok := p.URL(label); ok {
			return u, true
		}
	}
	return "", false
}
