package unsplash

// searchResponse is the wire form of GET /search/photos.
// Pointer fields distinguish a missing key from a zero value.
type searchResponse struct {
	Total      *int        `json:"total"`
	TotalPages int         `json:"total_pages,omitempty"`
	Results    *[]photoDTO `json:"results"`
}

// photoDTO is a single result. Only id and urls are modeled; the rest of the
// Unsplash photo object (user, links, description, ...) is ignored.
// A null URL value decodes to a nil entry and is rejected.
type photoDTO struct {
	ID   *string             `json:"id"`
	URLs *map[string]*string `json:"urls"`
}
