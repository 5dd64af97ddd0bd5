package domain

import "encoding/json"

// SearchResults is the decoded envelope of one search page.
// len(Results) may be less than Total; only the first page is ever requested.
type SearchResults struct {
	Total   int     `json:"total"`
	Results []Photo `json:"results"`
}

// MarshalJSON writes nil Results as an empty array so the output decodes again
func (r SearchResults) MarshalJSON() ([]byte, error) {
	type wire SearchResults
	if r.Results == nil {
		r.Results = []Photo{}
	}
	return json.Marshal(wire(r))
}
