package unsplash

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/snapgrid/internal/domain"
)

// Decoder converts search response bodies into domain.SearchResults
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder that logs rejected payloads
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// Decode returns the decoded envelope, or nil when data is absent or malformed.
// The failure reason is logged and dropped.
func (d *Decoder) Decode(data []byte) *domain.SearchResults {
	if data == nil {
		return nil
	}
	results, err := DecodeResults(data)
	if err != nil {
		d.logger.Warn("failed to decode search response", "error", err, "bytes", len(data))
		return nil
	}
	return results
}

// DecodeResults strictly decodes a search response body.
// Missing, null or mistyped total/results fail; unknown fields are ignored.
func DecodeResults(data []byte) (*domain.SearchResults, error) {
	if data == nil {
		return nil, &domain.DecodeError{Err: errors.New("no data")}
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &domain.DecodeError{Err: err}
	}

	if resp.Total == nil {
		return nil, &domain.DecodeError{Err: errors.New(`missing field "total"`)}
	}
	if *resp.Total < 0 {
		return nil, &domain.DecodeError{Err: fmt.Errorf(`negative "total": %d`, *resp.Total)}
	}
	if resp.Results == nil {
		return nil, &domain.DecodeError{Err: errors.New(`missing field "results"`)}
	}

	photos, err := mapPhotos(*resp.Results)
	if err != nil {
		return nil, &domain.DecodeError{Err: err}
	}

	return &domain.SearchResults{
		Total:   *resp.Total,
		Results: photos,
	}, nil
}

// mapPhotos converts wire photos to domain photos, rejecting the whole page if
// any entry lacks an id or urls.
func mapPhotos(dtos []photoDTO) ([]domain.Photo, error) {
	photos := make([]domain.Photo, 0, len(dtos))
	for i, dto := range dtos {
		if dto.ID == nil || *dto.ID == "" {
			return nil, fmt.Errorf(`results[%d]: missing field "id"`, i)
		}
		if dto.URLs == nil {
			return nil, fmt.Errorf(`results[%d]: missing field "urls"`, i)
		}
		urls := make(map[string]string, len(*dto.URLs))
		for label, u := range *dto.URLs {
			if u == nil {
				return nil, fmt.Errorf(`results[%d]: null url for %q`, i, label)
			}
			urls[label] = *u
		}
		photos = append(photos, domain.Photo{ID: *dto.ID, URLs: urls})
	}
	return photos, nil
}
