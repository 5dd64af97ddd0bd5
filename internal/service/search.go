package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/metrics"
)

// PlaceholderCount is what Count reports when there is nothing to show, so the
// presentation layer renders a single placeholder cell.
const PlaceholderCount = 1

// SearchService owns the current photo list and tells the presentation layer
// when it changes.
//
// Every fetch is tagged with a sequence number. A completion is applied only if
// no newer fetch was issued in the meantime, so a slow early response can never
// overwrite a fast later one. State changes and the change callback run on the
// injected dispatcher.
type SearchService struct {
	client     domain.SearchClient
	decoder    domain.ResultDecoder
	dispatcher domain.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger

	issued atomic.Uint64 // sequence number of the most recent fetch

	mu              sync.RWMutex
	photos          []domain.Photo
	hasPhotos       bool
	total           int
	term            string // query that produced photos
	onPhotosChanged func()
}

// NewSearchService creates a new search coordinator
func NewSearchService(client domain.SearchClient, decoder domain.ResultDecoder, dispatcher domain.Dispatcher, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatcher == nil {
		dispatcher = ImmediateDispatcher
	}
	return &SearchService{
		client:     client,
		decoder:    decoder,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetMetrics enables stale-response accounting
func (s *SearchService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetOnPhotosChanged installs the change callback, replacing any previous one.
// Pass nil to unsubscribe.
func (s *SearchService) SetOnPhotosChanged(fn func()) {
	s.mu.Lock()
	s.onPhotosChanged = fn
	s.mu.Unlock()
}

// FetchImages starts a search for searchTerm and returns immediately.
// The caller is responsible for passing a non-empty, trimmed term.
func (s *SearchService) FetchImages(searchTerm string) {
	seq := s.issued.Add(1)
	s.logger.Debug("fetching images", "query", searchTerm, "seq", seq)

	s.client.Request(searchTerm, func(data []byte, err error) {
		var results *domain.SearchResults
		if err != nil {
			s.logger.Warn("search request failed", "query", searchTerm, "seq", seq, "error", err)
		} else {
			results = s.decoder.Decode(data)
		}

		s.dispatcher.Dispatch(func() {
			s.complete(searchTerm, seq, results)
		})
	})
}

// complete applies a finished fetch. Runs on the dispatcher.
func (s *SearchService) complete(searchTerm string, seq uint64, results *domain.SearchResults) {
	if latest := s.issued.Load(); seq != latest {
		s.logger.Debug("discarding stale search response", "query", searchTerm, "seq", seq, "latest", latest)
		s.metrics.RecordStale()
		return
	}

	if results == nil {
		// Previous photos stay visible; no notification.
		return
	}

	photos := results.Results
	if photos == nil {
		photos = []domain.Photo{}
	}

	s.mu.Lock()
	s.photos = photos
	s.hasPhotos = true
	s.total = results.Total
	s.term = searchTerm
	notify := s.onPhotosChanged
	s.mu.Unlock()

	s.logger.Info("search results applied", "query", searchTerm, "seq", seq, "photos", len(photos), "total", results.Total)

	if notify != nil {
		notify()
	}
}

// Photos returns the current photo list; ok is false until a fetch succeeds
func (s *SearchService) Photos() (photos []domain.Photo, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photos, s.hasPhotos
}

// Total returns the server-side match count of the applied page
func (s *SearchService) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Term returns the query whose results are applied; empty until a fetch succeeds
func (s *SearchService) Term() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.term
}

// Count returns the number of cells to render: the photo count, or
// PlaceholderCount when there are no photos.
func (s *SearchService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.photos) > 0 {
		return len(s.photos)
	}
	return PlaceholderCount
}

// IsPlaceholder reports whether Count refers to the placeholder cell
func (s *SearchService) IsPlaceholder() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos) == 0
}

// ItemAt returns the photo at index; ok is false outside the photo list
func (s *SearchService) ItemAt(index int) (domain.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.photos) {
		return domain.Photo{}, false
	}
	return s.photos[index], true
}
