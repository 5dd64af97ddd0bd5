package service

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/snapgrid/internal/domain"
)

const defaultHistorySize = 50

// HistoryService records submitted search terms and suggests them back
type HistoryService struct {
	store      domain.HistoryStore
	maxEntries int
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries []domain.HistoryEntry // most recent first
	loaded  bool
}

// NewHistoryService creates a history service. store may be nil for an
// in-memory history.
func NewHistoryService(store domain.HistoryStore, maxEntries int, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries <= 0 {
		maxEntries = defaultHistorySize
	}
	return &HistoryService{
		store:      store,
		maxEntries: maxEntries,
		logger:     logger,
		now:        time.Now,
	}
}

// load reads persisted history once. Caller holds mu.
func (h *HistoryService) load() {
	if h.loaded {
		return
	}
	h.loaded = true
	if h.store == nil {
		return
	}
	if entries, ok := h.store.GetHistory(); ok {
		h.entries = entries
		h.logger.Debug("loaded search history", "entries", len(entries))
	}
}

// Record moves term to the front of the history, adding it if new.
// Terms are matched case-insensitively; blank terms are ignored.
func (h *HistoryService) Record(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.load()

	entry := domain.HistoryEntry{Term: term, LastUsed: h.now().Unix(), TimesUsed: 1}
	kept := make([]domain.HistoryEntry, 0, len(h.entries)+1)
	for _, e := range h.entries {
		if strings.EqualFold(e.Term, term) {
			entry.TimesUsed = e.TimesUsed + 1
			continue
		}
		kept = append(kept, e)
	}

	h.entries = append([]domain.HistoryEntry{entry}, kept...)
	if len(h.entries) > h.maxEntries {
		h.entries = h.entries[:h.maxEntries]
	}

	if h.store == nil {
		return nil
	}
	if err := h.store.SaveHistory(h.entries); err != nil {
		h.logger.Warn("failed to save search history", "error", err)
		return err
	}
	return nil
}

// Recent returns up to limit terms, most recent first (limit <= 0 = all)
func (h *HistoryService) Recent(limit int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.load()

	n := len(h.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	terms := make([]string, n)
	for i := 0; i < n; i++ {
		terms[i] = h.entries[i].Term
	}
	return terms
}

// Suggest returns history terms that fuzzy-match query, best match first.
// Ties are broken by recency. An empty query returns the most recent terms.
func (h *HistoryService) Suggest(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return h.Recent(limit)
	}

	recent := h.Recent(0)
	if len(recent) == 0 {
		return nil
	}

	matches := fuzzy.RankFindNormalizedFold(query, recent)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		// Position in history doubles as the recency rank
		return matches[i].OriginalIndex < matches[j].OriginalIndex
	})

	var results []string
	for _, m := range matches {
		if strings.EqualFold(m.Target, query) {
			continue // already typed in full
		}
		results = append(results, m.Target)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}
