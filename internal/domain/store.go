package domain

// HistoryEntry is a previously submitted search term
type HistoryEntry struct {
	Term      string `json:"term"`
	LastUsed  int64  `json:"last_used"` // unix seconds
	TimesUsed int    `json:"times_used"`
}

// HistoryStore persists submitted search terms
type HistoryStore interface {
	GetHistory() ([]HistoryEntry, bool)
	SaveHistory(entries []HistoryEntry) error
}

// ImageStore persists downloaded image bytes keyed by URL
type ImageStore interface {
	GetImage(url string) ([]byte, bool)
	SaveImage(url string, data []byte) error
	DeleteImage(url string) error
}

// Store handles local cache (BoltDB + memory).
// Search results are never cached; only history and image bytes.
type Store interface {
	HistoryStore
	ImageStore

	ClearHistory() error
	ClearImages() error
	ImageStats() (count int, size int64)
	Close() error
}
