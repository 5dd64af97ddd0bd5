package domain

// SearchClient issues photo search requests.
// Request must not block; callback runs on a worker goroutine with either the
// raw response body or an error, never both.
type SearchClient interface {
	Request(searchTerm string, callback func(data []byte, err error))
}

// ResultDecoder turns a raw response body into SearchResults.
// It returns nil for absent or malformed input, never partial data.
type ResultDecoder interface {
	Decode(data []byte) *SearchResults
}

// Dispatcher runs work on the single goroutine that owns presentation state.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(fn func())

// Dispatch calls f(fn)
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }
