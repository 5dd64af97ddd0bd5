package service

import "github.com/mmcdole/snapgrid/internal/domain"

// ImmediateDispatcher runs work on the calling goroutine.
// Suitable when there is no UI goroutine to hop to (tests, headless use).
var ImmediateDispatcher domain.Dispatcher = domain.DispatcherFunc(func(fn func()) { fn() })
