package ui

import (
	"sync"
	"time"
)

// Debounce returns a function that delays fn until wait has elapsed since the
// last call. Every call restarts the timer and only the last argument reaches fn.
func Debounce[T any](fn func(T), wait time.Duration) func(T) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	return func(arg T) {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(wait, func() { fn(arg) })
	}
}

// Throttle returns a function that calls fn at once and then drops every call
// for limit. Dropped calls are not replayed.
func Throttle[T any](fn func(T), limit time.Duration) func(T) {
	var (
		mu    sync.Mutex
		until time.Time
	)
	return func(arg T) {
		mu.Lock()
		now := time.Now()
		if now.Before(until) {
			mu.Unlock()
			return
		}
		until = now.Add(limit)
		mu.Unlock()
		fn(arg)
	}
}
