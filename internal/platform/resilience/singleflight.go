package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight deduplicates concurrent calls for the same key. The zero value is ready to use.
type SingleFlight struct {
	group singleflight.Group
}

// Do runs fn once per key among concurrent callers; shared reports whether the result was reused.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	return g.group.Do(key, fn)
}

// Forget drops an in-flight key so the next caller starts a fresh call.
func (g *SingleFlight) Forget(key string) {
	g.group.Forget(key)
}
