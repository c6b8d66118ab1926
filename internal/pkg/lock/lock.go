// Package lock serializes check-then-act sequences on named keys
// ("member:<id>", "session:<id>", "coach:<id>").
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires every key in the order given and returns a function that
// releases them in reverse. Callers must agree on key order across code
// paths. Duplicate keys are acquired once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func MemberKey(id string) string  { return "member:" + id }
func SessionKey(id string) string { return "session:" + id }
func CoachKey(id string) string   { return "coach:" + id }
