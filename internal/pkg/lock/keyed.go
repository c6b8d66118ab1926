package lock

import (
	"context"
	"sync"
)

type keyLock struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is the in-process Locker. Idle keys are dropped from the map.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (k *KeyedMutex) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = dedupe(keys)
	held := make([]string, 0, len(keys))

	for _, key := range keys {
		if err := k.acquire(ctx, key); err != nil {
			k.releaseAll(held)
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { k.releaseAll(held) }) }, nil
}

func (k *KeyedMutex) acquire(ctx context.Context, key string) error {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.unref(key, l)
		k.mu.Unlock()
		return ctx.Err()
	}
}

func (k *KeyedMutex) releaseAll(keys []string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		l := k.locks[keys[i]]
		<-l.ch
		k.unref(keys[i], l)
	}
}

// unref must be called with k.mu held.
func (k *KeyedMutex) unref(key string, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
