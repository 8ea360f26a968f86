package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired — ключ удерживается другим владельцем дольше, чем позволяет контекст.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker даёт взаимное исключение по строковому ключу
// (id помещения при бронировании, адрес при проверке наводок).
type Locker interface {
	// Lock блокирует до захвата ключа или отмены ctx.
	// Возвращённую функцию нужно вызвать ровно один раз.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker: блокировки в пределах одного процесса.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s, false)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, s, true) })
	}, nil
}

func (l *LocalLocker) release(key string, s *slot, held bool) {
	if held {
		<-s.ch
	}
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// Size: число ключей, по которым кто-то держит или ждёт блокировку.
func (l *LocalLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// retryDelay — пауза между попытками захвата распределённой блокировки.
const retryDelay = 25 * time.Millisecond
