package jump

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrJumpInProgress is returned when another jump holds the settlement lock.
var ErrJumpInProgress = errors.New("jump in progress")

var errLocalLockHeld = errors.New("lock held")

// LocalLock is the in-process settlement lock used when no redis is configured.
type LocalLock struct {
	name string
	mu   sync.Mutex
}

func NewLocalLock(name string) *LocalLock {
	return &LocalLock{name: name}
}

func (l *LocalLock) Lock() error {
	if !l.mu.TryLock() {
		return errLocalLockHeld
	}
	return nil
}

func (l *LocalLock) Unlock() (bool, error) {
	l.mu.Unlock()
	return true, nil
}

func (l *LocalLock) Extend() (bool, error) {
	return true, nil
}

func (l *LocalLock) Name() string {
	return l.name
}

// LockName is the settlement lock shared by every trader on the same bridge.
func LockName(bridge string) string {
	return fmt.Sprintf("jump:%v", bridge)
}

// settle takes the settlement lock and keeps extending it until the returned release is called.
func (r *Router) settle() (func(), error) {
	r.Log.Debug("trying to lock mutex", zap.String("name", r.Lock.Name()))
	if err := r.Lock.Lock(); err != nil {
		r.Log.Debug("mutex lock failed",
			zap.String("name", r.Lock.Name()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrJumpInProgress, r.Lock.Name(), err)
	}
	r.Log.Debug("mutex locked", zap.String("name", r.Lock.Name()))

	done := make(chan struct{})
	var wg sync.WaitGroup
	if r.ExtendEvery > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(r.ExtendEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
				}
				r.Log.Debug("extending settlement", zap.String("name", r.Lock.Name()))
				success, err := r.Lock.Extend()
				if !success || err != nil {
					r.Log.Error("settlement mutex extension",
						zap.Bool("success", success),
						zap.String("name", r.Lock.Name()),
						zap.Error(err),
					)
					return
				}
			}
		}()
	}

	return func() {
		close(done)
		wg.Wait()
		if ok, err := r.Lock.Unlock(); !ok || err != nil {
			r.Log.Warn("settlement mutex unlock",
				zap.Bool("success", ok),
				zap.String("name", r.Lock.Name()),
				zap.Error(err),
			)
		}
	}, nil
}
