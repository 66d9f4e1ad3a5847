package tests

import "sync"

type MockLock struct {
	mu      sync.Mutex
	LockErr error
	Locks   int
	Unlocks int
	Extends int
}

func (ml *MockLock) Lock() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.LockErr != nil {
		return ml.LockErr
	}
	ml.Locks++
	return nil
}

func (ml *MockLock) Unlock() (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.Unlocks++
	return true, nil
}

func (ml *MockLock) Extend() (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.Extends++
	return true, nil
}

func (ml *MockLock) Name() string {
	return "mock"
}

func (ml *MockLock) Counts() (locks, unlocks, extends int) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.Locks, ml.Unlocks, ml.Extends
}
