package interfaces

// ILock is a named mutual exclusion lease. *redsync.Mutex satisfies it.
type ILock interface {
	Lock() error
	Unlock() (bool, error)
	Extend() (bool, error)
	Name() string
}
