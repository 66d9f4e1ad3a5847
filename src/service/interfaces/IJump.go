package interfaces

import "context"

// IJumpRouter moves the whole holding from one coin to another through the bridge.
type IJumpRouter interface {
	Jump(ctx context.Context, from, to string) error
}

// IThresholds maintains the pair ratio baseline.
type IThresholds interface {
	InitializeMissing(ctx context.Context) (int, error)
	RebaseOnCurrent(ctx context.Context, current string) (int, error)
}

// ITradeRouter is the router as seen by the trader.
type ITradeRouter interface {
	IJumpRouter
	BuyInto(ctx context.Context, coin string) error
	// Reconcile returns the coin actually held according to exchange balances.
	Reconcile(ctx context.Context, holding string) (string, error)
	Jumps() int64
	LastError() error
}

// IScout runs one decision step and reports whether it jumped.
type IScout interface {
	Tick(ctx context.Context) (bool, error)
}
