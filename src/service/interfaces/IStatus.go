package interfaces

import "time"

type TraderStatus struct {
	CurrentCoin   string    `json:"currentCoin"`
	Bridge        string    `json:"bridge"`
	LastTick      time.Time `json:"lastTick"`
	Jumps         int64     `json:"jumps"`
	LastJumpError string    `json:"lastJumpError,omitempty"`
}

type IStatusProvider interface {
	Status() TraderStatus
}
