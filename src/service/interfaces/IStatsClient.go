package interfaces

import "time"

type IStatsClient interface {
	Inc(statName string)
	TimingDuration(statName string, value time.Duration)
	Gauge(statName string, value int64)
}
