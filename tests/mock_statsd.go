package tests

import (
	"sync"
	"time"
)

type MockStatsdClient struct {
	Counts  *sync.Map
	Gauges  *sync.Map
	Timings *sync.Map
}

func NewMockStatsdClient() *MockStatsdClient {
	return &MockStatsdClient{Counts: &sync.Map{}, Gauges: &sync.Map{}, Timings: &sync.Map{}}
}

func (sd *MockStatsdClient) Inc(statName string) {
	for {
		current, _ := sd.Counts.LoadOrStore(statName, 0)
		if sd.Counts.CompareAndSwap(statName, current, current.(int)+1) {
			return
		}
	}
}

func (sd *MockStatsdClient) TimingDuration(statName string, value time.Duration) {
	sd.Timings.Store(statName, value)
}

func (sd *MockStatsdClient) Gauge(statName string, value int64) {
	sd.Gauges.Store(statName, value)
}

// Count returns how many times statName was incremented.
func (sd *MockStatsdClient) Count(statName string) int {
	v, ok := sd.Counts.Load(statName)
	if !ok {
		return 0
	}
	return v.(int)
}
