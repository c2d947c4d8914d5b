package monitoring

import (
	"encoding/json"
	"sync"
	"time"
)

// A ProgressBar tracks the completed coupling timesteps of a participant.
// InProgress counts the iterations of the running implicit timestep.
type ProgressBar struct {
	lock       sync.Mutex
	ID         string
	Name       string
	StartTime  time.Time
	Total      uint64
	Finished   uint64
	InProgress uint64
}

type progressBarRsp struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.Finished += amount
}

// FinishInProgress moves to the next element and clears the in-progress
// count.
func (b *ProgressBar) FinishInProgress() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.InProgress = 0
	b.Finished++
}

// MarshalJSON encodes a consistent snapshot of the bar.
func (b *ProgressBar) MarshalJSON() ([]byte, error) {
	b.lock.Lock()
	rsp := progressBarRsp{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
	b.lock.Unlock()

	return json.Marshal(rsp)
}
