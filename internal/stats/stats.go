// Package stats tracks the server's running operation and connection
// counters, exposed for introspection alongside the command set.
package stats

import "sync"

// Stats holds counters mutated by the event loop and the command
// executors. All fields are guarded by mutex; use the accessor methods
// rather than touching fields directly.
type Stats struct {
	mutex sync.RWMutex

	TotalOps     uint64
	GetOps       uint64
	SetOps       uint64
	DelOps       uint64
	BytesRead    uint64
	BytesWritten uint64
	Connections  uint64
	ResizeCount  uint64
}

// New returns a zeroed Stats.
func New() *Stats {
	return &Stats{}
}

// IncrTotalOps records one executed command of any kind.
func (s *Stats) IncrTotalOps() {
	s.mutex.Lock()
	s.TotalOps++
	s.mutex.Unlock()
}

// IncrGetOps records a GET.
func (s *Stats) IncrGetOps() {
	s.mutex.Lock()
	s.GetOps++
	s.mutex.Unlock()
}

// IncrSetOps records a SET.
func (s *Stats) IncrSetOps() {
	s.mutex.Lock()
	s.SetOps++
	s.mutex.Unlock()
}

// IncrDelOps records a DEL.
func (s *Stats) IncrDelOps() {
	s.mutex.Lock()
	s.DelOps++
	s.mutex.Unlock()
}

// IncrConnections records a newly accepted connection.
func (s *Stats) IncrConnections() {
	s.mutex.Lock()
	s.Connections++
	s.mutex.Unlock()
}

// IncrResizeCount records a hash table resize having started.
func (s *Stats) IncrResizeCount() {
	s.mutex.Lock()
	s.ResizeCount++
	s.mutex.Unlock()
}

// AddBytesRead accumulates bytes read off the wire.
func (s *Stats) AddBytesRead(n uint64) {
	s.mutex.Lock()
	s.BytesRead += n
	s.mutex.Unlock()
}

// AddBytesWritten accumulates bytes written to the wire.
func (s *Stats) AddBytesWritten(n uint64) {
	s.mutex.Lock()
	s.BytesWritten += n
	s.mutex.Unlock()
}

// Snapshot returns a defensive copy of the current counters, safe to read
// without racing further writes.
func (s *Stats) Snapshot() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return Stats{
		TotalOps:     s.TotalOps,
		GetOps:       s.GetOps,
		SetOps:       s.SetOps,
		DelOps:       s.DelOps,
		BytesRead:    s.BytesRead,
		BytesWritten: s.BytesWritten,
		Connections:  s.Connections,
		ResizeCount:  s.ResizeCount,
	}
}
