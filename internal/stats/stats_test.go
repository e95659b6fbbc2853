package stats

import "testing"

func TestCountersIncrement(t *testing.T) {
	s := New()

	s.IncrTotalOps()
	s.IncrTotalOps()
	s.IncrGetOps()
	s.IncrSetOps()
	s.IncrDelOps()
	s.IncrConnections()
	s.IncrResizeCount()
	s.AddBytesRead(10)
	s.AddBytesWritten(20)

	snap := s.Snapshot()
	if snap.TotalOps != 2 {
		t.Errorf("TotalOps = %d, want 2", snap.TotalOps)
	}
	if snap.GetOps != 1 || snap.SetOps != 1 || snap.DelOps != 1 {
		t.Errorf("got GetOps=%d SetOps=%d DelOps=%d, want 1/1/1", snap.GetOps, snap.SetOps, snap.DelOps)
	}
	if snap.Connections != 1 || snap.ResizeCount != 1 {
		t.Errorf("got Connections=%d ResizeCount=%d, want 1/1", snap.Connections, snap.ResizeCount)
	}
	if snap.BytesRead != 10 || snap.BytesWritten != 20 {
		t.Errorf("got BytesRead=%d BytesWritten=%d, want 10/20", snap.BytesRead, snap.BytesWritten)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.IncrTotalOps()

	snap := s.Snapshot()
	s.IncrTotalOps()

	if snap.TotalOps != 1 {
		t.Errorf("snapshot mutated after further writes: TotalOps = %d, want 1", snap.TotalOps)
	}
}
