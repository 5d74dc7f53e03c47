package computing

import "testing"

func TestRecordAndLatest(t *testing.T) {
	s := New(4)
	if _, _, _, _, ok := s.Latest("peak1"); ok {
		t.Fatalf("expected no result before any record")
	}

	s.RecordPeak("peak1", 1000, 0.5, 100)
	s.RecordPeak("peak1", 2000, 0.8, 200)

	freq, amp, ppm, ts, ok := s.Latest("peak1")
	if !ok {
		t.Fatal("expected a result after recording")
	}
	if freq != 2000 || amp != 0.8 || ppm != 0 || ts != 200 {
		t.Errorf("Latest: got freq=%v amp=%v ppm=%v ts=%v", freq, amp, ppm, ts)
	}
}

func TestRecordConcentrationUpdatesMostRecent(t *testing.T) {
	s := New(4)
	s.RecordPeak("peak1", 1000, 0.5, 100)
	s.RecordConcentration("peak1", 42.5)

	freq, amp, ppm, _, ok := s.Latest("peak1")
	if !ok {
		t.Fatal("expected a result")
	}
	if ppm != 42.5 {
		t.Errorf("ConcentrationPpm: got %v, want 42.5", ppm)
	}
	if freq != 1000 || amp != 0.5 {
		t.Errorf("unexpected freq/amp change: %v/%v", freq, amp)
	}
}

func TestRecordConcentrationNoopWithoutPriorPeak(t *testing.T) {
	s := New(4)
	s.RecordConcentration("unknown", 1.0)
	if _, _, _, _, ok := s.Latest("unknown"); ok {
		t.Fatal("expected no result to be created by RecordConcentration alone")
	}
}

func TestRingOverwritesOldestWhenFull(t *testing.T) {
	s := New(2)
	s.RecordPeak("p", 1, 1, 1)
	s.RecordPeak("p", 2, 2, 2)
	s.RecordPeak("p", 3, 3, 3)

	history := s.History("p", 10)
	if len(history) != 2 {
		t.Fatalf("History length: got %d, want 2", len(history))
	}
	if history[0].FrequencyHz != 3 || history[1].FrequencyHz != 2 {
		t.Errorf("History order: got %+v", history)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	s := New(5)
	for i := 1; i <= 3; i++ {
		s.RecordPeak("p", float64(i), float64(i), int64(i))
	}
	history := s.History("p", 2)
	if len(history) != 2 {
		t.Fatalf("History length: got %d, want 2", len(history))
	}
	if history[0].FrequencyHz != 3 || history[1].FrequencyHz != 2 {
		t.Errorf("History order: got %+v", history)
	}
}

func TestActiveNodes(t *testing.T) {
	s := New(4)
	if got := s.ActiveNodes(); len(got) != 0 {
		t.Fatalf("ActiveNodes: got %v, want empty", got)
	}
	s.RecordPeak("a", 1, 1, 1)
	s.RecordPeak("b", 1, 1, 1)
	got := s.ActiveNodes()
	if len(got) != 2 {
		t.Fatalf("ActiveNodes: got %v, want 2 entries", got)
	}
}
