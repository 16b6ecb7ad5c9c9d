package sequence

import "testing"

func TestAccountant_SeqIncrementsAndWraps(t *testing.T) {
	a := New()

	for i := 0; i < 256; i++ {
		if got := a.NextSeq(); got != uint64(i) {
			t.Fatalf("NextSeq() = %d, want %d", got, i)
		}
	}

	// 256th publish wraps back to 0.
	if got := a.NextSeq(); got != 0 {
		t.Errorf("NextSeq() after wrap = %d, want 0", got)
	}
}

func TestAccountant_ResetSeq(t *testing.T) {
	a := New()
	a.NextSeq()
	a.NextSeq()
	a.NextSeq()

	a.ResetSeq()

	if got := a.NextSeq(); got != 0 {
		t.Errorf("NextSeq() after ResetSeq = %d, want 0", got)
	}
	if got := a.NextSeq(); got != 1 {
		t.Errorf("NextSeq() = %d, want 1", got)
	}
}

func TestAccountant_BdSeqPerAttempt(t *testing.T) {
	a := New()

	// First attempt uses 0, later attempts increment.
	if got := a.BumpBdSeq(); got != 0 {
		t.Errorf("first BumpBdSeq() = %d, want 0", got)
	}
	if got := a.BdSeq(); got != 0 {
		t.Errorf("BdSeq() = %d, want 0", got)
	}
	if got := a.BumpBdSeq(); got != 1 {
		t.Errorf("second BumpBdSeq() = %d, want 1", got)
	}
	if got := a.BdSeq(); got != 1 {
		t.Errorf("BdSeq() = %d, want 1", got)
	}
}

func TestAccountant_BdSeqWraps(t *testing.T) {
	a := New()
	var last uint64
	for i := 0; i < 256; i++ {
		last = a.BumpBdSeq()
	}
	if last != 255 {
		t.Fatalf("256th attempt bdSeq = %d, want 255", last)
	}
	if got := a.BumpBdSeq(); got != 0 {
		t.Errorf("bdSeq after wrap = %d, want 0", got)
	}
}
