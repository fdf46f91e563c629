package testfixtures

import "testing"

func TestSequenceIsPredictable(t *testing.T) {
	t.Parallel()

	seq := NewSequence("res")
	if got := seq.Last(); got != "" {
		t.Fatalf("expected no identifier yet, got %q", got)
	}

	first := seq.Next()
	second := seq.NextFunc()()
	if first != "res-0001" || second != "res-0002" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if seq.Last() != second {
		t.Fatalf("expected Last to return %q, got %q", second, seq.Last())
	}
	if issued := seq.Issued(); len(issued) != 2 || issued[0] != first {
		t.Fatalf("unexpected issued list %v", issued)
	}
}

func TestSequenceDefaultPrefix(t *testing.T) {
	t.Parallel()

	if got := NewSequence("").Next(); got != "id-0001" {
		t.Fatalf("expected id-0001, got %q", got)
	}
}
