package device

import "testing"

func TestDetectReturnsValidChoice(t *testing.T) {
	choice := Detect()
	if choice != Accelerated && choice != CPU {
		t.Errorf("Detect() returned unknown choice: %q", choice)
	}
}

func TestDetectIsStable(t *testing.T) {
	first := Detect()
	for i := 0; i < 3; i++ {
		if got := Detect(); got != first {
			t.Errorf("Detect() changed between calls: %s then %s", first, got)
		}
	}
}

func TestChoiceString(t *testing.T) {
	if Accelerated.String() != "accelerated" {
		t.Errorf("unexpected string: %s", Accelerated)
	}
	if CPU.String() != "cpu" {
		t.Errorf("unexpected string: %s", CPU)
	}
}
