package caption

import "testing"

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want Kind
	}{
		{"lowercase oom", "cuda out of memory", KindOutOfMemory},
		{"uppercase oom", "CUDA error: OUT OF MEMORY", KindOutOfMemory},
		{"mixed case oom", "Out Of Memory while allocating tensor", KindOutOfMemory},
		{"connection refused", "dial tcp 127.0.0.1:11434: connection refused", KindConnectivity},
		{"uppercase connection", "CONNECTION reset by peer", KindConnectivity},
		{"generic", "tensor shape mismatch", KindGeneric},
		{"empty", "", KindGeneric},
		{"oom wins over generic text", "worker died: out of memory", KindOutOfMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.msg); got != tt.want {
				t.Errorf("ClassifyError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindOutOfMemory.String() != "out_of_memory" {
		t.Errorf("unexpected string for KindOutOfMemory: %s", KindOutOfMemory)
	}
	if KindConnectivity.String() != "connectivity" {
		t.Errorf("unexpected string for KindConnectivity: %s", KindConnectivity)
	}
	if KindGeneric.String() != "generic" {
		t.Errorf("unexpected string for KindGeneric: %s", KindGeneric)
	}
}
