// Package device decides whether accelerated hardware is available for
// model inference. The choice is made once at process start; the model
// loader may downgrade it to CPU after a failed load, and that downgrade
// is permanent for the process lifetime.
package device

import (
	"log/slog"
	"os"
	"os/exec"
	"runtime"
)

// Choice is the selected execution device.
type Choice string

const (
	// Accelerated means GPU-class hardware was found on the host.
	Accelerated Choice = "accelerated"
	// CPU is the universal fallback.
	CPU Choice = "cpu"
)

func (c Choice) String() string {
	return string(c)
}

// Detect inspects the host once and picks the best available device.
// It never fails: absence of accelerated hardware simply yields CPU.
func Detect() Choice {
	if hasNVIDIA() || isAppleSilicon() {
		slog.Info("accelerated hardware available, using it for faster inference")
		return Accelerated
	}
	slog.Info("no accelerated hardware found, using CPU")
	return CPU
}

func hasNVIDIA() bool {
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	return false
}

func isAppleSilicon() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}
