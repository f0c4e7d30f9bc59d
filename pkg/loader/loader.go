// Package loader owns the lazy, process-wide inference handle. The first
// caller pays the load cost; everyone after that gets the cached handle.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/menta2k/image-captioner/pkg/client"
	"github.com/menta2k/image-captioner/pkg/device"
)

// DefaultModel is the captioning model loaded unless the caller picks
// another one.
const DefaultModel = "llava:7b"

// Factory constructs a backend client bound to the given device.
type Factory func(dev device.Choice) (client.CaptionClient, error)

// Handle is a loaded, ready-to-use captioning model bound to a device.
type Handle struct {
	Client client.CaptionClient
	Model  string
	Device device.Choice
}

// LoadError wraps the underlying cause of a failed model load.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader lazily builds the inference handle exactly once per process.
// The mutex guards the check-and-create sequence so concurrent first
// callers wait for a single construction instead of racing their own.
type Loader struct {
	model   string
	factory Factory

	mu     sync.Mutex
	device device.Choice
	handle *Handle
}

// New creates a Loader for the given model, starting device and backend factory.
func New(model string, dev device.Choice, factory Factory) *Loader {
	return &Loader{
		model:   model,
		factory: factory,
		device:  dev,
	}
}

// Device returns the current device choice. Once a CPU fallback has
// happened it never reverts to accelerated.
func (l *Loader) Device() device.Choice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.device
}

// EnsureLoaded returns the cached handle, constructing it on first use.
//
// If construction fails while the device is accelerated, the loader switches
// to CPU permanently and retries exactly once. A failure on CPU returns a
// LoadError; the attempt is not cached, so a later caller may try again.
func (l *Loader) EnsureLoaded(ctx context.Context) (*Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != nil {
		return l.handle, nil
	}

	handle, err := l.load(ctx, l.device)
	if err != nil && l.device == device.Accelerated {
		slog.Error("model load failed on accelerated device, retrying on CPU", "error", err)
		l.device = device.CPU
		handle, err = l.load(ctx, l.device)
	}
	if err != nil {
		slog.Error("model load failed", "model", l.model, "device", l.device, "error", err)
		return nil, &LoadError{Err: err}
	}

	l.handle = handle
	slog.Info("model loaded", "model", l.model, "device", l.device)
	return handle, nil
}

func (l *Loader) load(ctx context.Context, dev device.Choice) (*Handle, error) {
	slog.Info("loading captioning model, this may take a few moments on first run",
		"model", l.model, "device", dev)

	backend, err := l.factory(dev)
	if err != nil {
		return nil, err
	}
	if err := backend.Load(ctx, l.model); err != nil {
		return nil, err
	}

	return &Handle{Client: backend, Model: l.model, Device: dev}, nil
}
