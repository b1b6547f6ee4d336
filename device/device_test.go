package device_test

import (
	"testing"

	"github.com/dtile-project/dtile/device"
)

func TestContextInitializesStreamsAndHandle(t *testing.T) {
	ctx := device.NewContext(0, device.CPUBackend{})
	if ctx.Compute == nil || ctx.Comm == nil {
		t.Fatalf("expected non-nil compute/comm streams")
	}
	if ctx.Handle == nil || ctx.Handle.Name() == "" {
		t.Fatalf("expected a named handle")
	}
	ctx.Destroy()
}

func TestBatchArraysCapacity(t *testing.T) {
	ctx := device.NewContext(0, device.CPUBackend{})
	defer ctx.Destroy()
	if err := ctx.InitBatchArrays(8); err != nil {
		t.Fatalf("InitBatchArrays: %v", err)
	}
	if got := ctx.Capacity(); got != 8 {
		t.Fatalf("Capacity = %d, want 8", got)
	}
	if err := ctx.InitBatchArrays(-1); err == nil {
		t.Fatalf("expected error for negative capacity")
	}
}

func TestStreamRunsEnqueuedWorkInOrder(t *testing.T) {
	ctx := device.NewContext(0, device.CPUBackend{})
	defer ctx.Destroy()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		ctx.Compute.Enqueue(func() error {
			order = append(order, i)
			return nil
		})
	}
	if err := ctx.Compute.Synchronize(); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestSetContextBoundsChecked(t *testing.T) {
	set := device.NewSet(2, device.CPUBackend{})
	defer set.Destroy()
	if _, err := set.Context(0); err != nil {
		t.Fatalf("Context(0): %v", err)
	}
	if _, err := set.Context(2); err == nil {
		t.Fatalf("expected error for out-of-range device id")
	}
}
