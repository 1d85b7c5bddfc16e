package wasm

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

// fakeLinearMemory is a flat byte-slice guest memory.
type fakeLinearMemory struct {
	data []byte
}

func newFakeLinearMemory(size uint32) *fakeLinearMemory {
	return &fakeLinearMemory{data: make([]byte, size)}
}

func (f *fakeLinearMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	if uint64(offset)+uint64(byteCount) > uint64(len(f.data)) {
		return nil, false
	}
	out := make([]byte, byteCount)
	copy(out, f.data[offset:offset+byteCount])
	return out, true
}

func (f *fakeLinearMemory) Write(offset uint32, v []byte) bool {
	if uint64(offset)+uint64(len(v)) > uint64(len(f.data)) {
		return false
	}
	copy(f.data[offset:], v)
	return true
}

func (f *fakeLinearMemory) Size() uint32 {
	return uint32(len(f.data))
}

// funcGuest is a GuestFunc backed by a Go function, counting invocations.
type funcGuest struct {
	calls int
	fn    func(ctx context.Context, params ...uint64) ([]uint64, error)
}

func (f *funcGuest) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	f.calls++
	return f.fn(ctx, params...)
}

// fakeBoundary wires an Instance to a fake guest: bump allocator with
// alloc/free counters and a scriptable pikchr function.
type fakeBoundary struct {
	mem    *fakeLinearMemory
	malloc *funcGuest
	free   *funcGuest
	pikchr *funcGuest

	allocs int
	frees  int

	// Allocation index at which malloc starts returning null (0 = never).
	failAllocAt int

	next uint32
}

func newFakeBoundary(t *testing.T) (*Instance, *fakeBoundary) {
	t.Helper()

	b := &fakeBoundary{
		mem:  newFakeLinearMemory(64 * 1024),
		next: 8, // keep null distinguishable
	}

	b.malloc = &funcGuest{fn: func(ctx context.Context, params ...uint64) ([]uint64, error) {
		if b.failAllocAt > 0 && b.allocs+1 >= b.failAllocAt {
			return []uint64{0}, nil
		}
		ptr := b.next
		b.next += uint32(params[0]) + 7
		b.next &^= 7
		b.allocs++
		return []uint64{uint64(ptr)}, nil
	}}

	b.free = &funcGuest{fn: func(ctx context.Context, params ...uint64) ([]uint64, error) {
		if params[0] != 0 {
			b.frees++
		}
		return nil, nil
	}}

	// Default pikchr: null return.
	b.pikchr = &funcGuest{fn: func(ctx context.Context, params ...uint64) ([]uint64, error) {
		return []uint64{0}, nil
	}}

	inst := &Instance{
		ID:       "fake",
		Name:     "fake-engine",
		pikchrFn: b.pikchr,
		logger:   zaptest.NewLogger(t),
	}
	inst.mem = NewMemory(b.mem, b.malloc, b.free)

	return inst, b
}

// renderTo scripts the fake pikchr to behave like the real engine: allocate
// an output buffer through the guest allocator, write out as a C string, set
// the width/height out-parameters, and return the buffer pointer.
func (b *fakeBoundary) renderTo(out string, width, height int32) {
	b.pikchr.fn = func(ctx context.Context, params ...uint64) ([]uint64, error) {
		res, err := b.malloc.Call(ctx, uint64(len(out)+1))
		if err != nil {
			return nil, err
		}
		ptr := uint32(res[0])
		if ptr == 0 {
			return []uint64{0}, nil
		}

		buf := make([]byte, len(out)+1)
		copy(buf, out)
		if !b.mem.Write(ptr, buf) {
			return []uint64{0}, nil
		}

		mem := NewMemory(b.mem, b.malloc, b.free)
		if err := mem.WriteInt32(uint32(params[3]), width); err != nil {
			return nil, err
		}
		if err := mem.WriteInt32(uint32(params[4]), height); err != nil {
			return nil, err
		}

		return []uint64{uint64(ptr)}, nil
	}
}
