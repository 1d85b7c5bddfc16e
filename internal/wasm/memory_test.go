package wasm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestMemory(t *testing.T) (*Memory, *fakeBoundary) {
	t.Helper()
	_, b := newFakeBoundary(t)
	return NewMemory(b.mem, b.malloc, b.free), b
}

func TestWriteReadCString(t *testing.T) {
	mem, _ := newTestMemory(t)
	ctx := context.Background()

	ptr, err := mem.WriteCString(ctx, "source", `box "pikchr"`)
	if err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}
	if ptr == 0 {
		t.Fatal("WriteCString returned null pointer")
	}

	got, err := mem.ReadCString(ptr)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if string(got) != `box "pikchr"` {
		t.Errorf("Round trip = %q", got)
	}
}

func TestWriteCStringEmpty(t *testing.T) {
	mem, b := newTestMemory(t)
	ctx := context.Background()

	ptr, err := mem.WriteCString(ctx, "class", "")
	if err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}

	got, err := mem.ReadCString(ptr)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Round trip = %q, want empty", got)
	}

	// The terminator still costs one byte.
	if b.allocs != 1 {
		t.Errorf("Allocations = %d, want 1", b.allocs)
	}
}

func TestWriteCStringRejectsEmbeddedNul(t *testing.T) {
	mem, b := newTestMemory(t)

	_, err := mem.WriteCString(context.Background(), "source", "a\x00b")

	var strErr *InvalidStringError
	if !errors.As(err, &strErr) {
		t.Fatalf("Error = %v, want InvalidStringError", err)
	}
	if b.malloc.calls != 0 {
		t.Error("Allocator invoked for invalid string")
	}
}

func TestReadCStringSpansChunks(t *testing.T) {
	mem, _ := newTestMemory(t)
	ctx := context.Background()

	// Longer than one read chunk to force the scan loop to continue.
	long := strings.Repeat("M0,0L10,10 ", readChunk/4)
	ptr, err := mem.WriteCString(ctx, "source", long)
	if err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}

	got, err := mem.ReadCString(ptr)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if !bytes.Equal(got, []byte(long)) {
		t.Errorf("Round trip mismatch: got %d bytes, want %d", len(got), len(long))
	}
}

func TestReadCStringUnterminated(t *testing.T) {
	_, b := newFakeBoundary(t)
	// Fill all of guest memory with non-NUL bytes.
	for i := range b.mem.data {
		b.mem.data[i] = 'x'
	}
	mem := NewMemory(b.mem, b.malloc, b.free)

	_, err := mem.ReadCString(16)

	var memErr *MemoryAccessError
	if !errors.As(err, &memErr) {
		t.Fatalf("Error = %v, want MemoryAccessError", err)
	}
}

func TestReadCStringOutOfRange(t *testing.T) {
	mem, b := newTestMemory(t)

	_, err := mem.ReadCString(b.mem.Size() + 1)

	var memErr *MemoryAccessError
	if !errors.As(err, &memErr) {
		t.Fatalf("Error = %v, want MemoryAccessError", err)
	}
}

func TestAllocFailure(t *testing.T) {
	mem, b := newTestMemory(t)
	b.failAllocAt = 1

	_, err := mem.Alloc(context.Background(), 64)

	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("Error = %v, want AllocationError", err)
	}
	if allocErr.Size != 64 {
		t.Errorf("AllocationError.Size = %d, want 64", allocErr.Size)
	}
}

func TestFreeNullIsNoop(t *testing.T) {
	mem, b := newTestMemory(t)

	if err := mem.Free(context.Background(), 0); err != nil {
		t.Fatalf("Free(0) failed: %v", err)
	}
	if b.frees != 0 {
		t.Errorf("Frees = %d, want 0", b.frees)
	}
}

func TestInt32OutParams(t *testing.T) {
	mem, _ := newTestMemory(t)
	ctx := context.Background()

	ptr, err := mem.AllocInt32(ctx, -7)
	if err != nil {
		t.Fatalf("AllocInt32 failed: %v", err)
	}

	v, err := mem.ReadInt32(ptr)
	if err != nil {
		t.Fatalf("ReadInt32 failed: %v", err)
	}
	if v != -7 {
		t.Errorf("ReadInt32 = %d, want -7", v)
	}

	if err := mem.WriteInt32(ptr, 1<<20); err != nil {
		t.Fatalf("WriteInt32 failed: %v", err)
	}
	v, err = mem.ReadInt32(ptr)
	if err != nil {
		t.Fatalf("ReadInt32 failed: %v", err)
	}
	if v != 1<<20 {
		t.Errorf("ReadInt32 = %d, want %d", v, 1<<20)
	}
}
