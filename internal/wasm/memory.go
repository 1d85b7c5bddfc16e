package wasm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
)

// readChunk is the step size for scanning NUL-terminated guest strings.
const readChunk = 4096

// GuestFunc is a callable guest export. Satisfied by wazero's api.Function;
// narrow so tests can substitute fault-injecting fakes.
type GuestFunc interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// LinearMemory is the slice of api.Memory the boundary needs.
type LinearMemory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	Size() uint32
}

// Memory provides safe access to the engine's linear memory.
//
// The engine has its own isolated memory space, separate from Go's. Every
// value crossing the boundary is copied: Go never holds a pointer into guest
// memory and the guest never sees a Go pointer. Allocation inside the guest
// goes through its exported malloc/free, so the engine's own libc heap stays
// consistent with what the engine allocates internally.
//
// All reads are bounds-checked against the guest memory size; a failed read
// or write surfaces as MemoryAccessError, never a partial result.
type Memory struct {
	mem    LinearMemory
	malloc GuestFunc
	free   GuestFunc
}

// NewMemory creates a memory helper bound to the guest's allocator exports.
func NewMemory(mem LinearMemory, malloc, free GuestFunc) *Memory {
	return &Memory{mem: mem, malloc: malloc, free: free}
}

// Alloc allocates size bytes inside the guest.
func (m *Memory) Alloc(ctx context.Context, size uint32) (uint32, error) {
	res, err := m.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, &AllocationError{Size: size, Err: err}
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, &AllocationError{Size: size}
	}
	return ptr, nil
}

// Free releases a guest allocation. Freeing a null pointer is a no-op, same
// as C free.
func (m *Memory) Free(ctx context.Context, ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	if _, err := m.free.Call(ctx, uint64(ptr)); err != nil {
		return &MemoryAccessError{Operation: "free", Address: ptr, Err: err}
	}
	return nil
}

// WriteCString allocates and writes s as a NUL-terminated C string in guest
// memory. The value must not contain an embedded NUL byte. Returns the guest
// pointer; the caller owns it and must Free it.
func (m *Memory) WriteCString(ctx context.Context, name, s string) (uint32, error) {
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		return 0, &InvalidStringError{Name: name, Index: i}
	}

	buf := make([]byte, len(s)+1)
	copy(buf, s)

	ptr, err := m.Alloc(ctx, uint32(len(buf)))
	if err != nil {
		return 0, err
	}
	if !m.mem.Write(ptr, buf) {
		// The write failed after a successful malloc; give the allocation
		// back before reporting.
		_ = m.Free(ctx, ptr)
		return 0, &MemoryAccessError{
			Operation: "write",
			Address:   ptr,
			Length:    uint32(len(buf)),
			Err:       errors.New("write out of range of guest memory"),
		}
	}
	return ptr, nil
}

// ReadCString copies a NUL-terminated string out of guest memory, scanning in
// chunks so arbitrarily large engine output is handled without knowing its
// length up front. The terminator is not included in the result.
func (m *Memory) ReadCString(ptr uint32) ([]byte, error) {
	size := m.mem.Size()
	if ptr >= size {
		return nil, &MemoryAccessError{
			Operation: "read",
			Address:   ptr,
			Err:       errors.New("pointer out of range of guest memory"),
		}
	}

	var out []byte
	for off := ptr; off < size; {
		n := uint32(readChunk)
		if remaining := size - off; remaining < n {
			n = remaining
		}
		buf, ok := m.mem.Read(off, n)
		if !ok {
			return nil, &MemoryAccessError{Operation: "read", Address: off, Length: n,
				Err: errors.New("read out of range of guest memory")}
		}
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			out = append(out, buf[:i]...)
			return out, nil
		}
		out = append(out, buf...)
		off += n
	}

	return nil, &MemoryAccessError{
		Operation: "read",
		Address:   ptr,
		Length:    size - ptr,
		Err:       errors.New("unterminated string in guest memory"),
	}
}

// AllocInt32 allocates a 4-byte out-parameter seeded with v.
func (m *Memory) AllocInt32(ctx context.Context, v int32) (uint32, error) {
	ptr, err := m.Alloc(ctx, 4)
	if err != nil {
		return 0, err
	}
	if err := m.WriteInt32(ptr, v); err != nil {
		_ = m.Free(ctx, ptr)
		return 0, err
	}
	return ptr, nil
}

// ReadInt32 reads a little-endian int32 from guest memory.
func (m *Memory) ReadInt32(ptr uint32) (int32, error) {
	buf, ok := m.mem.Read(ptr, 4)
	if !ok {
		return 0, &MemoryAccessError{Operation: "read", Address: ptr, Length: 4,
			Err: errors.New("read out of range of guest memory")}
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

// WriteInt32 writes a little-endian int32 to guest memory.
func (m *Memory) WriteInt32(ptr uint32, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	if !m.mem.Write(ptr, buf[:]) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: 4,
			Err: errors.New("write out of range of guest memory")}
	}
	return nil
}
