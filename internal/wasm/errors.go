package wasm

import (
	"fmt"
)

// CompilationError occurs when engine module compilation fails
type CompilationError struct {
	ModuleName string
	Err        error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile Wasm module '%s': %v", e.ModuleName, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// InstantiationError occurs when module instantiation fails
type InstantiationError struct {
	ModuleName string
	InstanceID string
	Err        error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed to instantiate module '%s' (instance: %s): %v",
		e.ModuleName, e.InstanceID, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// ModuleNotFoundError occurs when a module is not in cache
type ModuleNotFoundError struct {
	ModuleName string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module '%s' not found in cache", e.ModuleName)
}

// ExportNotFoundError occurs when the engine module is missing a required export
type ExportNotFoundError struct {
	ModuleName string
	ExportName string
}

func (e *ExportNotFoundError) Error() string {
	return fmt.Sprintf("export '%s' not found in module '%s'",
		e.ExportName, e.ModuleName)
}

// MemoryAccessError occurs when guest memory operations fail
type MemoryAccessError struct {
	Operation string
	Address   uint32
	Length    uint32
	Err       error
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access failed (op=%s, addr=%d, len=%d): %v",
		e.Operation, e.Address, e.Length, e.Err)
}

func (e *MemoryAccessError) Unwrap() error {
	return e.Err
}

// AllocationError occurs when the guest allocator cannot satisfy a request
type AllocationError struct {
	Size uint32
	Err  error
}

func (e *AllocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("guest allocation of %d bytes failed: %v", e.Size, e.Err)
	}
	return fmt.Sprintf("guest allocation of %d bytes returned a null pointer", e.Size)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// NullOutputError occurs when the engine signals allocation failure by
// returning a null output pointer
type NullOutputError struct{}

func (e *NullOutputError) Error() string {
	return "engine returned a null output pointer"
}

// InvalidStringError occurs when a value cannot cross the boundary as a
// NUL-terminated C string
type InvalidStringError struct {
	Name  string
	Index int
}

func (e *InvalidStringError) Error() string {
	return fmt.Sprintf("%s contains an embedded NUL byte at index %d", e.Name, e.Index)
}
