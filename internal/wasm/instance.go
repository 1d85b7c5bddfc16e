package wasm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// Exports the engine module must provide. pikchr is the render entry point
// from pikchr.h; malloc/free are the wasi-libc allocator, which the engine
// also uses internally for the buffer it hands back.
const (
	exportPikchr = "pikchr"
	exportMalloc = "malloc"
	exportFree   = "free"
)

// requiredExports, in the order they are resolved.
var requiredExports = []string{exportPikchr, exportMalloc, exportFree}

// InstanceManager creates and manages engine instances.
type InstanceManager struct {
	runtime *Runtime
	logger  *zap.Logger
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, one is generated).
	InstanceID string
}

// Instance is one instantiated engine module.
//
// An Instance is safe for concurrent use, but calls are serialized: a wazero
// module instance shares one linear memory and one libc heap across all its
// exports, so only one render may be in flight per instance. Use several
// instances for parallelism.
type Instance struct {
	// wazero module instance.
	module api.Module

	// Instance metadata.
	ID        string
	Name      string
	CreatedAt int64

	// Resolved exports and the memory helper bound to them.
	pikchrFn GuestFunc
	mem      *Memory

	// Serializes boundary calls.
	mu sync.Mutex

	logger *zap.Logger
}

// Instantiate creates a new instance from a compiled module and resolves the
// exports the boundary needs.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
	}

	m.logger.Info("Instantiating engine module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	// The engine is a WASI reactor build: no _start, and _initialize must run
	// before any export is called so libc can set up its heap.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions()

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	if initFn := module.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = module.Close(ctx)
			return nil, &InstantiationError{
				ModuleName: config.ModuleName,
				InstanceID: instanceID,
				Err:        fmt.Errorf("_initialize failed: %w", err),
			}
		}
	}

	exports := make(map[string]api.Function, len(requiredExports))
	for _, name := range requiredExports {
		fn := module.ExportedFunction(name)
		if fn == nil {
			_ = module.Close(ctx)
			return nil, &ExportNotFoundError{ModuleName: config.ModuleName, ExportName: name}
		}
		exports[name] = fn
	}

	guestMem := module.Memory()
	if guestMem == nil {
		_ = module.Close(ctx)
		return nil, &ExportNotFoundError{ModuleName: config.ModuleName, ExportName: "memory"}
	}

	instance := &Instance{
		module:    module,
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now().Unix(),
		pikchrFn:  exports[exportPikchr],
		mem:       NewMemory(guestMem, exports[exportMalloc], exports[exportFree]),
		logger:    m.logger.With(zap.String("instance_id", instanceID)),
	}

	// Track for cleanup on runtime shutdown.
	m.runtime.StoreInstance(instanceID, module)

	m.logger.Info("Engine module instantiated",
		zap.String("instance_id", instanceID),
		zap.Uint32("memory_bytes", guestMem.Size()),
	)

	return instance, nil
}

// Close closes the instance and releases its guest memory.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

var instanceCounter atomic.Uint64

// generateInstanceID generates a unique instance ID. wazero requires
// distinct module names within one runtime, so a bare timestamp is not
// enough when a pool instantiates back to back.
func generateInstanceID() string {
	return fmt.Sprintf("inst-%d-%d", time.Now().UnixNano(), instanceCounter.Add(1))
}
