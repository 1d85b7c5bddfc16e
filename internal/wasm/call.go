package wasm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RawResult is the output of one engine invocation, copied out of guest
// memory. Width and Height are the values pikchr wrote to its out-parameters;
// a negative Width means Data holds diagnostic text instead of markup.
type RawResult struct {
	Data   []byte
	Width  int32
	Height int32
}

// Call performs one render through the foreign boundary.
//
// The sequence mirrors a C caller of pikchr(): write the source and class as
// NUL-terminated strings into guest memory, seed the width/height
// out-parameters, invoke the export, copy the returned buffer out, and free
// every guest allocation including the engine's output buffer. Release is
// unconditional: no pointer survives this call on any path.
//
// Inputs with embedded NUL bytes are rejected before any guest work, since
// the engine would silently truncate them at the first NUL.
func (i *Instance) Call(ctx context.Context, source, class string, flags uint32, width, height int32) (*RawResult, error) {
	if idx := strings.IndexByte(source, 0); idx >= 0 {
		return nil, &InvalidStringError{Name: "source", Index: idx}
	}
	if idx := strings.IndexByte(class, 0); idx >= 0 {
		return nil, &InvalidStringError{Name: "class", Index: idx}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	// Every guest pointer acquired below lands here and is freed on exit,
	// success or failure.
	var acquired []uint32
	defer func() {
		for _, ptr := range acquired {
			if err := i.mem.Free(ctx, ptr); err != nil {
				i.logger.Warn("Failed to free guest allocation",
					zap.Uint32("ptr", ptr),
					zap.Error(err),
				)
			}
		}
	}()

	srcPtr, err := i.mem.WriteCString(ctx, "source", source)
	if err != nil {
		return nil, err
	}
	acquired = append(acquired, srcPtr)

	classPtr, err := i.mem.WriteCString(ctx, "class", class)
	if err != nil {
		return nil, err
	}
	acquired = append(acquired, classPtr)

	widthPtr, err := i.mem.AllocInt32(ctx, width)
	if err != nil {
		return nil, err
	}
	acquired = append(acquired, widthPtr)

	heightPtr, err := i.mem.AllocInt32(ctx, height)
	if err != nil {
		return nil, err
	}
	acquired = append(acquired, heightPtr)

	// char *pikchr(const char *zText, const char *zClass, unsigned int mFlags,
	//              int *pnWidth, int *pnHeight)
	stack, err := i.pikchrFn.Call(ctx,
		uint64(srcPtr), uint64(classPtr), uint64(flags),
		uint64(widthPtr), uint64(heightPtr))
	if err != nil {
		return nil, fmt.Errorf("engine call failed: %w", err)
	}

	outPtr := uint32(stack[0])
	if outPtr == 0 {
		return nil, &NullOutputError{}
	}
	acquired = append(acquired, outPtr)

	data, err := i.mem.ReadCString(outPtr)
	if err != nil {
		return nil, err
	}

	outWidth, err := i.mem.ReadInt32(widthPtr)
	if err != nil {
		return nil, err
	}
	outHeight, err := i.mem.ReadInt32(heightPtr)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("Render call completed",
		zap.Int("output_bytes", len(data)),
		zap.Int32("width", outWidth),
		zap.Int32("height", outHeight),
	)

	return &RawResult{Data: data, Width: outWidth, Height: outHeight}, nil
}
