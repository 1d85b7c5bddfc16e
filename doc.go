// Package pikchr renders pikchr diagram source to SVG using the upstream C
// implementation, vendored as a WASI build and executed in-process with
// wazero. No cgo is involved: the engine runs inside an isolated linear
// memory, and this package owns the boundary between that memory model and
// Go's.
//
// Basic usage:
//
//	r, err := pikchr.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close(ctx)
//
//	svg, err := r.RenderString(ctx, `box "pikchr"`)
//
// Render options control the engine's documented flags and the SVG class
// attribute:
//
//	res, err := r.Render(ctx, source,
//		pikchr.WithDarkMode(),
//		pikchr.WithClasses("diagram", "centered"),
//	)
//
// Diagnostics in the source come back as a *Error locating the offending
// token; failures of the boundary itself come back as InvalidInputError,
// AllocationFailedError or EncodingError. The engine is stateless per call:
// identical input renders to identical output.
package pikchr
