package pikchr

import (
	"fmt"
)

// InvalidInputError occurs when call-time arguments cannot cross the
// boundary: an embedded NUL byte where a C string is required, a flag bit
// outside the engine's documented set, or a negative dimension. It is always
// raised before the engine is invoked.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AllocationFailedError occurs when the engine signals allocation failure,
// either by returning a null output pointer or because its guest allocator
// was exhausted. Recoverable: the instance stays usable.
type AllocationFailedError struct {
	Err error
}

func (e *AllocationFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine allocation failure: %v", e.Err)
	}
	return "engine allocation failure"
}

func (e *AllocationFailedError) Unwrap() error {
	return e.Err
}

// EncodingError occurs when the engine's output is not valid UTF-8. The raw
// bytes are preserved so callers can inspect what came across the boundary.
type EncodingError struct {
	Raw []byte
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("engine output is not valid UTF-8 (%d bytes)", len(e.Raw))
}

// Reason classifies a diagnostic the engine reported for the input source.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonParserStackOverflow
	ReasonOutOfMemory
	ReasonDivisionByZero
	ReasonSyntax
	ReasonArcGeometry
	ReasonUnknownObject
	ReasonUnknownObjectType
	ReasonValueAlreadySet
	ReasonValueAlreadyFixed
	ReasonLineOrientedOnly
	ReasonNoPriorPathPoints
	ReasonHeadingOutOfBounds
	ReasonMissingAt
	ReasonMissingFromTo
	ReasonClosedPolygon
	ReasonStartAlreadyFixed
	ReasonTooFewVertexes
	ReasonPositionFixedByAt
	ReasonTooManyTextTerms
	ReasonMissingText
	ReasonUnknownColor
	ReasonUnknownVariable
	ReasonOrdinalOutOfBounds
	ReasonNoPriorObject
	ReasonNotALine
	ReasonUnknownVertex
	ReasonNegativeSqrt
	ReasonMacroTooManyArgs
	ReasonMacroUnterminated
	ReasonTokenTooLong
	ReasonUnknownToken
	ReasonMacroTooDeep
	ReasonMacroRecursive
)

var reasonText = map[Reason]string{
	ReasonUnknown:             "unknown error",
	ReasonParserStackOverflow: "parser stack overflow",
	ReasonOutOfMemory:         "out of memory",
	ReasonDivisionByZero:      "division by zero",
	ReasonSyntax:              "syntax error",
	ReasonArcGeometry:         "arc geometry error",
	ReasonUnknownObject:       "unknown object",
	ReasonUnknownObjectType:   "unknown object type",
	ReasonValueAlreadySet:     "value already set",
	ReasonValueAlreadyFixed:   "value already fixed by prior constraints",
	ReasonLineOrientedOnly:    "use with line-oriented objects only",
	ReasonNoPriorPathPoints:   "no prior path points",
	ReasonHeadingOutOfBounds:  "headings should be between 0 and 360",
	ReasonMissingAt:           "use `at` to position this object",
	ReasonMissingFromTo:       "use `from` and `to` to position this object",
	ReasonClosedPolygon:       "polygon is closed",
	ReasonStartAlreadyFixed:   "line start position already fixed",
	ReasonTooFewVertexes:      "need at least 3 vertexes in order to close the polygon",
	ReasonPositionFixedByAt:   "location fixed by prior `at`",
	ReasonTooManyTextTerms:    "too many text terms",
	ReasonMissingText:         "no text to fit to",
	ReasonUnknownColor:        "unknown color name",
	ReasonUnknownVariable:     "unknown variable",
	ReasonOrdinalOutOfBounds:  "the maximum ordinal is `1000th`",
	ReasonNoPriorObject:       "no prior objects of the same type",
	ReasonNotALine:            "object is not a line",
	ReasonUnknownVertex:       "unknown vertex",
	ReasonNegativeSqrt:        "negative sqrt",
	ReasonMacroTooManyArgs:    "too many macro arguments - max 9",
	ReasonMacroUnterminated:   "unterminated macro argument list",
	ReasonTokenTooLong:        "token is too long - max length 50000 bytes",
	ReasonUnknownToken:        "unknown token",
	ReasonMacroTooDeep:        "macros nested too deep",
	ReasonMacroRecursive:      "recursive macro definition",
}

func (r Reason) String() string {
	if s, ok := reasonText[r]; ok {
		return s
	}
	return "unknown error"
}

// Error is a diagnostic the engine reported for the input source, extracted
// from its rendered error text. Line and Column locate the offending token
// in the input (1-based; 0 when the engine gave no location). Output holds
// the engine's full diagnostic text.
type Error struct {
	Line   int
	Column int
	Reason Reason
	// Message is the engine's verbatim message, kept for diagnostics the
	// reason table does not know.
	Message string
	Output  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.reasonText())
}

func (e *Error) reasonText() string {
	if e.Reason == ReasonUnknown && e.Message != "" {
		return e.Message
	}
	return e.Reason.String()
}
