package pikchr

import (
	"strings"
)

// linePadding is the width of the "/*  NNN */  " prefix the engine puts in
// front of each echoed source line in plaintext error output.
const linePadding = 12

// engineMessages maps the engine's verbatim error strings to reasons.
var engineMessages = map[string]Reason{
	"division by zero":                                       ReasonDivisionByZero,
	"syntax error":                                           ReasonSyntax,
	"arc geometry error":                                     ReasonArcGeometry,
	"unknown object type":                                    ReasonUnknownObjectType,
	"no such object":                                         ReasonUnknownObject,
	"value is already set":                                   ReasonValueAlreadySet,
	"value already fixed by prior constraints":               ReasonValueAlreadyFixed,
	"use with line-oriented objects only":                    ReasonLineOrientedOnly,
	"no prior path points":                                   ReasonNoPriorPathPoints,
	"too many path elements":                                 ReasonNoPriorPathPoints,
	"headings should be between 0 and 360":                   ReasonHeadingOutOfBounds,
	`use "at" to position this object`:                       ReasonMissingAt,
	`use "from" and "to" to position this object`:            ReasonMissingFromTo,
	"polygon is closed":                                      ReasonClosedPolygon,
	"need at least 3 vertexes in order to close the polygon": ReasonTooFewVertexes,
	"line start location already fixed":                      ReasonStartAlreadyFixed,
	`location fixed by prior "at"`:                           ReasonPositionFixedByAt,
	"too many text terms":                                    ReasonTooManyTextTerms,
	"no text to fit to":                                      ReasonMissingText,
	"not a known color name":                                 ReasonUnknownColor,
	"no such variable":                                       ReasonUnknownVariable,
	"value too big - max '1000th'":                           ReasonOrdinalOutOfBounds,
	"no prior objects of the same type":                      ReasonNoPriorObject,
	"object is not a line":                                   ReasonNotALine,
	"no such vertex":                                         ReasonUnknownVertex,
	"sqrt of negative value":                                 ReasonNegativeSqrt,
	"too many macro arguments - max 9":                       ReasonMacroTooManyArgs,
	"unterminated macro argument list":                       ReasonMacroUnterminated,
	"token is too long - max length 50000 bytes":             ReasonTokenTooLong,
	"unrecognized token":                                     ReasonUnknownToken,
	"macros nested too deep":                                 ReasonMacroTooDeep,
	"recursive macro definition":                             ReasonMacroRecursive,
}

// ParseDiagnostic extracts a structured Error from the engine's plaintext
// error output. The format echoes each source line prefixed with
// "/*  NNN */", marks the offending token with a caret line, and ends with
// an "ERROR: <message>" line:
//
//	/*    1 */  circ "1"
//	                   ^
//	ERROR: syntax error
//
// Stack-overflow and out-of-memory reports carry no location and are
// matched directly.
func ParseDiagnostic(output string) *Error {
	if strings.Contains(output, "parser stack overflow") {
		return &Error{Reason: ReasonParserStackOverflow, Output: output}
	}
	if strings.Contains(output, "Out of memory") {
		return &Error{Reason: ReasonOutOfMemory, Output: output}
	}

	err := &Error{Reason: ReasonUnknown, Output: output}
	message := ""

	for _, line := range strings.Split(output, "\n") {
		// Echoed source lines are counted to find the failing line.
		if strings.HasPrefix(line, "/*") {
			err.Line++
		}

		// Caret lines always end with a caret; runs of carets point at a
		// token, and the rightmost one fixes the column.
		if strings.HasSuffix(line, "^") {
			err.Column = len(line) + 1 - linePadding
		}

		if strings.HasPrefix(line, "ERROR:") {
			if _, msg, ok := strings.Cut(line, " "); ok {
				message = msg
			}
		}
	}

	if reason, ok := engineMessages[message]; ok {
		err.Reason = reason
	} else {
		err.Message = message
	}

	return err
}
