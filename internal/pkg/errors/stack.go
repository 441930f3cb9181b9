package errors

import (
	"fmt"
	"runtime"
	"strings"
)

const maxStackDepth = 32

// callers records the program counters of the constructor's caller.
// skip counts frames above callers itself.
func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

func formatStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// StackOf returns the call stack captured when the outermost Failure in
// err's chain was created, or "" when err carries none.
func StackOf(err error) string {
	if f := GetFailure(err); f != nil {
		return formatStack(f.stack)
	}
	return ""
}
