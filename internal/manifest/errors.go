package manifest

import "fmt"

// ParseError reports a malformed manifest. It is always fatal to a run.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line <= 0 {
		return "manifest: " + e.Msg
	}
	return fmt.Sprintf("manifest line %d: %s", e.Line, e.Msg)
}

func parseErrorf(l Line, format string, args ...any) *ParseError {
	return &ParseError{Line: l.Num, Msg: fmt.Sprintf(format, args...)}
}
