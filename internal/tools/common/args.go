package common

import (
	"math"

	"github.com/teemow/inboxbrief/internal/toolerr"
)

// OptionalString returns the named string argument or def when absent.
func OptionalString(args map[string]any, name, def string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", toolerr.Newf(toolerr.KindInvalidArgument, "%s must be a string", name)
	}
	return s, nil
}

// OptionalInt returns the named integer argument or def when absent.
// JSON numbers arrive as float64 and must be whole.
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		return v, nil
	case int64:
		f = float64(v)
	default:
		return 0, toolerr.Newf(toolerr.KindInvalidArgument, "%s must be a number", name)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, toolerr.Newf(toolerr.KindInvalidArgument, "%s must be an integer, got %v", name, f)
	}
	return int(f), nil
}
