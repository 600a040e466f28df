package batch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/inboxbrief/internal/toolerr"
)

// Per-item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for one item of a batch. Kind is the toolerr kind
// of a failed item.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult is the JSON document returned by batch tool calls.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray accepts a single string, an array of strings, or a
// string holding a JSON array of strings. A string that merely starts with
// "[" but does not decode is taken as a single item. Failures are invalid
// arguments.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	var items []string

	switch v := param.(type) {
	case nil:
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "%s is required", paramName)
	case string:
		items = []string{v}
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			var arr []string
			if json.Unmarshal([]byte(v), &arr) == nil {
				items = arr
			}
		}
	case []string:
		items = v
	case []any:
		items = make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, toolerr.Newf(toolerr.KindInvalidArgument, "%s[%d] must be a string", paramName, i)
			}
			items[i] = s
		}
	default:
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "%s must be a string or array of strings", paramName)
	}

	if len(items) == 0 || (len(items) == 1 && items[0] == "") {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "%s cannot be empty", paramName)
	}
	for i, item := range items {
		if item == "" {
			return nil, toolerr.Newf(toolerr.KindInvalidArgument, "%s[%d] cannot be empty", paramName, i)
		}
	}
	return items, nil
}

// ProcessIndexed runs fn over items in order. Items have no identity of
// their own, so results are named "<prefix>-1", "<prefix>-2", ... A failing
// item never stops the batch.
func ProcessIndexed(prefix string, items []string, fn func(item string) (string, error)) []Result {
	results := make([]Result, len(items))
	for i, item := range items {
		id := fmt.Sprintf("%s-%d", prefix, i+1)
		if out, err := fn(item); err != nil {
			results[i] = NewErrorResult(id, err)
		} else {
			results[i] = NewSuccessResult(id, out)
		}
	}
	return results
}

// Summarize counts successes and failures. Results is never nil so the
// JSON form always carries an array.
func Summarize(results []Result) BatchResult {
	br := BatchResult{Total: len(results), Results: results}
	if br.Results == nil {
		br.Results = []Result{}
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		}
	}
	br.Failed = br.Total - br.Successful
	return br
}

func NewSuccessResult(id, result string) Result {
	return Result{ID: id, Status: StatusSuccess, Result: result}
}

// NewErrorResult records err's kind and its message without the kind prefix.
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Kind:   string(toolerr.KindOf(err)),
		Error:  toolerr.Message(err),
	}
}
