package cli

import (
	"encoding/json"
	"io"
	"reflect"
)

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// WriteOutput writes v as indented JSON, or as JSON lines when --jsonl is set.
// With --jsonl a slice is written one element per line.
func WriteOutput(out io.Writer, v any) error {
	if !IsJSONLOutput() {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	enc := json.NewEncoder(out)
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return enc.Encode(v)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := enc.Encode(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func structuredOutput() bool {
	return IsJSONOutput() || IsJSONLOutput()
}
