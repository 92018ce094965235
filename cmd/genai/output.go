package main

import (
	"encoding/json"
	"fmt"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render writes v as JSON when --json is set, otherwise runs text.
func (a *app) render(v any, text func() error) error {
	if a.jsonOutput {
		return a.printJSON(v)
	}
	return text()
}

func (a *app) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(a.out, format, args...)
	return err
}
