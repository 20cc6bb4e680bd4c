package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// printer writes command results in the configured format.
type printer struct {
	w      io.Writer
	format string
}

func (a *app) printer(w io.Writer) printer {
	return printer{w: w, format: a.settings.Output}
}

func (p printer) print(v any) error {
	switch p.format {
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", p.format)
	}
}
