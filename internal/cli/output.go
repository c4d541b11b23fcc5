package cli

import (
	"encoding/json"
	"fmt"
	"io"

	apperrors "github.com/gamexpress/storefront/internal/errors"
	"gopkg.in/yaml.v3"
)

// Formatter writes a command result as text, JSON or YAML.
type Formatter struct {
	Format string
	Writer io.Writer
}

// Render writes v in the configured format; text uses the given renderer.
func (f *Formatter) Render(v interface{}, text func(w io.Writer)) error {
	switch f.Format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json output: %w", err)
		}
		_, err = fmt.Fprintln(f.Writer, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml output: %w", err)
		}
		return enc.Close()
	default:
		text(f.Writer)
		return nil
	}
}

// Message prints a plain confirmation. Structured formats get {"message": ...}.
func (f *Formatter) Message(msg string) error {
	return f.Render(map[string]string{"message": msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

// errorMessage is the user displayable text of err.
func errorMessage(err error) string {
	return apperrors.Message(err, err.Error())
}

// ErrorMessage is what the binary prints for a failed command.
func ErrorMessage(err error) string {
	if fields := apperrors.Fields(err); len(fields) > 0 {
		return "invalid input: " + fields.Error()
	}
	return errorMessage(err)
}
