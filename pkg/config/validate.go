package config

import (
	"bytes"
	_ "embed"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://cdensity.dev/schema/config.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// ValidationError lists the problems of a config file.
type ValidationError struct {
	Path   string
	Causes []string
}

func (e *ValidationError) Error() string {
	if len(e.Causes) == 1 {
		return fmt.Sprintf("invalid config %s: %s", e.Path, e.Causes[0])
	}
	return fmt.Sprintf("invalid config %s: %d problems, first: %s", e.Path, len(e.Causes), e.Causes[0])
}

// Validate checks the file at path against the config schema: unknown keys,
// unknown threshold or category names and wrongly typed values are errors.
func Validate(path string) error {
	k, err := read(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	// normalize parser-specific value types through JSON
	raw, err := stdjson.Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	return &ValidationError{Path: path, Causes: causes(verr)}
}

var printer = message.NewPrinter(language.English)

// causes flattens the leaves of a validation error tree.
func causes(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		return []string{fmt.Sprintf("/%s: %s",
			strings.Join(err.InstanceLocation, "/"), err.ErrorKind.LocalizedString(printer))}
	}
	var out []string
	for _, c := range err.Causes {
		out = append(out, causes(c)...)
	}
	return out
}
