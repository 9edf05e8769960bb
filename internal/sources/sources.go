// Package sources reads batches from files or URLs and converts the shapes
// published by upstream sources into native batches.
package sources

import (
	"bytes"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Format names a batch document shape.
type Format string

// Supported formats.
const (
	FormatAuto     Format = "auto"
	FormatNative   Format = "native"
	FormatOverpass Format = "overpass"
	FormatSPARQL   Format = "sparql"
)

// Formats lists every explicit format.
var Formats = []Format{FormatNative, FormatOverpass, FormatSPARQL}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a format name. An empty name means auto-detection.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatNative, FormatOverpass, FormatSPARQL:
		return f, nil
	default:
		return "", errors.NewValidationError("format", s, "must be one of auto, native, overpass, sparql")
	}
}

// Adapter converts one document shape into a native batch.
type Adapter interface {
	Format() Format
	Decode(data []byte, name string) (sites.Batch, error)
}

// AdapterFor returns the adapter of an explicit format.
func AdapterFor(f Format) (Adapter, error) {
	switch f {
	case FormatNative:
		return Native{}, nil
	case FormatOverpass:
		return Overpass{}, nil
	case FormatSPARQL:
		return SPARQL{}, nil
	default:
		return nil, errors.NewValidationError("format", string(f), "no adapter")
	}
}

// DetectFormat inspects the top-level keys of a JSON document. Anything
// that is not a JSON object is assumed to be a native YAML batch.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return FormatNative
	}
	obj, err := jason.NewObjectFromBytes(trimmed)
	if err != nil {
		return FormatNative
	}
	if _, err := obj.GetValue("elements"); err == nil {
		return FormatOverpass
	}
	if _, err := obj.GetValue("results", "bindings"); err == nil {
		return FormatSPARQL
	}
	return FormatNative
}

// Decode converts data of the given format, detecting it when f is auto.
func Decode(data []byte, f Format, name string) (sites.Batch, error) {
	if f == FormatAuto || f == "" {
		f = DetectFormat(data)
	}
	adapter, err := AdapterFor(f)
	if err != nil {
		return sites.Batch{}, err
	}
	return adapter.Decode(data, name)
}

// Native decodes {"sites": [...]} documents in JSON or YAML.
type Native struct{}

// Format returns FormatNative.
func (Native) Format() Format { return FormatNative }

// Decode decodes a native batch.
func (Native) Decode(data []byte, name string) (sites.Batch, error) {
	enc := sites.FormatYAML
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		enc = sites.FormatJSON
	}
	return sites.DecodeBatch(data, enc, name)
}
