package sites

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type catalogDocument struct {
	Sites []*CanonicalSite `json:"sites" yaml:"sites"`
}

func (c *Catalog) document() catalogDocument {
	list := c.sites
	if list == nil {
		list = []*CanonicalSite{}
	}
	return catalogDocument{Sites: list}
}

// MarshalJSON encodes the catalog as {"sites": [...]} in insertion order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.document())
}

// UnmarshalJSON decodes {"sites": [...]}.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return c.load(doc)
}

// MarshalYAML encodes the catalog as a sites list.
func (c *Catalog) MarshalYAML() (any, error) {
	return c.document(), nil
}

// UnmarshalYAML decodes a sites list.
func (c *Catalog) UnmarshalYAML(unmarshal func(any) error) error {
	var doc catalogDocument
	if err := unmarshal(&doc); err != nil {
		return err
	}
	return c.load(doc)
}

func (c *Catalog) load(doc catalogDocument) error {
	loaded, err := FromSites(doc.Sites)
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// Encode renders the catalog in the given format. JSON output is indented
// and ends with a newline so that identical catalogs are byte-identical files.
func Encode(c *Catalog, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.MarshalWithOptions(c.document(), yaml.Indent(2), yaml.IndentSequence(false))
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(c.document()); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Decode parses a catalog document.
func Decode(data []byte, format Format, file string) (*Catalog, error) {
	var doc catalogDocument
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, errors.WrapParse(string(format), file, err)
	}
	return FromSites(doc.Sites)
}

// Load reads a catalog file, picking the format from the extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Decode(data, FormatFromPath(path), path)
}

// Save writes a catalog file, creating parent directories as needed.
func Save(path string, c *Catalog) error {
	data, err := Encode(c, FormatFromPath(path))
	if err != nil {
		return errors.WrapParse(string(FormatFromPath(path)), path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func unmarshal(data []byte, format Format, v any) error {
	if format == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}
