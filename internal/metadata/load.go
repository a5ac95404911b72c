package metadata

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/net/html/charset"
)

// Format identifies a metadata encoding.
type Format string

// Supported formats.
const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported metadata file %q: expected .xml or .json", path)
	}
}

// Load reads a metadata export from disk.
func Load(path string) (*Catalog, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}
	defer func() { _ = f.Close() }()

	cat, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	cat.Path = path
	return cat, nil
}

// Read decodes a metadata export in the given format.
func Read(r io.Reader, format Format) (*Catalog, error) {
	var (
		pm  rawPowerMart
		err error
	)
	switch format {
	case FormatXML:
		pm, err = decodeXML(r)
	case FormatJSON:
		pm, err = decodeJSON(r)
	default:
		return nil, fmt.Errorf("unsupported metadata format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return newCatalog(pm), nil
}

func decodeXML(r io.Reader) (rawPowerMart, error) {
	var pm rawPowerMart
	dec := xml.NewDecoder(r)
	// Exports usually declare windows-1252
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&pm); err != nil {
		return pm, fmt.Errorf("failed to parse XML: %w", err)
	}
	return pm, nil
}

func decodeJSON(r io.Reader) (rawPowerMart, error) {
	var generic map[string]any
	if err := json.NewDecoder(r).Decode(&generic); err != nil {
		return rawPowerMart{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if _, ok := generic["POWERMART"]; !ok {
		return rawPowerMart{}, fmt.Errorf("failed to parse JSON: missing POWERMART root")
	}

	var doc jsonDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &doc,
		// Lifts a lone object into a one-element slice
		WeaklyTypedInput: true,
	})
	if err != nil {
		return rawPowerMart{}, err
	}
	if err := dec.Decode(generic); err != nil {
		return rawPowerMart{}, fmt.Errorf("failed to decode JSON metadata: %w", err)
	}
	return doc.PowerMart, nil
}
