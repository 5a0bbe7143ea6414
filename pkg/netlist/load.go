package netlist

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// Format is a netlist file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot tell the netlist format of %s (use .yaml, .toml or .json)", path)
}

// Load reads and validates a netlist file. A netlist without a name takes
// the file's base name.
func Load(path string) (*Netlist, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read netlist")
	}
	n, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	if n.Name == "" {
		n.Name = sanitize(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Parse decodes and validates a netlist.
func Parse(data []byte, format Format) (*Netlist, error) {
	n, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func decode(data []byte, format Format) (*Netlist, error) {
	var n Netlist
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&n)
	case FormatTOML:
		var md toml.MetaData
		md, err = toml.Decode(string(data), &n)
		if err == nil {
			if undec := md.Undecoded(); len(undec) > 0 {
				err = errors.New(errors.ErrCodeInvalidFormat, "unknown netlist keys: %v", undec)
			}
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&n)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown netlist format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s netlist", format)
	}
	return &n, nil
}

// Marshal encodes n in the given format.
func Marshal(n *Netlist, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown netlist format %q", format)
	}
	return buf.Bytes(), nil
}

// sanitize maps a file name onto the cell name alphabet.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return DefaultName
	}
	return b.String()
}
