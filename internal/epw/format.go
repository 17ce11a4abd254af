package epw

import (
	"fmt"
	"io"
	"strings"
)

// Format names an output rendering of a File.
type Format string

const (
	FormatEPW  Format = "epw"
	FormatWEA  Format = "wea"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatDDY  Format = "ddy"
)

// Formats lists every supported output format.
var Formats = []Format{FormatEPW, FormatWEA, FormatJSON, FormatYAML, FormatDDY}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Extension is the file extension for the format, without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType is the media type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes the file to w in the given format.
func (f *File) Render(w io.Writer, format Format) error {
	switch format {
	case FormatEPW:
		return f.Write(w)
	case FormatWEA:
		return f.WriteWEA(w)
	case FormatDDY:
		return f.WriteDDY(w)
	case FormatJSON, FormatYAML:
		render := f.ToJSON
		if format == FormatYAML {
			render = f.ToYAML
		}
		b, err := render()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
