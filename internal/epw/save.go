package epw

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

// Write renders the header followed by all hourly rows. Lines end in CRLF,
// as EnergyPlus writes them.
func (f *File) Write(w io.Writer) error {
	if err := f.ensureData(); err != nil {
		return err
	}
	if err := f.header.location.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, line := range f.header.lines() {
		bw.WriteString(line)
		bw.WriteString("\r\n")
	}
	for i := 0; i < collection.HoursPerYear; i++ {
		bw.WriteString(f.table.row(i))
		bw.WriteString("\r\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write epw: %w", err)
	}
	return nil
}

// Save writes the file to path.
func (f *File) Save(path string) error {
	return writeFile(path, f.Write)
}

// writeFile creates path and renders into it, removing the partial file when
// rendering fails.
func writeFile(path string, render func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
