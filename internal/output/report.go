package output

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport renders r with the named formatter and writes it to w.
func WriteReport(w io.Writer, r *Report, format string) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format, strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	data, err := f.Format(r)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.Name(), err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s report: %w", f.Name(), err)
	}
	return nil
}
