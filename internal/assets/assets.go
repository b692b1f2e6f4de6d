// Package assets inspects figure files referenced from chapters.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrUnreadable marks a figure that exists but cannot be decoded.
var ErrUnreadable = errors.New("figure unreadable")

// Inspector checks that a figure exists and, for formats it understands,
// that it decodes.
type Inspector struct {
	// VerifyPDF opens .pdf figures and requires at least one page.
	VerifyPDF bool
}

// Inspect returns nil for a usable figure, an error wrapping fs.ErrNotExist
// for a missing one, and an error wrapping ErrUnreadable for a broken one.
func (i Inspector) Inspect(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}
	if i.VerifyPDF && strings.EqualFold(filepath.Ext(path), ".pdf") {
		if err := checkPDF(path); err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	}
	return nil
}

func checkPDF(path string) (err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if reader.NumPage() < 1 {
		return errors.New("pdf has no pages")
	}
	return nil
}
