package pdf

import (
	"errors"
	"fmt"
	"io"
)

// ErrNotPDF is returned when content does not start with the PDF header.
var ErrNotPDF = errors.New("invalid PDF file: header does not match")

// ValidateHeader checks that r starts with the PDF magic bytes and rewinds it
// for subsequent reads.
func ValidateHeader(r io.ReadSeeker) error {
	buffer := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}

	if n < len(pdfMagic) || string(buffer) != pdfMagic {
		return ErrNotPDF
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file position: %w", err)
	}

	return nil
}
