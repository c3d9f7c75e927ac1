// Package extract turns uploaded documents into plain text the transcriber
// can read.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document yields no extractable text.
var ErrNoText = errors.New("document contains no extractable text")

// Prepare returns the path the transcriber should be given for path. PDF
// files are converted to a sibling .txt file; everything else is returned unchanged.
func Prepare(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return path, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	text, err := PDFText(content)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write extracted text: %w", err)
	}
	return out, nil
}

// PDFText concatenates the plain text of every page. Pages that fail to
// extract are skipped.
func PDFText(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	if strings.TrimSpace(textBuilder.String()) == "" {
		return "", ErrNoText
	}
	return textBuilder.String(), nil
}
