// Package resume turns uploaded resume files into plain text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"

	"github.com/spigell/job-matcher/internal/matching"
)

// MaxSize is the largest accepted upload.
const MaxSize = 10 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file type, please upload a PDF or TXT file")
	ErrEmptyText         = errors.New("could not extract text from resume")
	ErrUnreadablePDF     = errors.New("could not parse PDF")
	ErrTooLarge          = errors.New("resume file is too large")
)

type format int

const (
	formatUnknown format = iota
	formatPDF
	formatText
)

// Extract returns the resume text of data. The format is detected from the
// content type first and the file extension second.
func Extract(filename, contentType string, data []byte) (matching.Resume, error) {
	if len(data) > MaxSize {
		return matching.Resume{}, ErrTooLarge
	}

	var (
		text string
		err  error
	)

	switch detect(filename, contentType) {
	case formatPDF:
		text, err = pdfText(data)
		if err != nil {
			return matching.Resume{}, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
		}
	case formatText:
		text, err = plainText(data)
		if err != nil {
			return matching.Resume{}, err
		}
	default:
		return matching.Resume{}, ErrUnsupportedFormat
	}

	if strings.TrimSpace(text) == "" {
		return matching.Resume{}, ErrEmptyText
	}

	return matching.Resume{Text: text, Filename: filename}, nil
}

func detect(filename, contentType string) format {
	contentType = strings.ToLower(contentType)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case strings.Contains(contentType, "pdf"), ext == ".pdf":
		return formatPDF
	case strings.Contains(contentType, "text"), ext == ".txt", ext == ".md":
		return formatText
	default:
		return formatUnknown
	}
}

// pdfText recovers panics raised by the parser on malformed documents.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Invalid byte sequences become U+FFFD and a leading BOM is dropped.
func plainText(data []byte) (string, error) {
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}
