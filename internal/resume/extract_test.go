package resume

import (
	"bytes"
	"errors"
	"testing"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        string
	}{
		{name: "txt extension", filename: "cv.txt", data: []byte("Senior Go engineer"), want: "Senior Go engineer"},
		{name: "markdown extension", filename: "CV.MD", data: []byte("# Resume\nPython"), want: "# Resume\nPython"},
		{name: "text content type", filename: "resume", contentType: "text/plain; charset=utf-8", data: []byte("Data analyst"), want: "Data analyst"},
		{name: "bom stripped", filename: "cv.txt", data: []byte("\xef\xbb\xbfNurse"), want: "Nurse"},
		{name: "invalid bytes replaced", filename: "cv.txt", data: []byte("Chef \xff cook"), want: "Chef � cook"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Extract(tt.filename, tt.contentType, tt.data)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got.Text != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got.Text)
			}
			if got.Filename != tt.filename {
				t.Fatalf("expected filename %q, got %q", tt.filename, got.Filename)
			}
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        error
	}{
		{name: "unsupported", filename: "cv.docx", contentType: "application/octet-stream", data: []byte("PK"), want: ErrUnsupportedFormat},
		{name: "blank text", filename: "cv.txt", data: []byte(" \n\t "), want: ErrEmptyText},
		{name: "broken pdf", filename: "cv.pdf", data: []byte("not a pdf"), want: ErrUnreadablePDF},
		{name: "pdf by content type", filename: "upload", contentType: "application/pdf", data: []byte("%PDF-garbage"), want: ErrUnreadablePDF},
		{name: "too large", filename: "cv.txt", data: bytes.Repeat([]byte("a"), MaxSize+1), want: ErrTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Extract(tt.filename, tt.contentType, tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
