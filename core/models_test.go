package core

import (
	"errors"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "1AbCdEfGh",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("doc-1") == IDFromContent("doc-2") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestFormatFromMIME(t *testing.T) {
	tests := []struct {
		mime      string
		want      Format
		supported bool
	}{
		{MIMETypePDF, FormatPDF, true},
		{MIMETypeWordProcessing, FormatWordProcessing, true},
		{MIMETypeContainer, FormatContainer, false},
		{"image/png", FormatUnknown, false},
		{"", FormatUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			got := FormatFromMIME(tt.mime)
			if got != tt.want {
				t.Errorf("FormatFromMIME(%q) = %v, want %v", tt.mime, got, tt.want)
			}
			if got.Supported() != tt.supported {
				t.Errorf("Supported() = %v, want %v", got.Supported(), tt.supported)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(Entry{ID: "abc", Name: "report.pdf", MIMEType: MIMETypePDF})

	if doc.ID != IDFromContent("abc") {
		t.Errorf("document ID not derived from source id")
	}
	if doc.Format != FormatPDF {
		t.Errorf("Format = %v, want pdf", doc.Format)
	}
	if err := ValidateDocument(&doc); err != nil {
		t.Errorf("ValidateDocument() unexpected error: %v", err)
	}
}

func TestDimensionMismatchError(t *testing.T) {
	var err error = &DimensionMismatchError{Expected: 3, Got: 4}

	if !errors.Is(err, ErrIndexDimensionMismatch) {
		t.Errorf("errors.Is should match ErrIndexDimensionMismatch")
	}

	var dm *DimensionMismatchError
	if !errors.As(err, &dm) || dm.Expected != 3 || dm.Got != 4 {
		t.Errorf("errors.As did not recover fields: %+v", dm)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transfer", ErrTransfer, false},
		{"extraction", ErrExtraction, false},
		{"vectorization", ErrVectorization, false},
		{"dimension mismatch", &DimensionMismatchError{Expected: 1, Got: 2}, true},
		{"redaction rule", ErrRedactionRule, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
