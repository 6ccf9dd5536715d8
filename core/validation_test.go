package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid pdf",
			doc:     &Document{ID: 1, SourceID: "a", Format: FormatPDF},
			wantErr: nil,
		},
		{
			name:    "valid word processing",
			doc:     &Document{ID: 1, SourceID: "a", Format: FormatWordProcessing},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty source id",
			doc:     &Document{ID: 1, Format: FormatPDF},
			wantErr: ErrEmptySourceID,
		},
		{
			name:    "container is not a document",
			doc:     &Document{ID: 1, SourceID: "a", Format: FormatContainer},
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		vec     *Vector
		wantErr error
	}{
		{"valid", &Vector{DocumentID: 1, Values: []float32{0.1, 0.2}}, nil},
		{"nil", nil, ErrInvalidVector},
		{"empty", &Vector{DocumentID: 1}, ErrEmptyVector},
		{"nan", &Vector{DocumentID: 1, Values: []float32{float32(math.NaN())}}, ErrInvalidVector},
		{"inf", &Vector{DocumentID: 1, Values: []float32{float32(math.Inf(1))}}, ErrInvalidVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector(tt.vec)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateVector() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateVector() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocumentRecord(t *testing.T) {
	if err := ValidateDocumentRecord(&DocumentRecord{SourceID: "a", State: StateIndexed}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDocumentRecord(&DocumentRecord{SourceID: "a"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
	if err := ValidateDocumentRecord(&DocumentRecord{State: StateIndexed}); !errors.Is(err, ErrEmptySourceID) {
		t.Errorf("error = %v, want ErrEmptySourceID", err)
	}
}
