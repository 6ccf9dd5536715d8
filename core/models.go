package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs are derived from the remote store identifier so they stay
// stable across runs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Format classifies an entry listed by the document store.
type Format int

const (
	// FormatUnknown is any entry the pipeline does not process.
	FormatUnknown Format = iota
	// FormatPDF is a paginated document.
	FormatPDF
	// FormatWordProcessing is an OOXML word-processing document.
	FormatWordProcessing
	// FormatContainer is a folder holding further entries.
	FormatContainer
)

// Recognized MIME types.
const (
	MIMETypePDF            = "application/pdf"
	MIMETypeWordProcessing = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeContainer      = "application/vnd.google-apps.folder"
)

// FormatFromMIME maps a store MIME type to a Format.
func FormatFromMIME(mimeType string) Format {
	switch mimeType {
	case MIMETypePDF:
		return FormatPDF
	case MIMETypeWordProcessing:
		return FormatWordProcessing
	case MIMETypeContainer:
		return FormatContainer
	default:
		return FormatUnknown
	}
}

// Supported reports whether documents of this format can be extracted.
func (f Format) Supported() bool {
	return f == FormatPDF || f == FormatWordProcessing
}

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWordProcessing:
		return "wordprocessing"
	case FormatContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Entry is one child of a container as listed by the store.
type Entry struct {
	ID       string
	Name     string
	MIMEType string
}

// Format returns the entry's classification.
func (e Entry) Format() Format {
	return FormatFromMIME(e.MIMEType)
}

// Container is a snapshot of one container listing.
type Container struct {
	ID      string
	Entries []Entry
}

// Document is a supported file discovered during traversal.
type Document struct {
	ID       ID
	SourceID string
	Name     string
	Format   Format
}

// NewDocument builds a Document from a listed entry.
func NewDocument(e Entry) Document {
	return Document{
		ID:       IDFromContent(e.ID),
		SourceID: e.ID,
		Name:     e.Name,
		Format:   e.Format(),
	}
}

// Segment is one unit of extracted text: a PDF page or a paragraph.
type Segment struct {
	DocumentID ID
	Index      int
	Text       string
}

// Vector is the numeric representation of one document's sanitized text.
type Vector struct {
	DocumentID ID
	Values     []float32
}

// Neighbor is a search hit ordered by ascending L2 distance.
type Neighbor struct {
	DocumentID ID
	Distance   float32
}

// DocumentRecord tracks the outcome of a document within a run.
type DocumentRecord struct {
	Id        ID
	SourceID  string
	Name      string
	Format    Format
	State     DocumentState
	Error     string // Failure reason, empty unless State is Failed
	Segments  int    // Number of segments extracted
	Vectors   int    // Number of vectors contributed (0 or 1)
	UpdatedAt time.Time
}

// NewDocumentRecord creates a record in the Discovered state.
func NewDocumentRecord(doc Document) *DocumentRecord {
	return &DocumentRecord{
		Id:        doc.ID,
		SourceID:  doc.SourceID,
		Name:      doc.Name,
		Format:    doc.Format,
		State:     StateDiscovered,
		UpdatedAt: time.Now().UTC(),
	}
}
