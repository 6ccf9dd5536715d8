// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/scrubdex/core"
)

// PDFDecoder yields one segment per page with extractable text.
type PDFDecoder struct{}

// Segments opens the PDF and reads pages on demand. Page text is trimmed
// and pages left empty are skipped; Index is the zero-based page number.
func (PDFDecoder) Segments(doc core.Document, data []byte) iter.Seq2[core.Segment, error] {
	return func(yield func(core.Segment, error) bool) {
		reader, err := openPDF(data)
		if err != nil {
			yield(core.Segment{}, fmt.Errorf("%w: %s: %w", core.ErrExtraction, doc.SourceID, err))
			return
		}

		for i := 1; i <= reader.NumPage(); i++ {
			text, err := pageText(reader, i)
			if err != nil {
				yield(core.Segment{}, fmt.Errorf("%w: %s: page %d: %w", core.ErrExtraction, doc.SourceID, i, err))
				return
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if !yield(core.Segment{DocumentID: doc.ID, Index: i - 1, Text: text}, nil) {
				return
			}
		}
	}
}

// openPDF parses the cross-reference table. The parser panics on some
// malformed inputs, so panics are converted into errors.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page: %v", r)
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
