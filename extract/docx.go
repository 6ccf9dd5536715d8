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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/poiesic/scrubdex/core"
)

const (
	mainDocumentPart = "word/document.xml"
	wordNamespace    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// WordDecoder yields one segment per body-level paragraph of an OOXML
// word-processing document, including empty paragraphs. Paragraphs inside
// tables, headers and text boxes are not part of the body sequence.
type WordDecoder struct{}

// Segments streams word/document.xml so only the current paragraph is
// held in memory.
func (WordDecoder) Segments(doc core.Document, data []byte) iter.Seq2[core.Segment, error] {
	return func(yield func(core.Segment, error) bool) {
		fail := func(err error) {
			yield(core.Segment{}, fmt.Errorf("%w: %s: %w", core.ErrExtraction, doc.SourceID, err))
		}

		part, err := openMainPart(data)
		if err != nil {
			fail(err)
			return
		}
		defer part.Close()

		p := paragraphScanner{dec: xml.NewDecoder(part)}
		for index := 0; ; index++ {
			text, ok, err := p.next()
			if err != nil {
				fail(err)
				return
			}
			if !ok {
				return
			}
			if !yield(core.Segment{DocumentID: doc.ID, Index: index, Text: text}, nil) {
				return
			}
		}
	}
}

func openMainPart(data []byte) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name == mainDocumentPart {
			return f.Open()
		}
	}
	return nil, ErrMissingPart
}

// paragraphScanner walks the element tree and returns the text of each
// w:p that is a direct child of w:body.
type paragraphScanner struct {
	dec   *xml.Decoder
	stack []string
}

func (p *paragraphScanner) next() (string, bool, error) {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			if len(p.stack) > 0 {
				return "", false, io.ErrUnexpectedEOF
			}
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if isWord(t.Name, "p") && p.parentIs("body") {
				p.stack = append(p.stack, "p")
				text, err := p.paragraph()
				return text, err == nil, err
			}
			p.stack = append(p.stack, t.Name.Local)
		case xml.EndElement:
			if len(p.stack) > 0 {
				p.stack = p.stack[:len(p.stack)-1]
			}
		}
	}
}

func (p *paragraphScanner) parentIs(local string) bool {
	return len(p.stack) > 0 && p.stack[len(p.stack)-1] == local
}

// paragraph consumes tokens up to the end of the current w:p. Text of
// nested paragraphs (text boxes) is ignored.
func (p *paragraphScanner) paragraph() (string, error) {
	var (
		sb     strings.Builder
		depth  = 1
		nested = 0
		inText = false
	)
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case isWord(t.Name, "p"):
				nested++
			case nested > 0:
			case isWord(t.Name, "t"):
				inText = true
			case isWord(t.Name, "tab"):
				sb.WriteByte('\t')
			case isWord(t.Name, "br"), isWord(t.Name, "cr"):
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
			switch {
			case isWord(t.Name, "p") && depth > 0:
				nested--
			case isWord(t.Name, "t"):
				inText = false
			}
		case xml.CharData:
			if inText && nested == 0 {
				sb.Write(t)
			}
		}
	}
	p.stack = p.stack[:len(p.stack)-1]
	return sb.String(), nil
}

func isWord(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == wordNamespace || name.Space == "")
}
