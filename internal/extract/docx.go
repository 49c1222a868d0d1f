package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDOCX renders body paragraphs first, then table contents: each row
// becomes its non-blank cell texts joined by " | ", blank rows omitted.
func extractDOCX(content []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return docxError(err)
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return docxError(err)
			}
			break
		}
	}
	if doc == nil {
		return docxError(errors.New("word/document.xml not found"))
	}
	defer doc.Close()

	paragraphs, tableRows, err := walkDocumentXML(doc)
	if err != nil {
		return docxError(err)
	}

	parts := make([]string, 0, len(paragraphs)+len(tableRows))
	parts = append(parts, paragraphs...)
	parts = append(parts, tableRows...)
	return strings.Join(parts, "\n")
}

// walkDocumentXML streams word/document.xml, collecting body-level paragraph
// text and table rows. Paragraphs inside tables count toward their cell, not
// the paragraph list, matching how word processors expose document bodies.
func walkDocumentXML(r io.Reader) (paragraphs, tableRows []string, err error) {
	dec := xml.NewDecoder(r)

	var (
		tableDepth int
		inPara     bool
		inCell     bool
		inText     bool
		para       strings.Builder
		cell       strings.Builder
		row        []string
	)

	for {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, nil, tokErr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth > 0 {
					row = nil
				}
			case "tc":
				if tableDepth > 0 {
					inCell = true
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				writeRun(tableDepth, inCell, inPara, &cell, &para, "\t")
			case "br":
				writeRun(tableDepth, inCell, inPara, &cell, &para, "\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "tr":
				if tableDepth > 0 && len(row) > 0 {
					tableRows = append(tableRows, strings.Join(row, " | "))
				}
			case "tc":
				if tableDepth > 0 {
					inCell = false
					if s := strings.TrimSpace(cell.String()); s != "" {
						row = append(row, s)
					}
				}
			case "p":
				if tableDepth == 0 && inPara {
					inPara = false
					if strings.TrimSpace(para.String()) != "" {
						paragraphs = append(paragraphs, para.String())
					}
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				writeRun(tableDepth, inCell, inPara, &cell, &para, string(t))
			}
		}
	}

	return paragraphs, tableRows, nil
}

func writeRun(tableDepth int, inCell, inPara bool, cell, para *strings.Builder, s string) {
	switch {
	case tableDepth > 0 && inCell:
		cell.WriteString(s)
	case tableDepth == 0 && inPara:
		para.WriteString(s)
	}
}

func docxError(err error) string {
	return fmt.Sprintf("[DOCX extraction error: %s]", truncate(err.Error(), 100))
}
