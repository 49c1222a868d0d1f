package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF extracts text page by page. When the concatenated text is too
// short the PDF is assumed to be image-based and a structured marker with
// page count and creator metadata is returned instead. The pdf library
// panics on some malformed inputs, so the whole branch runs under recover.
func extractPDF(content []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = pdfError(fmt.Sprint(r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return pdfError(err.Error())
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	trimmed := strings.TrimSpace(sb.String())
	if len(trimmed) > minMeaningfulPDFText {
		return trimmed
	}

	creator := "Unknown"
	if info := reader.Trailer().Key("Info"); !info.IsNull() {
		if c := info.Key("Creator"); c.Kind() == pdf.String {
			creator = c.Text()
		}
	}

	return fmt.Sprintf("[IMAGE-BASED PDF DETECTED]\nCreator: %s\nPages: %d\n"+
		"This PDF contains images/scanned content that requires OCR for text extraction.",
		creator, reader.NumPage())
}

func pdfError(msg string) string {
	return fmt.Sprintf("[PDF extraction error: %s]", truncate(msg, 100))
}
