package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmptyContent(t *testing.T) {
	e := New()

	for _, filename := range []string{"resume.pdf", "cv.docx", "notes.txt", "weird.xyz", ""} {
		assert.Equal(t, EmptyFileMarker, e.Extract(nil, filename), "filename=%q", filename)
		assert.Equal(t, EmptyFileMarker, e.Extract([]byte{}, filename), "filename=%q", filename)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := New()

	tests := []struct {
		filename string
		want     string
	}{
		{"image.png", "[Unsupported format: .png]"},
		{"IMAGE.XYZ", "[Unsupported format: .xyz]"},
		{"archive.tar.gz", "[Unsupported format: .gz]"},
		{"noextension", "[Unsupported format: .]"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract([]byte("content"), tt.filename))
		})
	}
}

func TestExtractLegacyDoc(t *testing.T) {
	e := New()
	assert.Equal(t, LegacyDocMarker, e.Extract([]byte("binary doc bytes"), "resume.doc"))
}

func TestExtractTXTEncodings(t *testing.T) {
	e := New()

	t.Run("utf8", func(t *testing.T) {
		assert.Equal(t, "héllo wörld", e.Extract([]byte("héllo wörld"), "a.txt"))
	})

	t.Run("text suffix", func(t *testing.T) {
		assert.Equal(t, "plain", e.Extract([]byte("plain"), "a.text"))
	})

	t.Run("latin1 fallback", func(t *testing.T) {
		// 0xE9 is not valid UTF-8 on its own but decodes to é in Latin-1.
		got := e.Extract([]byte{'c', 'a', 'f', 0xE9}, "a.txt")
		assert.Equal(t, "café", got)
	})

	t.Run("case insensitive suffix", func(t *testing.T) {
		assert.Equal(t, "upper", e.Extract([]byte("upper"), "A.TXT"))
	})
}

func TestExtractMalformedPDF(t *testing.T) {
	e := New()
	got := e.Extract([]byte("not really a pdf"), "resume.pdf")
	assert.True(t, strings.HasPrefix(got, "[PDF extraction error:"), "got %q", got)
}

func TestExtractMalformedDOCX(t *testing.T) {
	e := New()
	got := e.Extract([]byte("not really a zip"), "resume.docx")
	assert.True(t, strings.HasPrefix(got, "[DOCX extraction error:"), "got %q", got)
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	e := New()
	got := e.Extract(buildDocx(t, "other.xml", "<doc/>"), "resume.docx")
	assert.True(t, strings.HasPrefix(got, "[DOCX extraction error:"), "got %q", got)
}

func TestExtractDOCXParagraphsAndTables(t *testing.T) {
	documentXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Skill</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Years</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Go</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>5</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>  </w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

	e := New()
	got := e.Extract(buildDocx(t, "word/document.xml", documentXML), "resume.docx")

	want := "First paragraph\nSecond paragraph\nSkill | Years\nGo | 5"
	assert.Equal(t, want, got)
}

func TestExtractNeverPanics(t *testing.T) {
	e := New()

	inputs := [][]byte{
		[]byte{0x00, 0x01, 0x02},
		[]byte("%PDF-1.4 truncated garbage"),
		[]byte("PK\x03\x04 truncated zip"),
		bytes.Repeat([]byte{0xFF}, 512),
	}
	filenames := []string{"a.pdf", "a.docx", "a.txt", "a.doc", "a.bin", ""}

	for _, in := range inputs {
		for _, fn := range filenames {
			got := e.Extract(in, fn)
			assert.NotEmpty(t, got)
		}
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"collapses whitespace", "a  b\n\nc\td", 500, "a b c d"},
		{"truncates with ellipsis", strings.Repeat("x", 600), 500, strings.Repeat("x", 500) + "..."},
		{"truncates on rune boundary", strings.Repeat("é", 600), 500, strings.Repeat("é", 500) + "..."},
		{"marker passes through", "[Empty file]", 500, "[Empty file]"},
		{"error marker untouched", "[PDF extraction error: boom]   ", 10, "[PDF extraction error: boom]   "},
		{"empty passes through", "", 500, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.in, tt.max))
		})
	}
}

// buildDocx assembles a minimal zip archive with a single named entry.
func buildDocx(t *testing.T, name, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}
