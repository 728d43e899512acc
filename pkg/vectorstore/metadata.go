package vectorstore

import (
	"strconv"
	"strings"
)

// Reserved flat-form metadata keys. Extension fields may use any other key.
const (
	metaFilename   = "filename"
	metaPages      = "page_numbers"
	metaTitle      = "title"
	metaSource     = "source"
	metaDocumentID = "document_id"
)

// Metadata is the typed provenance record carried by every indexed chunk.
//
// Extra holds forward-compatible string fields that have no dedicated slot.
type Metadata struct {
	Filename    string
	PageNumbers []int
	Title       string
	Source      string
	DocumentID  string
	Extra       map[string]string
}

// Encode flattens metadata to a string map for backend storage. List-valued
// fields are encoded with EncodePages so the flat form stays scalar.
func (m Metadata) Encode() map[string]string {
	flat := make(map[string]string, 5+len(m.Extra))
	for k, v := range m.Extra {
		flat[k] = v
	}
	flat[metaFilename] = m.Filename
	flat[metaPages] = EncodePages(m.PageNumbers)
	flat[metaTitle] = m.Title
	flat[metaSource] = m.Source
	flat[metaDocumentID] = m.DocumentID
	return flat
}

// DecodeMetadata rebuilds Metadata from its flat string form. Unknown keys
// land in Extra.
func DecodeMetadata(flat map[string]string) Metadata {
	m := Metadata{
		Filename:    flat[metaFilename],
		PageNumbers: DecodePages(flat[metaPages]),
		Title:       flat[metaTitle],
		Source:      flat[metaSource],
		DocumentID:  flat[metaDocumentID],
	}
	for k, v := range flat {
		switch k {
		case metaFilename, metaPages, metaTitle, metaSource, metaDocumentID:
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[k] = v
	}
	return m
}

// EncodePages renders a page-number list as a comma-joined string. The empty
// list encodes to the empty string.
func EncodePages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// DecodePages parses a comma-joined page list back to ordered integers.
// DecodePages(EncodePages(pages)) == pages for any list of non-negative
// integers, including the empty list.
func DecodePages(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	pages := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		pages = append(pages, n)
	}
	return pages
}
