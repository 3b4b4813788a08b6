package models

import (
	"time"
)

// DocumentKind identifies the declared format of a source document.
type DocumentKind string

const (
	KindPDF   DocumentKind = "pdf"
	KindDOCX  DocumentKind = "docx"
	KindText  DocumentKind = "txt"
	KindEmail DocumentKind = "eml"
)

// SupportedKinds lists every document kind the extractor registry handles.
var SupportedKinds = []DocumentKind{KindPDF, KindDOCX, KindText, KindEmail}

// Document represents one fetched source document for the duration of a
// single pipeline run. The raw bytes live in scratch storage and are
// discarded with the run; only the extracted text travels further.
type Document struct {
	// Identity
	ID        string       `json:"id"`         // doc_{uuid}
	SourceURL string       `json:"source_url"` // URL the document was fetched from
	Kind      DocumentKind `json:"kind"`       // Declared/detected format

	// Content
	RawSize int64  `json:"raw_size"` // Raw byte length as downloaded
	Text    string `json:"text"`     // Extracted plain text with page/paragraph markers

	// Timestamps
	FetchedAt   time.Time `json:"fetched_at"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Chunk is the unit of indexed text: a bounded contiguous slice of a
// document's extracted text. Seq is zero-based and immutable once assigned;
// chunks are produced in document order and never reordered before indexing.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Seq        int    `json:"seq"`   // Zero-based position in document order
	Start      int    `json:"start"` // Start offset (runes) in the extracted text
	End        int    `json:"end"`   // End offset (exclusive, runes), always > Start
	Text       string `json:"text"`
}

// Len returns the chunk length in runes of the extracted text.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// RetrievedChunk pairs a chunk with its similarity score for one query.
type RetrievedChunk struct {
	Chunk
	Score float64 `json:"score"` // Cosine similarity, higher is more relevant
}

// Answer is the synthesized response for a single question. Sources holds
// the sequence indexes of the chunks that made it into the grounding prompt.
type Answer struct {
	Text     string `json:"text"`
	Sources  []int  `json:"sources,omitempty"`
	Fallback bool   `json:"fallback,omitempty"` // True when the deterministic fallback text was used
}
