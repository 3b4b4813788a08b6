package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/respondeo/internal/models"
)

// docxExtractor extracts text from DOCX (OOXML) documents. A .docx file is
// a zip archive whose body lives in word/document.xml; paragraphs become
// blank-line separated blocks, preserving the boundaries the chunker
// prefers to cut on.
type docxExtractor struct{}

func (e *docxExtractor) extract(ctx context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid DOCX archive: %v", models.ErrCorruptDocument, err)
	}

	var documentXML io.ReadCloser
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			documentXML, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("%w: cannot open word/document.xml: %v", models.ErrCorruptDocument, err)
			}
			break
		}
	}
	if documentXML == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", models.ErrCorruptDocument)
	}
	defer documentXML.Close()

	text, err := parseDocumentXML(documentXML)
	if err != nil {
		return "", fmt.Errorf("%w: malformed document body: %v", models.ErrCorruptDocument, err)
	}

	return text, nil
}

// parseDocumentXML walks the OOXML token stream collecting run text (w:t),
// explicit breaks (w:br, w:tab) and paragraph ends (w:p).
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var builder strings.Builder
	var inText bool

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				builder.WriteByte('\n')
			case "tab":
				builder.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}

	return builder.String(), nil
}
