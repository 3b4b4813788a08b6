package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
)

// pdfExtractor extracts text content from PDF documents using pdfcpu.
// Pages are joined with "--- Page N ---" markers so citations can point
// back to a page.
type pdfExtractor struct {
	tempDir string
	logger  arbor.ILogger
}

func newPDFExtractor(logger arbor.ILogger) *pdfExtractor {
	tempDir := filepath.Join(os.TempDir(), "respondeo-pdf")
	os.MkdirAll(tempDir, 0755)

	return &pdfExtractor{
		tempDir: tempDir,
		logger:  logger,
	}
}

func (e *pdfExtractor) extract(ctx context.Context, data []byte) (string, error) {
	// pdfcpu works on files, not readers
	tempFile, err := os.CreateTemp(e.tempDir, "extract_*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp PDF file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	tempFile.Close()

	pdfCtx, err := api.ReadContextFile(tempPath)
	if err != nil {
		return "", fmt.Errorf("%w: malformed PDF structure: %v", models.ErrCorruptDocument, err)
	}
	pageCount := pdfCtx.PageCount
	if pageCount == 0 {
		return "", fmt.Errorf("%w: PDF has no pages", models.ErrCorruptDocument)
	}

	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		return "", fmt.Errorf("failed to create page output directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempPath, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("%w: content extraction failed: %v", models.ErrCorruptDocument, err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}

		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = extractTextFromContent(string(content))
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if pageNum > 1 {
			builder.WriteString(fmt.Sprintf("\n\n--- Page %d ---\n\n", pageNum))
		}
		builder.WriteString(pageTexts[pageNum])
	}

	e.logger.Debug().
		Int("pages", pageCount).
		Int("text_length", builder.Len()).
		Msg("Extracted PDF text")

	return builder.String(), nil
}

// extractTextFromContent pulls string literals out of a PDF content stream.
// pdfcpu emits raw page content; the text operands live in parenthesized
// literals inside Tj/TJ operators. Escape sequences for parens and basic
// whitespace are honored; anything fancier (hex strings, CID fonts) is
// beyond this decoder and yields whatever literals are present.
func extractTextFromContent(content string) string {
	var builder strings.Builder
	depth := 0
	escaped := false

	for i := 0; i < len(content); i++ {
		c := content[i]

		if depth > 0 {
			if escaped {
				switch c {
				case 'n':
					builder.WriteByte('\n')
				case 't':
					builder.WriteByte('\t')
				case '(', ')', '\\':
					builder.WriteByte(c)
				}
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					// Literal closed; keep words apart.
					builder.WriteByte(' ')
				}
			default:
				builder.WriteByte(c)
			}
			continue
		}

		if c == '(' {
			depth = 1
			continue
		}

		// Line breaks between text-positioning operators separate lines.
		if c == '\n' && builder.Len() > 0 {
			builder.WriteByte('\n')
		}
	}

	return builder.String()
}
