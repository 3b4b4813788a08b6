package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/ternarybob/respondeo/internal/models"
)

// emailExtractor extracts readable text from RFC 5322 messages. The subject
// line is prepended so questions about the message topic can be answered,
// then inline text parts are concatenated with text/plain preferred over
// text/html.
type emailExtractor struct{}

func (e *emailExtractor) extract(ctx context.Context, data []byte) (string, error) {
	reader, err := mail.CreateReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid email message: %v", models.ErrCorruptDocument, err)
	}
	defer reader.Close()

	var builder strings.Builder
	if subject, err := reader.Header.Subject(); err == nil && subject != "" {
		builder.WriteString("Subject: ")
		builder.WriteString(subject)
		builder.WriteString("\n\n")
	}

	var plainParts []string
	var htmlParts []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed trailing part does not invalidate what was
			// already decoded.
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch contentType {
		case "text/plain":
			plainParts = append(plainParts, string(body))
		case "text/html":
			htmlParts = append(htmlParts, stripHTMLTags(string(body)))
		}
	}

	if len(plainParts) > 0 {
		builder.WriteString(strings.Join(plainParts, "\n\n"))
	} else if len(htmlParts) > 0 {
		builder.WriteString(strings.Join(htmlParts, "\n\n"))
	}

	return builder.String(), nil
}

// stripHTMLTags removes markup from an HTML body, keeping only character
// data. Block-ish tags are replaced with newlines so paragraphs survive.
func stripHTMLTags(html string) string {
	var builder strings.Builder
	inTag := false
	for i := 0; i < len(html); i++ {
		c := html[i]
		switch {
		case c == '<':
			inTag = true
			if hasTagPrefix(html[i:], "</p>") || hasTagPrefix(html[i:], "<br") || hasTagPrefix(html[i:], "</div>") {
				builder.WriteByte('\n')
			}
		case c == '>':
			inTag = false
		case !inTag:
			builder.WriteByte(c)
		}
	}
	return builder.String()
}

func hasTagPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}
