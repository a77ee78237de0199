package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const blockDelimiter = "\n----------------------------------------\n"

// DefaultMaxContextLength bounds the assembled context string.
const DefaultMaxContextLength = 8000

// AssembleContext renders the retrieved documents into the prompt context.
// Documents with empty content are excluded; the returned slice is the
// citation-eligible set in input order. When the rendered context exceeds
// maxLength it is cut at the boundary with a warning — a hard cut, not
// sentence-aware.
func AssembleContext(docs []RetrievedDocument, maxLength int, logger *logrus.Logger) (string, []RetrievedDocument) {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}

	var sb strings.Builder
	eligible := make([]RetrievedDocument, 0, len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			if logger != nil {
				logger.WithField("record_id", doc.RecordID).Debug("Skipping document with empty content")
			}
			continue
		}
		eligible = append(eligible, doc)
		sb.WriteString(renderBlock(doc))
		sb.WriteString(blockDelimiter)
	}

	// The budget counts characters, not bytes: Vietnamese text runs 2-3
	// bytes per rune, and a byte cut could split a rune mid-sequence.
	context := sb.String()
	if length := utf8.RuneCountInString(context); length > maxLength {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"length":     length,
				"max_length": maxLength,
			}).Warn("Assembled context exceeds budget, truncating")
		}
		context = string([]rune(context)[:maxLength])
	}
	return context, eligible
}

func renderBlock(doc RetrievedDocument) string {
	var sb strings.Builder
	sb.WriteString("Document ID: " + doc.DocumentID + "\n")
	sb.WriteString("Cơ sở pháp lý: " + doc.Source + "\n")
	sb.WriteString("Mô tả: " + doc.Title + "\n")
	sb.WriteString("Nội dung: " + doc.Content + "\n")
	sb.WriteString("Record ID: " + doc.RecordID + "\n")
	sb.WriteString("Chunk ID: " + doc.ChunkID)
	return sb.String()
}
