package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleContextSkipsEmptyContent(t *testing.T) {
	docs := []RetrievedDocument{
		{RecordID: "QA_1", Content: "nội dung một", Title: "t1"},
		{RecordID: "QA_2", Content: "   "},
		{RecordID: "QA_3", Content: "nội dung ba"},
	}

	context, eligible := AssembleContext(docs, 8000, quietLogger())

	require.Len(t, eligible, 2)
	assert.Equal(t, "QA_1", eligible[0].RecordID)
	assert.Equal(t, "QA_3", eligible[1].RecordID)
	assert.Contains(t, context, "nội dung một")
	assert.NotContains(t, context, "QA_2")
}

func TestAssembleContextBlockFields(t *testing.T) {
	docs := []RetrievedDocument{{
		RecordID:   "QA_750F0D91",
		DocumentID: "ND01",
		Title:      "Điều kiện thành lập",
		Content:    "Doanh nghiệp phải...",
		ChunkID:    "ND01_art012",
		Source:     "Điều 12 văn bản ND01",
	}}

	context, _ := AssembleContext(docs, 8000, quietLogger())

	assert.Contains(t, context, "Document ID: ND01")
	assert.Contains(t, context, "Cơ sở pháp lý: Điều 12 văn bản ND01")
	assert.Contains(t, context, "Mô tả: Điều kiện thành lập")
	assert.Contains(t, context, "Nội dung: Doanh nghiệp phải...")
	assert.Contains(t, context, "Record ID: QA_750F0D91")
	assert.Contains(t, context, "Chunk ID: ND01_art012")
}

func TestAssembleContextHardCut(t *testing.T) {
	docs := []RetrievedDocument{
		{RecordID: "QA_1", Content: strings.Repeat("a", 500)},
		{RecordID: "QA_2", Content: strings.Repeat("b", 500)},
	}

	context, eligible := AssembleContext(docs, 300, quietLogger())

	assert.Len(t, context, 300)
	// Both documents stay citation-eligible even when the cut drops text.
	assert.Len(t, eligible, 2)
}

func TestAssembleContextBudgetCountsRunes(t *testing.T) {
	docs := []RetrievedDocument{
		{RecordID: "QA_1", Content: strings.Repeat("Đ", 500)},
	}

	context, _ := AssembleContext(docs, 101, quietLogger())

	assert.Equal(t, 101, utf8.RuneCountInString(context))
	assert.Greater(t, len(context), 101, "multi-byte runes must not shrink the character budget")
	assert.True(t, utf8.ValidString(context), "cut must land on a rune boundary")
}

func TestAssembleContextPreservesOrder(t *testing.T) {
	docs := []RetrievedDocument{
		{RecordID: "QA_1", Content: "first"},
		{RecordID: "DOC_2", Content: "second"},
	}

	context, _ := AssembleContext(docs, 8000, quietLogger())
	assert.Less(t, strings.Index(context, "first"), strings.Index(context, "second"))
}
