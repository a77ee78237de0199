package rag

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultCitationPattern matches the citation marker the system prompt
// instructs the model to emit, e.g. "[Mã tài liệu: QA_750F0D91]".
const DefaultCitationPattern = `\[Mã tài liệu:\s*[\w-]+\]`

var (
	citationMu    sync.Mutex
	citationCache = map[string]*regexp.Regexp{}
)

// ValidateCitation reports whether the generated text contains at least one
// citation marker. A bad pattern disables validation (treated as valid)
// rather than failing the request.
func ValidateCitation(responseText, pattern string) bool {
	if pattern == "" {
		pattern = DefaultCitationPattern
	}

	citationMu.Lock()
	re, ok := citationCache[pattern]
	if !ok {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			citationMu.Unlock()
			return true
		}
		citationCache[pattern] = re
	}
	citationMu.Unlock()

	return re.MatchString(responseText)
}

// AppendReferences adds the "References:" trailer listing every
// citation-eligible record ID, in final order. Text without eligible
// documents is returned unchanged.
func AppendReferences(responseText string, docs []RetrievedDocument) string {
	if len(docs) == 0 {
		return responseText
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, "["+doc.RecordID+"]")
	}
	return responseText + "\n\nReferences: " + strings.Join(ids, ", ")
}
