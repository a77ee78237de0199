package rag

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Chunk identifiers embed a legal citation: an optional article (art012),
// clause (cl_03) and point (pt_a) after the base document token, e.g.
// "ND01_art012_cl_03_pt_a".
var (
	articleRe = regexp.MustCompile(`(?i)art(\d+)`)
	clauseRe  = regexp.MustCompile(`(?i)cl_(\d+)`)
	pointRe   = regexp.MustCompile(`(?i)pt_([0-9a-z]+)`)
)

// ReconstructSource turns a structured chunk identifier into the
// human-readable Vietnamese citation. Parts are always ordered clause,
// article, point ("khoản X, Điều Y, điểm Z văn bản {base}") regardless of
// their order in the identifier; with no markers the result is
// "văn bản {base}". It never fails: an unparseable identifier yields
// UnknownSource with a logged warning.
func ReconstructSource(chunkID string, logger *logrus.Logger) string {
	trimmed := strings.TrimSpace(chunkID)
	if trimmed == "" {
		if logger != nil {
			logger.Warn("Empty chunk identifier, cannot reconstruct source")
		}
		return UnknownSource
	}

	base := trimmed
	if idx := strings.Index(trimmed, "_"); idx >= 0 {
		base = trimmed[:idx]
	}
	if base == "" {
		if logger != nil {
			logger.WithField("chunk_id", chunkID).Warn("Chunk identifier has no base document token")
		}
		return UnknownSource
	}

	var parts []string
	if m := clauseRe.FindStringSubmatch(trimmed); m != nil {
		parts = append(parts, "khoản "+stripLeadingZeros(m[1]))
	}
	if m := articleRe.FindStringSubmatch(trimmed); m != nil {
		parts = append(parts, "Điều "+stripLeadingZeros(m[1]))
	}
	if m := pointRe.FindStringSubmatch(trimmed); m != nil {
		parts = append(parts, "điểm "+m[1])
	}

	if len(parts) == 0 {
		return "văn bản " + base
	}
	return strings.Join(parts, ", ") + " văn bản " + base
}

// stripLeadingZeros renders a zero-padded marker number the way it reads in
// the statute ("012" -> "12").
func stripLeadingZeros(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}
