package render

import (
	"regexp"
	"strings"

	"cloud.google.com/go/civil"
)

// maxSubjectChars bounds the subject-derived portion of a filename.
const maxSubjectChars = 120

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9 ._'-]`)
	filenameSpaceRun    = regexp.MustCompile(`\s+`)
)

// BaseName derives the snapshot filename stem: the sale date followed by
// the certification number when one was found, else the sanitized subject.
// No extension is appended here.
func BaseName(date civil.Date, cert, subject string) string {
	label := cert
	if label == "" {
		label = sanitizeFilename(subject)
	}
	if label == "" {
		label = "untitled"
	}
	return date.String() + " - " + label
}

// sanitizeFilename replaces filesystem-unsafe characters with spaces,
// collapses runs of whitespace, and truncates to maxSubjectChars.
func sanitizeFilename(s string) string {
	if len(s) > maxSubjectChars {
		s = s[:maxSubjectChars]
	}
	s = unsafeFilenameChars.ReplaceAllString(s, " ")
	s = filenameSpaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
