// Package deck extracts per-slide plain text from presentation archives.
//
// A .pptx file is a zip container; each slide lives in its own XML entry
// under ppt/slides/. Extraction recovers one cleaned text string per slide,
// ordered by the numeric slide index embedded in the entry name.
package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Slide entry naming convention inside the archive.
const (
	slideEntryPrefix = "ppt/slides/slide"
	slideEntrySuffix = ".xml"
)

// FormatError indicates the input bytes are not a readable presentation archive.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("not a valid presentation archive: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsPresentation reports whether the filename carries a supported
// presentation extension. The whole PowerPoint 2007+ family shares the
// same zip+XML layout.
func IsPresentation(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pptx", ".pptm", ".potx", ".potm":
		return true
	default:
		return false
	}
}

// slideEntry pairs an archive entry with its parsed slide index.
type slideEntry struct {
	index int
	file  *zip.File
}

// Extract opens the archive and returns one cleaned text string per slide,
// ordered by ascending numeric slide index.
//
// Guarantees:
//   - Output length equals the number of matched slide entries.
//   - An unreadable or malformed slide entry yields an empty string at its
//     position; it never aborts the whole extraction.
//
// Returns *FormatError if the bytes are not a valid zip container.
func Extract(archive []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &FormatError{Err: err}
	}

	entries := make([]slideEntry, 0, len(zr.File))
	for _, f := range zr.File {
		idx, ok := slideIndex(f.Name)
		if !ok {
			continue
		}
		entries = append(entries, slideEntry{index: idx, file: f})
	}

	// Numeric order, not lexical: slide9 sorts before slide10.
	// Stable so equal indices keep archive order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].index < entries[j].index
	})

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, harvestEntry(e.file))
	}
	return texts, nil
}

// harvestEntry reads one slide entry and returns its flattened text.
// Any per-entry failure (open, read, parse) degrades to an empty string:
// partial extraction is preferred over total failure.
func harvestEntry(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	return harvestText(data)
}

// slideIndex parses the numeric slide index out of an entry name.
// Returns false for entries outside the slide naming convention.
// A matched entry whose index digits fail to parse defaults to index 0;
// producers that emit such names still get their slide extracted.
func slideIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, slideEntryPrefix) || !strings.HasSuffix(name, slideEntrySuffix) {
		return 0, false
	}
	digits := name[len(slideEntryPrefix) : len(name)-len(slideEntrySuffix)]
	if strings.Contains(digits, "/") {
		// Entry in a nested directory, e.g. ppt/slides/slideLayouts/...
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, true
	}
	return n, true
}
