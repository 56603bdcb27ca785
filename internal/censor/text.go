// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package censor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"censor-scan/internal/terms"
)

// SniffLen is how much of a file's head is inspected to tell text from binary
const SniffLen = 8000

// DefaultMask replaces every occurrence of a term
const DefaultMask = "*******"

// IsBinary reports whether the file at path holds binary data: a NUL within
// the first SniffLen bytes after BOM-aware decoding. UTF-16 text with a BOM
// therefore counts as text even though its raw bytes contain NULs.
func IsBinary(fs afero.Fs, path string) (bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}

	decoded, err := Decode(head[:n])
	if err != nil {
		return false, err
	}
	return enry.IsBinary([]byte(decoded)), nil
}

// Decode turns raw file bytes into text. A UTF-8 or UTF-16 byte order mark
// selects the encoding; anything else is read as UTF-8.
func Decode(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), decoder))
	if err != nil {
		return "", fmt.Errorf("failed to decode content: %w", err)
	}
	return string(out), nil
}

// MaskReveals reports whether masking could leave word readable: the mask
// holds the word, the word holds the mask, or the word straddles either
// edge of a mask placed next to other text.
func MaskReveals(mask, word string) bool {
	if word == "" {
		return false
	}
	if strings.Contains(mask, word) || strings.Contains(word, mask) {
		return true
	}
	for i := 1; i < len(word); i++ {
		if strings.HasPrefix(mask, word[i:]) || strings.HasSuffix(mask, word[:i]) {
			return true
		}
	}
	return false
}

// Redact counts and masks every term in content. proceed is polled before
// each term; when it returns false the redaction is abandoned and ok is false.
// Only terms with at least one occurrence appear in counts, in term order.
func Redact(content string, words []string, mask string, proceed func() bool) (redacted string, counts []terms.WordCount, ok bool) {
	redacted = content
	for _, word := range words {
		if proceed != nil && !proceed() {
			return "", nil, false
		}
		if word == "" || !strings.Contains(redacted, word) {
			continue
		}
		n := strings.Count(redacted, word)
		redacted = strings.ReplaceAll(redacted, word, mask)
		counts = append(counts, terms.WordCount{Word: word, Count: n})
	}
	return redacted, counts, true
}
