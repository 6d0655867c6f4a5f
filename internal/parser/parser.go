package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/Kaushik-93/Engram-sub000/internal/domain"
)

// Concept files are markdown with prefixed blocks:
//
//	C: the text to recall
//	H: an optional clue shown as the prompt
//
// A new "C:" line or a "---" separator starts a new concept. Unprefixed
// lines continue the current field, so both fields may span multiple lines.
const (
	conceptPrefix = "C:"
	cluePrefix    = "H:"
	separator     = "---"
)

type field int

const (
	none field = iota
	conceptField
	clueField
)

// ParseFile reads the file at path and extracts all concepts from it.
func ParseFile(path string) ([]domain.Concept, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse extracts all concepts from r. Blocks without a "C:" line are
// dropped; a clue with no concept is not a reviewable unit.
func Parse(r io.Reader) ([]domain.Concept, error) {
	var concepts []domain.Concept
	var current domain.Concept
	var block []string
	active := none

	closeField := func() {
		if len(block) == 0 {
			return
		}
		text := strings.Join(block, "\n")
		switch active {
		case conceptField:
			current.Text = text
		case clueField:
			current.Clue = text
		}
		block = nil
	}

	closeConcept := func() {
		closeField()
		if current.Text != "" {
			concepts = append(concepts, current)
		}
		current = domain.Concept{}
		active = none
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == separator:
			closeConcept()
		case strings.HasPrefix(line, conceptPrefix):
			// A concept line always opens a fresh block.
			closeConcept()
			active = conceptField
			block = append(block, firstLine(line, conceptPrefix))
		case strings.HasPrefix(line, cluePrefix):
			closeField()
			active = clueField
			block = append(block, firstLine(line, cluePrefix))
		case active != none:
			block = append(block, line)
		}
	}
	closeConcept()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return concepts, nil
}

// firstLine strips the field prefix and the single space conventionally
// following it, leaving further indentation intact.
func firstLine(line, prefix string) string {
	rest := line[len(prefix):]
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
	}
	return rest
}
