package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name             string
		input            string
		expectedConcepts int
		expectedText     string
		expectedClue     string
	}{
		{
			name:             "concept without clue",
			input:            "C: Paris is the capital of France",
			expectedConcepts: 1,
			expectedText:     "Paris is the capital of France",
			expectedClue:     "",
		},
		{
			name:             "concept with clue",
			input:            "C: 2\nH: What is 1+1?",
			expectedConcepts: 1,
			expectedText:     "2",
			expectedClue:     "What is 1+1?",
		},
		{
			name: "multiline concept",
			input: `
C: Red
Blue
Yellow
H: The primary colors
`,
			expectedConcepts: 1,
			expectedText:     "Red\nBlue\nYellow",
			expectedClue:     "The primary colors",
		},
		{
			name: "separator splits concepts",
			input: `
C: First concept
---
C: Second concept
`,
			expectedConcepts: 2,
		},
		{
			name: "new concept line splits concepts without separator",
			input: `
C: First concept
H: first clue
C: Second concept
`,
			expectedConcepts: 2,
		},
		{
			name:             "clue without concept is dropped",
			input:            "H: An orphaned clue",
			expectedConcepts: 0,
		},
		{
			name:             "surrounding prose is ignored",
			input:            "# Notes\n\nSome commentary.\n\nC: The actual concept\n\nTrailing prose does not belong to it?",
			expectedConcepts: 1,
			expectedText:     "The actual concept\n\nTrailing prose does not belong to it?",
		},
		{
			name:             "empty input",
			input:            "",
			expectedConcepts: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			concepts, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse returned unexpected error: %v", err)
			}
			if len(concepts) != tc.expectedConcepts {
				t.Fatalf("Expected %d concepts, but got %d", tc.expectedConcepts, len(concepts))
			}
			if tc.expectedConcepts != 1 {
				return
			}
			if tc.expectedText != "" && concepts[0].Text != tc.expectedText {
				t.Errorf("Expected concept text %q, but got %q", tc.expectedText, concepts[0].Text)
			}
			if concepts[0].Clue != tc.expectedClue {
				t.Errorf("Expected clue %q, but got %q", tc.expectedClue, concepts[0].Clue)
			}
		})
	}
}

func TestParseKeepsPrefixedIndentation(t *testing.T) {
	concepts, err := Parse(strings.NewReader("C:   indented"))
	if err != nil {
		t.Fatalf("Parse returned unexpected error: %v", err)
	}
	if len(concepts) != 1 {
		t.Fatalf("Expected 1 concept, but got %d", len(concepts))
	}
	// Only the single conventional space after the prefix is trimmed.
	if concepts[0].Text != "  indented" {
		t.Errorf("Expected %q, but got %q", "  indented", concepts[0].Text)
	}
}
