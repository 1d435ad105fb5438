// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package text holds the tokenization rules shared by training and matching.
//
// Three tokenizers exist because the three kinds of text are treated
// differently:
//
//   - Question: lower-cased, every character that is not a letter, digit,
//     underscore or whitespace removed, split on whitespace.
//   - Answer: like Question, but the sentence terminals ".", "?" and "!" are
//     kept as standalone tokens.
//   - Query: lower-cased and split on whitespace only. Punctuation typed by a
//     user stays attached to its word, so "hello?" does not look up "hello".
package text

import (
	"strings"
	"unicode"

	"github.com/poiesic/chatter/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Lower NFC-normalizes s and lower-cases it without locale-specific rules,
// so composed and decomposed spellings of a word map to the same token.
// A new Caser is built per call because Casers are not safe for concurrent use.
func Lower(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// Question tokenizes stored question text.
func Question(s string) []string {
	return strings.Fields(strings.Map(keepWordRunes, Lower(s)))
}

// Answer tokenizes stored answer text, keeping sentence terminals as tokens.
func Answer(s string) []string {
	lowered := Lower(s)
	var sb strings.Builder
	sb.Grow(len(lowered) + 8)
	for _, r := range lowered {
		switch {
		case isTerminal(r):
			sb.WriteByte(' ')
			sb.WriteRune(r)
			sb.WriteByte(' ')
		case keepWordRunes(r) >= 0:
			sb.WriteRune(r)
		}
	}
	return strings.Fields(sb.String())
}

// Query tokenizes runtime user input.
func Query(s string) []string {
	return strings.Fields(Lower(s))
}

func keepWordRunes(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
		return r
	}
	return -1
}

func isTerminal(r rune) bool {
	return r < unicode.MaxASCII && core.IsTerminal(string(r))
}
