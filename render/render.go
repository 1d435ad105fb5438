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

// Package render turns answer word IDs back into readable prose.
package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/chatter/core"
)

// Answer renders ids as sentences: words are separated by single spaces,
// sentence terminals attach to the preceding word, and the first word of
// every sentence is capitalized. Every id must come from vocab.
func Answer(ids []core.WordID, vocab *core.Vocabulary) string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = vocab.Word(id)
	}
	return Tokens(tokens)
}

// Tokens renders an already resolved token sequence.
func Tokens(tokens []string) string {
	var buf []byte
	capitalizeNext := true
	for _, tok := range tokens {
		if core.IsTerminal(tok) {
			buf = trimTrailingSpace(buf)
			buf = append(buf, tok...)
			buf = append(buf, ' ')
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			tok = Capitalize(tok)
			capitalizeNext = false
		}
		buf = append(buf, tok...)
		buf = append(buf, ' ')
	}
	return strings.TrimSpace(string(buf))
}

// Capitalize upper-cases the first character of s and leaves the rest alone.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return s
	}
	return string(upper) + s[size:]
}

func trimTrailingSpace(buf []byte) []byte {
	for len(buf) > 0 && buf[len(buf)-1] == ' ' {
		buf = buf[:len(buf)-1]
	}
	return buf
}
