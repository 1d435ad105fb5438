package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// WordID is a dense index into a Vocabulary.
// It is only meaningful together with the snapshot that produced it.
type WordID uint32

// Sentence-terminal punctuation tokens. They are always part of a trained
// vocabulary and are the only punctuation kept in answers.
const (
	Period      = "."
	Question    = "?"
	Exclamation = "!"
)

// Terminals lists the sentence-terminal tokens.
var Terminals = []string{Period, Question, Exclamation}

// IsTerminal reports whether token is a sentence-terminal punctuation token.
func IsTerminal(token string) bool {
	return token == Period || token == Question || token == Exclamation
}

// Vocabulary is an ordered list of unique tokens. A token's position is its WordID.
type Vocabulary struct {
	words []string
	index map[string]WordID
}

// NewVocabulary builds a vocabulary from an ordered token list.
// Returns ErrInvalidSnapshot if a token is empty or repeated.
func NewVocabulary(words []string) (*Vocabulary, error) {
	v := &Vocabulary{
		words: slices.Clone(words),
		index: make(map[string]WordID, len(words)),
	}
	for i, w := range v.words {
		if w == "" {
			return nil, invalidSnapshotf("empty token at position %d", i)
		}
		if _, dup := v.index[w]; dup {
			return nil, invalidSnapshotf("duplicate token %q", w)
		}
		v.index[w] = WordID(i)
	}
	return v, nil
}

// Len returns the number of tokens.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Lookup returns the WordID for a token.
func (v *Vocabulary) Lookup(word string) (WordID, bool) {
	id, ok := v.index[word]
	return id, ok
}

// Word returns the token for id. Panics if id is out of range.
func (v *Vocabulary) Word(id WordID) string {
	return v.words[id]
}

// Contains reports whether id is a valid index into the vocabulary.
func (v *Vocabulary) Contains(id WordID) bool {
	return int(id) < len(v.words)
}

// Words returns a copy of the ordered token list.
func (v *Vocabulary) Words() []string {
	return slices.Clone(v.words)
}

// WeightEntry holds the importance of a word and the words treated as equivalent.
type WeightEntry struct {
	Weight   uint32
	Synonyms []WordID
}

// DefaultWeight is the weight of a word without a weight table entry.
const DefaultWeight uint32 = 1

// WeightTable maps word IDs to weight entries.
// Absent entries read as {Weight: 1, Synonyms: none}.
type WeightTable struct {
	entries map[WordID]WeightEntry
}

// NewWeightTable creates a table from entries. The map is copied.
func NewWeightTable(entries map[WordID]WeightEntry) *WeightTable {
	t := &WeightTable{entries: make(map[WordID]WeightEntry, len(entries))}
	for id, e := range entries {
		t.entries[id] = WeightEntry{Weight: e.Weight, Synonyms: slices.Clone(e.Synonyms)}
	}
	return t
}

// Get returns a copy of the entry for id, or the default entry if none is stored.
func (t *WeightTable) Get(id WordID) WeightEntry {
	if e, ok := t.Lookup(id); ok {
		return e
	}
	return WeightEntry{Weight: DefaultWeight}
}

// Weight returns the weight for id, falling back to DefaultWeight.
func (t *WeightTable) Weight(id WordID) uint32 {
	if e, ok := t.entries[id]; ok {
		return e.Weight
	}
	return DefaultWeight
}

// Lookup returns a copy of the stored entry for id without applying the default.
func (t *WeightTable) Lookup(id WordID) (WeightEntry, bool) {
	e, ok := t.entries[id]
	if !ok {
		return WeightEntry{}, false
	}
	return WeightEntry{Weight: e.Weight, Synonyms: slices.Clone(e.Synonyms)}, true
}

// Len returns the number of stored entries.
func (t *WeightTable) Len() int {
	return len(t.entries)
}

// IDs returns the IDs with stored entries in ascending order.
func (t *WeightTable) IDs() []WordID {
	ids := make([]WordID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// KnowledgeEntry pairs a tokenized question with its answer.
// Question carries no punctuation; Answer keeps terminal punctuation tokens.
type KnowledgeEntry struct {
	Question []WordID
	Answer   []WordID
}

// KnowledgeBase is an insertion-ordered map from question tuples to answers.
type KnowledgeBase struct {
	entries []KnowledgeEntry
	index   map[string]int
}

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{index: make(map[string]int)}
}

// Put stores answer under question. If the question tuple already exists its
// answer is replaced in place and the original position is kept.
// Returns true when an existing entry was replaced.
func (kb *KnowledgeBase) Put(question, answer []WordID) bool {
	key := tupleKey(question)
	entry := KnowledgeEntry{Question: slices.Clone(question), Answer: slices.Clone(answer)}
	if i, ok := kb.index[key]; ok {
		kb.entries[i] = entry
		return true
	}
	kb.index[key] = len(kb.entries)
	kb.entries = append(kb.entries, entry)
	return false
}

// Answer returns the answer stored for an exact question tuple.
func (kb *KnowledgeBase) Answer(question []WordID) ([]WordID, bool) {
	i, ok := kb.index[tupleKey(question)]
	if !ok {
		return nil, false
	}
	return kb.entries[i].Answer, true
}

// Entries returns the entries in insertion order.
// The returned slice must not be modified.
func (kb *KnowledgeBase) Entries() []KnowledgeEntry {
	return kb.entries
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int {
	return len(kb.entries)
}

func tupleKey(ids []WordID) string {
	var sb strings.Builder
	sb.Grow(len(ids) * 4)
	var buf [4]byte
	for _, id := range ids {
		binary.BigEndian.PutUint32(buf[:], uint32(id))
		sb.Write(buf[:])
	}
	return sb.String()
}

// SnapshotMeta describes a trained snapshot.
type SnapshotMeta struct {
	Fingerprint ID
	Scale       uint32
	TrainedAt   time.Time
	Vocabulary  int
	Weights     int
	Entries     int
}

// Snapshot is the immutable output of training: everything the matcher and
// renderer need. It is safe for concurrent readers.
type Snapshot struct {
	Vocabulary *Vocabulary
	Weights    *WeightTable
	Knowledge  *KnowledgeBase
	Meta       SnapshotMeta
}

// Fingerprint hashes the vocabulary, weight table and knowledge base.
// Snapshots trained from the same input have the same fingerprint.
func Fingerprint(vocab *Vocabulary, weights *WeightTable, kb *KnowledgeBase) ID {
	h, _ := blake2b.New(8, nil)
	var buf [4]byte
	writeUint := func(v uint32) {
		binary.BigEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	writeIDs := func(ids []WordID) {
		writeUint(uint32(len(ids)))
		for _, id := range ids {
			writeUint(uint32(id))
		}
	}

	writeUint(uint32(vocab.Len()))
	for _, w := range vocab.words {
		writeUint(uint32(len(w)))
		h.Write([]byte(w))
	}
	for _, id := range weights.IDs() {
		e := weights.entries[id]
		writeUint(uint32(id))
		writeUint(e.Weight)
		writeIDs(e.Synonyms)
	}
	for _, e := range kb.entries {
		writeIDs(e.Question)
		writeIDs(e.Answer)
	}
	return ID(binary.LittleEndian.Uint64(h.Sum(nil)))
}
