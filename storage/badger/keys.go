package badger

import (
	"encoding/binary"

	"github.com/poiesic/chatter/core"
)

// Key prefixes for different data types
const (
	snapshotMetaKey  = "snapmeta"
	vocabularyPrefix = "vocab:"
	weightPrefix     = "weight:"
	knowledgePrefix  = "kbent:"
)

// dataPrefixes lists every prefix holding snapshot records.
var dataPrefixes = [][]byte{
	[]byte(vocabularyPrefix),
	[]byte(weightPrefix),
	[]byte(knowledgePrefix),
}

// makeIndexedKey generates a key of prefix followed by a big-endian index.
// Big-endian keeps lexicographic key order equal to numeric order.
func makeIndexedKey(prefix string, index uint32) []byte {
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], index)
	return buf
}

// makeVocabularyKey generates the key for the token with the given word ID.
func makeVocabularyKey(id core.WordID) []byte {
	return makeIndexedKey(vocabularyPrefix, uint32(id))
}

// makeWeightKey generates the key for the weight entry of a word ID.
func makeWeightKey(id core.WordID) []byte {
	return makeIndexedKey(weightPrefix, uint32(id))
}

// makeKnowledgeKey generates the key for the knowledge entry at position i.
func makeKnowledgeKey(i int) []byte {
	return makeIndexedKey(knowledgePrefix, uint32(i))
}

// keyIndex extracts the index from a key built by makeIndexedKey.
func keyIndex(prefix string, key []byte) (uint32, bool) {
	if len(key) != len(prefix)+4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(key[len(prefix):]), true
}
