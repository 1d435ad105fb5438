package training

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/text"
	"gopkg.in/yaml.v3"
)

// Score is the word-level form of a weight entry, before word IDs exist.
// A zero Weight in an override means "keep the derived weight".
type Score struct {
	Weight   uint32   `yaml:"weight"`
	Synonyms []string `yaml:"synonyms,omitempty,flow"`
}

// ScoreTable maps words to scores.
type ScoreTable map[string]Score

// Words returns the words of the table in sorted order.
func (t ScoreTable) Words() []string {
	words := make([]string, 0, len(t))
	for w := range t {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// scoreDoc accepts both the long field names and the short "s"/"a" names of
// older score files.
type scoreDoc struct {
	Weight   *int     `yaml:"weight"`
	S        *int     `yaml:"s"`
	Synonyms []string `yaml:"synonyms"`
	A        []string `yaml:"a"`
}

// LoadOverrides reads a weight override file. See ParseOverrides.
func LoadOverrides(path string) (ScoreTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading overrides %s: %w", core.ErrConfiguration, path, err)
	}
	table, err := ParseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("overrides %s: %w", path, err)
	}
	return table, nil
}

// ParseOverrides parses a YAML (or JSON) mapping of word to
// {weight: n, synonyms: [...]}. Words and synonyms are normalized with the
// question tokenizer and must each be a single token. Self-synonyms are dropped.
func ParseOverrides(data []byte) (ScoreTable, error) {
	var docs map[string]scoreDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}

	raws := make([]string, 0, len(docs))
	for raw := range docs {
		raws = append(raws, raw)
	}
	slices.Sort(raws)

	table := make(ScoreTable, len(docs))
	for _, raw := range raws {
		doc := docs[raw]
		word, err := singleToken(raw)
		if err != nil {
			return nil, err
		}

		var score Score
		weight := doc.Weight
		if weight == nil {
			weight = doc.S
		}
		if weight != nil {
			if *weight < 1 {
				return nil, fmt.Errorf("%w: %q: %w", core.ErrData, raw, core.ErrInvalidWeight)
			}
			score.Weight = uint32(*weight)
		}

		for _, rawSyn := range append(doc.Synonyms, doc.A...) {
			syn, err := singleToken(rawSyn)
			if err != nil {
				return nil, err
			}
			if syn != word && !slices.Contains(score.Synonyms, syn) {
				score.Synonyms = append(score.Synonyms, syn)
			}
		}

		existing, ok := table[word]
		if ok {
			score = mergeScores(existing, score)
		}
		table[word] = score
	}
	return table, nil
}

// WriteScores writes a score table in the override format, sorted by word.
func WriteScores(w io.Writer, table ScoreTable) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, word := range table.Words() {
		var value yaml.Node
		if err := value.Encode(table[word]); err != nil {
			return err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: word},
			&value,
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

func mergeScores(a, b Score) Score {
	if b.Weight != 0 {
		a.Weight = b.Weight
	}
	for _, syn := range b.Synonyms {
		if !slices.Contains(a.Synonyms, syn) {
			a.Synonyms = append(a.Synonyms, syn)
		}
	}
	return a
}

func singleToken(raw string) (string, error) {
	tokens := text.Question(raw)
	if len(tokens) != 1 {
		return "", fmt.Errorf("%w: override word %q must be exactly one word", core.ErrData, raw)
	}
	return tokens[0], nil
}

// ScoresFromSnapshot converts a snapshot's weight table back to its word-level
// form, suitable for WriteScores.
func ScoresFromSnapshot(s *core.Snapshot) ScoreTable {
	table := make(ScoreTable, s.Weights.Len())
	for _, id := range s.Weights.IDs() {
		entry := s.Weights.Get(id)
		score := Score{Weight: entry.Weight}
		for _, syn := range entry.Synonyms {
			score.Synonyms = append(score.Synonyms, s.Vocabulary.Word(syn))
		}
		table[s.Vocabulary.Word(id)] = score
	}
	return table
}
