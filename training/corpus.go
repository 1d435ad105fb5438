package training

import (
	"fmt"
	"os"

	"github.com/poiesic/chatter/core"
	"gopkg.in/yaml.v3"
)

// Pair is one raw question/answer pair.
type Pair struct {
	Question string
	Answer   string
}

// Corpus is an ordered set of question/answer pairs with unique questions.
// The order is the order of first appearance in the source file and decides
// tie-breaks at match time.
type Corpus struct {
	pairs []Pair
	index map[string]int
}

// NewCorpus builds a corpus from pairs. A repeated question keeps its first
// position and takes the last answer.
func NewCorpus(pairs ...Pair) *Corpus {
	c := &Corpus{index: make(map[string]int, len(pairs))}
	for _, p := range pairs {
		c.Add(p.Question, p.Answer)
	}
	return c
}

// Add appends a pair, or replaces the answer if the question is already present.
func (c *Corpus) Add(question, answer string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[question]; ok {
		c.pairs[i].Answer = answer
		return
	}
	c.index[question] = len(c.pairs)
	c.pairs = append(c.pairs, Pair{Question: question, Answer: answer})
}

// Pairs returns the pairs in order. The returned slice must not be modified.
func (c *Corpus) Pairs() []Pair {
	return c.pairs
}

// Len returns the number of pairs.
func (c *Corpus) Len() int {
	return len(c.pairs)
}

// LoadCorpus reads a corpus file. See ParseCorpus for the format.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading corpus %s: %w", core.ErrConfiguration, path, err)
	}
	corpus, err := ParseCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return corpus, nil
}

// ParseCorpus parses a YAML mapping of question text to answer text.
// JSON objects are accepted as they are valid YAML. Key order is preserved.
func ParseCorpus(data []byte) (*Corpus, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", core.ErrConfiguration)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: corpus must be a mapping of question to answer (line %d)",
			core.ErrConfiguration, root.Line)
	}

	corpus := NewCorpus()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		question, err := scalarString(key)
		if err != nil {
			return nil, fmt.Errorf("%w: question at line %d: %w", core.ErrConfiguration, key.Line, err)
		}
		answer, err := scalarString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: answer to %q at line %d: %w", core.ErrConfiguration, question, value.Line, err)
		}
		corpus.Add(question, answer)
	}
	return corpus, nil
}

func scalarString(n *yaml.Node) (string, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected text, found %s", kindName(n.Kind))
	}
	if n.Tag == "!!null" {
		return "", fmt.Errorf("expected text, found null")
	}
	return n.Value, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
