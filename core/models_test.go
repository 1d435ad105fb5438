package core

import (
	"errors"
	"slices"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("content1") == IDFromContent("content2") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNewVocabulary(t *testing.T) {
	t.Run("bijective mapping", func(t *testing.T) {
		words := []string{"!", ".", "?", "hello", "there"}
		v, err := NewVocabulary(words)
		if err != nil {
			t.Fatalf("NewVocabulary() error = %v", err)
		}
		if v.Len() != len(words) {
			t.Fatalf("Len() = %d, want %d", v.Len(), len(words))
		}
		for i, w := range words {
			id, ok := v.Lookup(w)
			if !ok || id != WordID(i) {
				t.Errorf("Lookup(%q) = %d, %v; want %d, true", w, id, ok, i)
			}
			if got := v.Word(WordID(i)); got != w {
				t.Errorf("Word(%d) = %q, want %q", i, got, w)
			}
		}
	})

	t.Run("duplicate token", func(t *testing.T) {
		_, err := NewVocabulary([]string{"a", "b", "a"})
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("NewVocabulary() error = %v, want ErrInvalidSnapshot", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := NewVocabulary([]string{"a", ""})
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("NewVocabulary() error = %v, want ErrInvalidSnapshot", err)
		}
	})

	t.Run("input is copied", func(t *testing.T) {
		words := []string{"a", "b"}
		v, _ := NewVocabulary(words)
		words[0] = "z"
		if v.Word(0) != "a" {
			t.Errorf("vocabulary changed after caller mutated input")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		v, _ := NewVocabulary([]string{"a"})
		if _, ok := v.Lookup("b"); ok {
			t.Errorf("Lookup(b) found a token that does not exist")
		}
		if v.Contains(1) {
			t.Errorf("Contains(1) = true for vocabulary of one")
		}
	})
}

func TestWeightTable_Get(t *testing.T) {
	table := NewWeightTable(map[WordID]WeightEntry{
		3: {Weight: 500, Synonyms: []WordID{4, 5}},
	})

	stored := table.Get(3)
	if stored.Weight != 500 || !slices.Equal(stored.Synonyms, []WordID{4, 5}) {
		t.Errorf("Get(3) = %+v", stored)
	}

	missing := table.Get(9)
	if missing.Weight != 1 || len(missing.Synonyms) != 0 {
		t.Errorf("Get(9) = %+v, want default entry", missing)
	}
	if _, ok := table.Lookup(9); ok {
		t.Errorf("Lookup(9) reported a stored entry")
	}
	if table.Weight(9) != DefaultWeight {
		t.Errorf("Weight(9) = %d, want %d", table.Weight(9), DefaultWeight)
	}
}

func TestWeightTable_ReturnsCopies(t *testing.T) {
	table := NewWeightTable(map[WordID]WeightEntry{
		3: {Weight: 500, Synonyms: []WordID{4, 5}},
	})

	got := table.Get(3)
	got.Synonyms[0] = 99
	looked, _ := table.Lookup(3)
	looked.Synonyms[1] = 98

	if again := table.Get(3); !slices.Equal(again.Synonyms, []WordID{4, 5}) {
		t.Errorf("table changed through a returned entry: %v", again.Synonyms)
	}
}

func TestWeightTable_IDsSorted(t *testing.T) {
	table := NewWeightTable(map[WordID]WeightEntry{
		7: {Weight: 1}, 2: {Weight: 1}, 5: {Weight: 1},
	})
	if got := table.IDs(); !slices.Equal(got, []WordID{2, 5, 7}) {
		t.Errorf("IDs() = %v", got)
	}
}

func TestKnowledgeBase_Put(t *testing.T) {
	kb := NewKnowledgeBase()

	if replaced := kb.Put([]WordID{1, 2}, []WordID{9}); replaced {
		t.Errorf("first Put reported a replacement")
	}
	kb.Put([]WordID{3}, []WordID{8})

	// re-inserting a key keeps its position and replaces the answer
	if replaced := kb.Put([]WordID{1, 2}, []WordID{7}); !replaced {
		t.Errorf("second Put of same key did not report a replacement")
	}

	if kb.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", kb.Len())
	}
	entries := kb.Entries()
	if !slices.Equal(entries[0].Question, []WordID{1, 2}) || !slices.Equal(entries[0].Answer, []WordID{7}) {
		t.Errorf("entries[0] = %+v", entries[0])
	}

	answer, ok := kb.Answer([]WordID{3})
	if !ok || !slices.Equal(answer, []WordID{8}) {
		t.Errorf("Answer([3]) = %v, %v", answer, ok)
	}

	// order matters for keys
	if _, ok := kb.Answer([]WordID{2, 1}); ok {
		t.Errorf("Answer([2 1]) matched key [1 2]")
	}
}

func TestFingerprint(t *testing.T) {
	build := func(answer WordID) ID {
		v, _ := NewVocabulary([]string{"!", ".", "?", "hi"})
		w := NewWeightTable(map[WordID]WeightEntry{3: {Weight: 1000}})
		kb := NewKnowledgeBase()
		kb.Put([]WordID{3}, []WordID{3, answer})
		return Fingerprint(v, w, kb)
	}

	if build(0) != build(0) {
		t.Errorf("Fingerprint() not deterministic")
	}
	if build(0) == build(1) {
		t.Errorf("Fingerprint() ignored knowledge base contents")
	}
}
