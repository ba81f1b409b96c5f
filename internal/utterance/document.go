package utterance

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the serialized utterance form accepted by the CLI and the HTTP
// server. JSON input decodes through the same YAML decoder.
type Document struct {
	Segments  []SegmentDoc  `json:"segments" yaml:"segments"`
	Syllables []SyllableDoc `json:"syllables,omitempty" yaml:"syllables,omitempty"`
	Words     []WordDoc     `json:"words,omitempty" yaml:"words,omitempty"`
	Phrases   []PhraseDoc   `json:"phrases,omitempty" yaml:"phrases,omitempty"`
}

type SegmentDoc struct {
	Name     string `json:"name" yaml:"name"`
	Syllable *int   `json:"syllable,omitempty" yaml:"syllable,omitempty"`
}

type SyllableDoc struct {
	Word int `json:"word" yaml:"word"`
}

type WordDoc struct {
	Name   string `json:"name" yaml:"name"`
	Phrase int    `json:"phrase" yaml:"phrase"`
}

type PhraseDoc struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Utterance converts the document to a validated Utterance.
func (d *Document) Utterance() (*Utterance, error) {
	segs := make([]Segment, len(d.Segments))
	for i, s := range d.Segments {
		segs[i] = Segment{Name: s.Name, Syllable: NoSyllable}
		if s.Syllable != nil {
			segs[i].Syllable = *s.Syllable
		}
	}
	syls := make([]Syllable, len(d.Syllables))
	for i, s := range d.Syllables {
		syls[i] = Syllable(s)
	}
	words := make([]Word, len(d.Words))
	for i, w := range d.Words {
		words[i] = Word(w)
	}
	phrases := make([]Phrase, len(d.Phrases))
	for i, p := range d.Phrases {
		phrases[i] = Phrase(p)
	}
	return New(segs, syls, words, phrases)
}

// Document returns the serializable form of u.
func (u *Utterance) Document() *Document {
	d := &Document{
		Segments:  make([]SegmentDoc, len(u.segments)),
		Syllables: make([]SyllableDoc, len(u.syllables)),
		Words:     make([]WordDoc, len(u.words)),
		Phrases:   make([]PhraseDoc, len(u.phrases)),
	}
	for i, s := range u.segments {
		d.Segments[i].Name = s.Name
		if s.Syllable != NoSyllable {
			syl := s.Syllable
			d.Segments[i].Syllable = &syl
		}
	}
	for i, s := range u.syllables {
		d.Syllables[i] = SyllableDoc(s)
	}
	for i, w := range u.words {
		d.Words[i] = WordDoc(w)
	}
	for i, p := range u.phrases {
		d.Phrases[i] = PhraseDoc(p)
	}
	return d
}

// Decode reads one JSON or YAML utterance document from r.
func Decode(r io.Reader) (*Utterance, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed(-1, "", "empty document")
		}
		return nil, fmt.Errorf("decode utterance: %w: %w", ErrSyntax, err)
	}
	return doc.Utterance()
}

// ReadFile decodes the utterance document at path.
func ReadFile(path string) (*Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open utterance: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
