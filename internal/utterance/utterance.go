// Package utterance holds the linguistic structure a synthesis request is
// built from: a linear segment sequence grouped into syllables, words and
// phrases, with typed structural queries over it.
package utterance

import "golang.org/x/text/unicode/norm"

// NoSyllable marks a segment that belongs to no syllable (pauses, silences).
const NoSyllable = -1

type Segment struct {
	Name     string
	Syllable int
}

type Syllable struct {
	Word int
}

type Word struct {
	Name   string
	Phrase int
}

type Phrase struct {
	Name string
}

// Utterance is an index-based arena of segments and their enclosing groups.
// It is immutable once returned by New.
type Utterance struct {
	segments  []Segment
	syllables []Syllable
	words     []Word
	phrases   []Phrase

	sylSegments   [][]int
	wordSyllables [][]int
	phraseWords   [][]int
}

// New validates the structure and indexes group membership. Group members
// are ordered by their position in the parent slice.
func New(segments []Segment, syllables []Syllable, words []Word, phrases []Phrase) (*Utterance, error) {
	u := &Utterance{
		segments:      append([]Segment(nil), segments...),
		syllables:     append([]Syllable(nil), syllables...),
		words:         append([]Word(nil), words...),
		phrases:       append([]Phrase(nil), phrases...),
		sylSegments:   make([][]int, len(syllables)),
		wordSyllables: make([][]int, len(words)),
		phraseWords:   make([][]int, len(phrases)),
	}
	u.normalizeNames()
	if err := u.index(); err != nil {
		return nil, err
	}
	return u, nil
}

// normalizeNames stores every name in NFC so lookups match catalogue keys.
func (u *Utterance) normalizeNames() {
	for i := range u.segments {
		u.segments[i].Name = norm.NFC.String(u.segments[i].Name)
	}
	for i := range u.words {
		u.words[i].Name = norm.NFC.String(u.words[i].Name)
	}
	for i := range u.phrases {
		u.phrases[i].Name = norm.NFC.String(u.phrases[i].Name)
	}
}

func (u *Utterance) index() error {
	for wi, w := range u.words {
		if w.Name == "" {
			return malformed(-1, "", "word %d has no name", wi)
		}
		if w.Phrase < 0 || w.Phrase >= len(u.phrases) {
			return malformed(-1, w.Name, "word %d references phrase %d of %d", wi, w.Phrase, len(u.phrases))
		}
		u.phraseWords[w.Phrase] = append(u.phraseWords[w.Phrase], wi)
	}
	for si, s := range u.syllables {
		if s.Word < 0 || s.Word >= len(u.words) {
			return malformed(-1, "", "syllable %d references word %d of %d", si, s.Word, len(u.words))
		}
		u.wordSyllables[s.Word] = append(u.wordSyllables[s.Word], si)
	}
	for i, seg := range u.segments {
		if seg.Name == "" {
			return malformed(i, "", "empty segment name")
		}
		if seg.Syllable == NoSyllable {
			continue
		}
		if seg.Syllable < 0 || seg.Syllable >= len(u.syllables) {
			return malformed(i, seg.Name, "references syllable %d of %d", seg.Syllable, len(u.syllables))
		}
		u.sylSegments[seg.Syllable] = append(u.sylSegments[seg.Syllable], i)
	}
	for si, members := range u.sylSegments {
		if len(members) == 0 {
			return malformed(-1, "", "syllable %d has no segments", si)
		}
	}
	return nil
}

func (u *Utterance) NumSegments() int { return len(u.segments) }

func (u *Utterance) NumWords() int { return len(u.words) }

func (u *Utterance) Segment(i int) Segment { return u.segments[i] }

func (u *Utterance) Word(i int) Word { return u.words[i] }

func (u *Utterance) Segments() []Segment { return append([]Segment(nil), u.segments...) }

// PrevSegmentName returns the name of the segment before i, or "" at the
// start of the utterance.
func (u *Utterance) PrevSegmentName(i int) string {
	if i <= 0 || i > len(u.segments) {
		return ""
	}
	return u.segments[i-1].Name
}

// NextSegmentName returns the name of the segment after i, or "" at the end
// of the utterance.
func (u *Utterance) NextSegmentName(i int) string {
	if i < -1 || i+1 >= len(u.segments) {
		return ""
	}
	return u.segments[i+1].Name
}

// SegmentWord returns the index of the word enclosing segment i.
func (u *Utterance) SegmentWord(i int) (int, bool) {
	syl := u.segments[i].Syllable
	if syl == NoSyllable {
		return 0, false
	}
	return u.syllables[syl].Word, true
}

// NumSyllablesInWord is the syllable count of the word enclosing segment i,
// or 0 when the segment is outside any word.
func (u *Utterance) NumSyllablesInWord(i int) int {
	w, ok := u.SegmentWord(i)
	if !ok {
		return 0
	}
	return len(u.wordSyllables[w])
}

// SyllablePosition is the position of segment i within its syllable.
func (u *Utterance) SyllablePosition(i int) Position {
	syl := u.segments[i].Syllable
	if syl == NoSyllable {
		return Undefined
	}
	return positionOf(u.sylSegments[syl], i)
}

// WordPosition is the position of the syllable enclosing segment i within
// its word.
func (u *Utterance) WordPosition(i int) Position {
	syl := u.segments[i].Syllable
	if syl == NoSyllable {
		return Undefined
	}
	return positionOf(u.wordSyllables[u.syllables[syl].Word], syl)
}

// PhrasePosition is the position of the word enclosing segment i within its
// phrase.
func (u *Utterance) PhrasePosition(i int) Position {
	w, ok := u.SegmentWord(i)
	if !ok {
		return Undefined
	}
	return positionOf(u.phraseWords[u.words[w].Phrase], w)
}

// PrevWordName returns the name of the word before w, or "".
func (u *Utterance) PrevWordName(w int) string {
	if w <= 0 || w > len(u.words) {
		return ""
	}
	return u.words[w-1].Name
}

// NextWordName returns the name of the word after w, or "".
func (u *Utterance) NextWordName(w int) string {
	if w < -1 || w+1 >= len(u.words) {
		return ""
	}
	return u.words[w+1].Name
}
