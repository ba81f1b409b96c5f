package utterance

// WordSpec describes one word for the Builder: its name and its syllables,
// each syllable given as its segment names.
type WordSpec struct {
	Name      string
	Syllables [][]string
}

// W is shorthand for a WordSpec literal.
func W(name string, syllables ...[]string) WordSpec {
	return WordSpec{Name: name, Syllables: syllables}
}

// Builder assembles an Utterance phrase by phrase. Segments outside any
// syllable are added with Pause.
type Builder struct {
	segments  []Segment
	syllables []Syllable
	words     []Word
	phrases   []Phrase
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Pause appends a segment that belongs to no syllable.
func (b *Builder) Pause(name string) *Builder {
	b.segments = append(b.segments, Segment{Name: name, Syllable: NoSyllable})
	return b
}

// Phrase appends a phrase holding the given words.
func (b *Builder) Phrase(name string, words ...WordSpec) *Builder {
	pi := len(b.phrases)
	b.phrases = append(b.phrases, Phrase{Name: name})
	for _, w := range words {
		wi := len(b.words)
		b.words = append(b.words, Word{Name: w.Name, Phrase: pi})
		for _, syl := range w.Syllables {
			si := len(b.syllables)
			b.syllables = append(b.syllables, Syllable{Word: wi})
			for _, seg := range syl {
				b.segments = append(b.segments, Segment{Name: seg, Syllable: si})
			}
		}
	}
	return b
}

func (b *Builder) Build() (*Utterance, error) {
	return New(b.segments, b.syllables, b.words, b.phrases)
}
