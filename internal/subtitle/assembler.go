package subtitle

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Assembler orders cues by start time and renumbers them into a track.
type Assembler struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
}

func NewAssembler() *Assembler {
	return &Assembler{
		MaxCharsPerLine: 42, // standard subtitle line length
		MaxLinesPerSub:  2,
	}
}

// Assemble sorts cues ascending by start time, breaking ties by the
// filename ordering hint and then lexically by name, and assigns sequence
// numbers from 1. Arrival order of the cues never influences the output.
// An empty cue set yields an empty, well-formed track.
func (a *Assembler) Assemble(cues []Cue) *Subtitle {
	ordered := make([]Cue, len(cues))
	copy(ordered, cues)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartTime != ordered[j].StartTime {
			return ordered[i].StartTime < ordered[j].StartTime
		}
		if ordered[i].Hint != ordered[j].Hint {
			return ordered[i].Hint < ordered[j].Hint
		}
		return ordered[i].Name < ordered[j].Name
	})

	entries := make([]Entry, 0, len(ordered))
	for _, cue := range ordered {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Index:     len(entries) + 1,
			StartTime: cue.StartTime,
			EndTime:   cue.EndTime,
			Text:      a.formatText(text),
		})
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}
}

// formatText wraps a single long line into two lines near the middle.
// Text that already spans multiple lines is kept as recognized.
func (a *Assembler) formatText(text string) string {
	if strings.Contains(text, "\n") {
		return text
	}

	runeCount := utf8.RuneCountInString(text)
	if runeCount <= a.MaxCharsPerLine {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	// find the split point closest to the middle
	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		line1 := strings.Join(words[:bestSplit], " ")
		line2 := strings.Join(words[bestSplit:], " ")
		return line1 + "\n" + line2
	}

	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
