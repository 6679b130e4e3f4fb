package subtitle

import (
	"time"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Entries []Entry
	Format  string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Cue is one recognized text with its timestamp window, before ordering and
// numbering are applied. Hint and Name exist only to break timestamp ties
// deterministically.
type Cue struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
	Hint      int
	Name      string
}

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}
