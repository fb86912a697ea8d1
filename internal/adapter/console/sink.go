// Package console writes sink output to a terminal.
package console

import (
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

// Sink writes each pushed line to w. Error lines are red, success lines
// green and batch banners bold; everything else is written as is.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	err *color.Color
	ok  *color.Color
	hdr *color.Color
}

var _ port.Sink = (*Sink)(nil)

// New returns a sink writing to w. Colour follows color.NoColor unless
// plain is set.
func New(w io.Writer, plain bool) *Sink {
	s := &Sink{
		w:   w,
		err: color.New(color.FgRed),
		ok:  color.New(color.FgGreen),
		hdr: color.New(color.Bold),
	}
	if plain {
		s.err.DisableColor()
		s.ok.DisableColor()
		s.hdr.DisableColor()
	}
	return s
}

func (s *Sink) Push(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	switch classify(line) {
	case lineError:
		_, _ = s.err.Fprint(s.w, line)
	case lineOK:
		_, _ = s.ok.Fprint(s.w, line)
	case lineHeader:
		_, _ = s.hdr.Fprint(s.w, line)
	default:
		_, _ = io.WriteString(s.w, line)
	}
}

type lineKind int

const (
	linePlain lineKind = iota
	lineError
	lineOK
	lineHeader
)

func classify(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "Error"):
		return lineError
	case strings.HasPrefix(line, "-----"):
		return lineHeader
	case strings.HasPrefix(line, "Added record"),
		strings.HasPrefix(line, "Modified record"),
		strings.HasPrefix(line, "Removed record"),
		strings.HasSuffix(strings.TrimSpace(line), "successfully."):
		return lineOK
	}
	return linePlain
}
