package parser

import (
	"fmt"
	"strings"
)

// Frame is one open block on the stack.
type Frame struct {
	Kind      string
	Line      int // 1-based line of the opener
	Col       int // 1-based column of the opener keyword
	Heuristic bool
}

// Stack tracks open blocks. The bottom frame is always ROOT and is never
// popped, so Depth is len(frames)-1.
type Stack struct {
	frames []Frame
}

// NewStack returns a stack holding only ROOT.
func NewStack() *Stack {
	return &Stack{frames: []Frame{{Kind: KindROOT}}}
}

// Push opens a block.
func (s *Stack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop closes the innermost block. It reports false, leaving the stack
// untouched, when only ROOT is left.
func (s *Stack) Pop() (Frame, bool) {
	if len(s.frames) <= 1 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Depth is the number of open blocks.
func (s *Stack) Depth() int {
	return len(s.frames) - 1
}

// Top returns the innermost frame (ROOT when empty).
func (s *Stack) Top() Frame {
	return s.frames[len(s.frames)-1]
}

// Parent returns the kind of the innermost open block, or ROOT.
func (s *Stack) Parent() string {
	return s.Top().Kind
}

// Contains reports whether a block of the given kind is open.
func (s *Stack) Contains(kind string) bool {
	for _, f := range s.frames[1:] {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Open returns the open frames, outermost first, without ROOT.
func (s *Stack) Open() []Frame {
	out := make([]Frame, len(s.frames)-1)
	copy(out, s.frames[1:])
	return out
}

// Realign prepares the stack for an END carrying a block-name hint. When a
// frame of that kind is open, every frame above it is discarded so the
// following Pop closes it. The discarded frames are returned innermost
// first; nothing changes when the hint is empty or matches no open frame.
func (s *Stack) Realign(hint string) []Frame {
	if hint == "" {
		return nil
	}
	for i := len(s.frames) - 1; i >= 1; i-- {
		if s.frames[i].Kind != hint {
			continue
		}
		var dropped []Frame
		for j := len(s.frames) - 1; j > i; j-- {
			dropped = append(dropped, s.frames[j])
		}
		s.frames = s.frames[:i+1]
		return dropped
	}
	return nil
}

// Chain renders the open blocks as "MAP(1) > LAYER(5)".
func (s *Stack) Chain() string {
	return FormatChain(s.Open())
}

// FormatChain renders frames as "MAP(1) > LAYER(5)".
func FormatChain(frames []Frame) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = fmt.Sprintf("%s(%d)", f.Kind, f.Line)
	}
	return strings.Join(parts, " > ")
}
