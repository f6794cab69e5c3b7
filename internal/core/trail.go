// trail.go - tracks the current relative path for diagnostics only;
// never consulted for syscalls (those always go through a dirHandle +
// leaf name pair).
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

//go:build linux

package core

import "strings"

// pathTrail accumulates the relative path of the entry currently
// being visited. It grows as needed; a truncated diagnostic path is
// strictly worse than a slightly larger buffer.
type pathTrail struct {
	b strings.Builder
}

// push appends "/name" to the trail and returns a frame that pop()
// uses to restore the previous state.
func (p *pathTrail) push(name string) int {
	frame := p.b.Len()
	p.b.WriteByte('/')
	p.b.WriteString(name)
	return frame
}

// pop restores the trail to the state captured by frame.
func (p *pathTrail) pop(frame int) {
	s := p.b.String()[:frame]
	p.b.Reset()
	p.b.WriteString(s)
}

func (p *pathTrail) String() string {
	if p.b.Len() == 0 {
		return "/"
	}
	return p.b.String()
}
