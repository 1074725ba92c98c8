package tui

import (
	"strings"
	"sync"

	"github.com/codefionn/bbqterm/internal/consts"
)

// Every update rebuilds the whole frame, so the builders are pooled.
var frameBuilders = sync.Pool{
	New: func() any {
		b := new(strings.Builder)
		b.Grow(consts.BufferSize1KB * 4)
		return b
	},
}

// Builders that grew past this are left to the garbage collector.
const maxPooledBuilder = consts.BufferSize256KB

func acquireBuilder() *strings.Builder {
	b := frameBuilders.Get().(*strings.Builder)
	b.Reset()
	return b
}

// builderString returns a copy of the contents and hands b back to the pool.
// b must not be used afterwards.
func builderString(b *strings.Builder) string {
	s := strings.Clone(b.String())
	if b.Cap() <= maxPooledBuilder {
		b.Reset()
		frameBuilders.Put(b)
	}
	return s
}
