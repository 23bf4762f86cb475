package main

import (
	"fmt"
	"io"

	"github.com/zhouzirui/quickchat/backend/internal/client"
	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
)

// renderer prints entries it has not printed yet. The list only grows, so
// the printed count is enough to find new entries.
type renderer struct {
	out     io.Writer
	printed int
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) render(snap client.Snapshot) {
	for _, entry := range snap.Entries[r.printed:] {
		prefix := "you"
		if entry.Sender == chat.SenderBot {
			prefix = "bot"
		}
		fmt.Fprintf(r.out, "%s> %s\n", prefix, entry.Text)
	}
	r.printed = len(snap.Entries)
}
