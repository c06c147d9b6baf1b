package main

import (
	"estate-desk/domain"
	"estate-desk/runtime"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var _ runtime.View = (*terminalView)(nil)

// terminalView prints every refresh as a table.
type terminalView struct {
	mu      sync.Mutex
	out     io.Writer
	self    string
	colours bool
	last    []domain.Conversation
}

func newTerminalView(out io.Writer, self string, colours bool) *terminalView {
	return &terminalView{out: out, self: domain.NormalizeEmail(self), colours: colours}
}

func (v *terminalView) ShowConversations(conversations []domain.Conversation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = conversations

	table := v.table([]string{"#", "With", "Property", "Last message", "Unread"})
	for i, c := range conversations {
		unread := strconv.Itoa(c.UnreadCount)
		if c.UnreadCount > 0 {
			unread = v.paint(unread, color.FgYellow, color.OpBold)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%s <%s>", c.Participant.DisplayName, c.Participant.Email),
			fmt.Sprintf("%s (%s)", c.Property.Title, c.Property.ID),
			excerpt(c.LastMessage.Content, 40),
			unread,
		})
	}
	fmt.Fprintln(v.out, v.paint("== Conversations ==", color.BgBlack, color.FgGreen))
	table.Render()
}

// conversation returns the nth row of the last printed list, starting at 1.
func (v *terminalView) conversation(n int) (domain.Conversation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n < 1 || n > len(v.last) {
		return domain.Conversation{}, false
	}
	return v.last[n-1], true
}

func (v *terminalView) ShowMessages(selection domain.Selection, messages []domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	table := v.table([]string{"At", "From", "Message"})
	for _, m := range messages {
		from := m.SenderEmail
		if m.SenderEmail == v.self {
			from = "me"
			if m.Read {
				from = "me (read)"
			}
		}
		table.Append([]string{m.SentAt.Local().Format("02 Jan 15:04"), from, m.Content})
	}
	header := fmt.Sprintf("== %s about %s ==", selection.Other, selection.PropertyID)
	fmt.Fprintln(v.out, v.paint(header, color.BgBlack, color.FgCyan))
	table.Render()
}

func (v *terminalView) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, v.paint("! "+err.Error(), color.FgRed))
}

func (v *terminalView) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(v.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func (v *terminalView) paint(s string, styles ...color.Color) string {
	if !v.colours {
		return s
	}
	return color.New(styles...).Render(s)
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
