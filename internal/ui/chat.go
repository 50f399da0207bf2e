package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// assistantName is how the chat assistant is presented to reviewers.
const assistantName = "Elyon"

type chatPanel struct {
	v          *reportView
	root       *tview.Flex
	transcript *tview.TextView
	estimate   *tview.TextView
	input      *tview.InputField

	// suggestion is the most recent answer offered as a report section.
	suggestion *assistant.Suggestion
}

func newChatPanel(v *reportView) *chatPanel {
	c := &chatPanel{v: v}

	c.transcript = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	c.transcript.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", assistantName)).SetTitleAlign(tview.AlignLeft)

	c.estimate = tview.NewTextView().SetDynamicColors(true)

	c.input = tview.NewInputField().
		SetLabel("Ask: ").
		SetFieldWidth(0).
		SetPlaceholder("e.g. summarize the billing")
	c.input.SetChangedFunc(func(text string) {
		c.estimate.SetText(fmt.Sprintf("[%s]Est:[-] %d tok", v.theme().TagMuted, assistant.EstimateTokens(text)))
	})
	c.input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if c.submit(c.input.GetText()) {
				c.input.SetText("")
			}
		case tcell.KeyEsc, tcell.KeyTab, tcell.KeyBacktab:
			v.focusTab()
		}
	})

	c.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.transcript, 0, 1, false).
		AddItem(c.estimate, 1, 0, false).
		AddItem(c.input, 1, 0, true)
	c.render()
	return c
}

func (c *chatPanel) applyTheme() {
	t := c.v.theme()
	t.styleText(c.transcript)
	c.estimate.SetBackgroundColor(t.Surface)
	c.input.SetBackgroundColor(t.Surface)
	c.input.SetLabelColor(t.Accent)
	c.input.SetFieldBackgroundColor(t.SelectionBg)
	c.input.SetFieldTextColor(t.TextPrimary)
	c.render()
}

// submit sends a question about the report on screen. The answer arrives
// asynchronously and is dropped if the reviewer has moved to another claim
// or cleared the chat in the meantime.
func (c *chatPanel) submit(text string) bool {
	ui := c.v.ui
	conv := ui.conv
	if strings.TrimSpace(text) == "" {
		return false
	}
	if conv.Pending() {
		ui.setStatus("[%s]%s is still answering[-]", c.v.theme().TagWarning, assistantName)
		return false
	}
	rep := c.v.rep
	q, ticket, ok := conv.Begin(text)
	if !ok {
		return false
	}
	q.Context = assistant.BuildReportContext(rep.Claim, rep.Title, rep.Data())
	c.render()
	ui.setStatus("%s is thinking...", assistantName)

	bridge := ui.deps.Assistant
	go func() {
		reply := bridge.Reply(ui.ctx, q)
		ui.queue(func() { c.deliver(ticket, q, reply) })
	}()
	return true
}

// deliver applies a reply if its ticket is still current.
func (c *chatPanel) deliver(ticket assistant.Ticket, q assistant.Question, reply assistant.Reply) {
	ui := c.v.ui
	if !ui.conv.Complete(ticket, reply) {
		ui.logger.Printf("dropping stale reply for claim %s", ticket.ClaimID)
		return
	}
	provider := ui.deps.Assistant.Provider().Name()
	if err := ui.deps.Store.LogAssistantQuery(ui.ctx, ticket.ClaimID, ui.deps.Actor, provider,
		q.Text, reply.Text, reply.TokensEst, reply.Failed); err != nil {
		ui.logger.Printf("audit assistant query: %v", err)
	}

	// The reply may belong to a view that has since been replaced by the
	// same claim reopened; render into whichever view is current.
	target := c
	if ui.report != nil && ui.report.rep.Claim.ID == ticket.ClaimID {
		target = ui.report.chat
	}
	target.suggestion = reply.Suggestion
	target.render()

	switch {
	case reply.Failed:
		ui.setStatus("[%s]%s could not answer[-]", ui.theme.TagError, assistantName)
	case reply.Suggestion != nil:
		ui.setStatus("[%s]Press i to insert %q into the report[-]", ui.theme.TagAccent, reply.Suggestion.Title)
	default:
		ui.setStatus("%s answered (~%d tokens)", assistantName, reply.TokensEst)
	}
}

// insertSuggestion adds the last offered analysis to the report.
func (c *chatPanel) insertSuggestion() {
	ui := c.v.ui
	s := c.suggestion
	if s == nil {
		ui.setStatus("No analysis to insert")
		return
	}
	sec := c.v.rep.InsertSection(s.Title, s.Markdown)
	if err := ui.deps.Store.LogClaimAction(ui.ctx, c.v.rep.Claim.ID, store.ActionSectionInsert, ui.deps.Actor,
		map[string]interface{}{"title": sec.Title}); err != nil {
		ui.logger.Printf("audit section insert: %v", err)
	}
	c.suggestion = nil
	c.v.renderDocument()
	c.render()
	ui.setStatus("[%s]Inserted %q[-]", ui.theme.TagSuccess, sec.Title)
}

func (c *chatPanel) clear() {
	c.v.ui.conv.Clear()
	c.suggestion = nil
	c.render()
	c.v.ui.setStatus("Chat cleared")
}

func (c *chatPanel) render() {
	t := c.v.theme()
	msgs := c.v.ui.conv.Messages()
	var b strings.Builder
	if len(msgs) == 0 {
		fmt.Fprintf(&b, "[%s]Ask %s about the timeline, billing, causation or risk in this report.[-]\n", t.TagMuted, assistantName)
	}
	for _, m := range msgs {
		ts := m.Timestamp.Local().Format("15:04")
		switch {
		case m.Role == "user":
			fmt.Fprintf(&b, "[%s]%s You:[-]\n%s\n\n", t.TagAccent, ts, tview.Escape(m.Content))
		case m.Failed:
			fmt.Fprintf(&b, "[%s]%s %s:[-]\n%s\n\n", t.TagError, ts, assistantName, tview.Escape(m.Content))
		default:
			fmt.Fprintf(&b, "[%s]%s %s:[-]\n%s\n", t.TagSuccess, ts, assistantName, tview.Escape(m.Content))
			if m.Suggestion != nil {
				fmt.Fprintf(&b, "[%s](i) insert as section: %s[-]\n", t.TagMuted, tview.Escape(m.Suggestion.Title))
			}
			b.WriteString("\n")
		}
	}
	if c.v.ui.conv.Pending() {
		fmt.Fprintf(&b, "[%s]%s is thinking...[-]\n", t.TagMuted, assistantName)
	}
	c.transcript.SetText(b.String())
	c.transcript.ScrollToEnd()
}
