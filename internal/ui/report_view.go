package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/sections"
	"github.com/Ashfaaq98/claims-console/internal/store"
	"github.com/Ashfaaq98/claims-console/internal/timeline"
)

// trackerOffset plays the role of the sticky header compensation, in rows.
const trackerOffset = 3

const (
	tabDocument = iota
	tabTimeline
	tabBilling
)

var tabNames = []string{"Document", "Timeline", "Billing"}

// reportView is the report screen for one claim. Opening another claim
// builds a new view, so no state carries across claims.
type reportView struct {
	ui  *UI
	rep *report.Report

	layout   []sections.Section
	tracker  *sections.Tracker
	geometry sections.StaticGeometry
	lines    int
	scroll   int

	filters  timeline.Filters
	events   []report.MedicalEvent
	riskOnly bool
	bills    []report.BillItem
	tab      int

	root        *tview.Flex
	title       *tview.TextView
	tabBar      *tview.TextView
	sidebar     *tview.TreeView
	nodes       map[string]*tview.TreeNode
	doc         *tview.TextView
	timelineTbl *tview.Table
	billingSum  *tview.TextView
	billingTbl  *tview.Table
	billing     *tview.Flex
	tabs        *tview.Pages
	chat        *chatPanel
}

func newReportView(ui *UI, rep *report.Report) *reportView {
	v := &reportView{
		ui:     ui,
		rep:    rep,
		layout: sections.Layout(rep.Type, ui.deps.NextSteps),
		nodes:  make(map[string]*tview.TreeNode),
	}
	v.tracker = sections.NewTracker(v.layout, nil, trackerOffset)
	v.tracker.OnChange(func(string) { v.renderSidebar() })

	v.setupLayout()
	v.renderDocument()
	v.renderTimeline()
	v.renderBilling()
	v.applyTheme()
	return v
}

func (v *reportView) setupLayout() {
	v.title = tview.NewTextView().SetDynamicColors(true)
	v.tabBar = tview.NewTextView().SetDynamicColors(true)

	rootNode := tview.NewTreeNode("Contents")
	v.sidebar = tview.NewTreeView().SetRoot(rootNode).SetTopLevel(1)
	for _, s := range v.layout {
		n := tview.NewTreeNode(s.Title).SetReference(s.ID).SetSelectable(true)
		rootNode.AddChild(n)
		v.nodes[s.ID] = n
		for _, sub := range s.Subsections {
			child := tview.NewTreeNode(sub.Title).SetReference(sub.ID).SetSelectable(true)
			n.AddChild(child)
			if _, shared := v.nodes[sub.ID]; !shared {
				v.nodes[sub.ID] = child
			}
		}
	}
	v.sidebar.SetBorder(true).SetTitle(" Contents ").SetTitleAlign(tview.AlignLeft)
	v.sidebar.SetSelectedFunc(func(node *tview.TreeNode) {
		if id, ok := node.GetReference().(string); ok {
			v.jumpTo(id)
			v.ui.app.SetFocus(v.doc)
		}
	})

	v.doc = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	v.doc.SetBorder(true).SetTitleAlign(tview.AlignLeft)

	v.timelineTbl = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	v.timelineTbl.SetBorder(true).SetTitleAlign(tview.AlignLeft)
	v.timelineTbl.SetSelectedFunc(func(row, _ int) {
		if ev, ok := v.eventAt(row); ok {
			v.showEventEditor(ev)
		}
	})

	v.billingSum = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	v.billingSum.SetBorder(true).SetTitle(" Billing Summary ").SetTitleAlign(tview.AlignLeft)
	v.billingTbl = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	v.billingTbl.SetBorder(true).SetTitleAlign(tview.AlignLeft)
	v.billing = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.billingSum, 0, 2, false).
		AddItem(v.billingTbl, 0, 3, true)

	v.tabs = tview.NewPages()
	v.tabs.AddPage("document", v.doc, true, true)
	v.tabs.AddPage("timeline", v.timelineTbl, true, false)
	v.tabs.AddPage("billing", v.billing, true, false)

	v.chat = newChatPanel(v)

	center := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.tabBar, 1, 0, false).
		AddItem(v.tabs, 0, 1, true)
	main := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(v.sidebar, 34, 0, false).
		AddItem(center, 0, 1, true).
		AddItem(v.chat.root, 48, 0, false)
	v.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.title, 1, 0, false).
		AddItem(main, 0, 1, true)
}

func (v *reportView) theme() Theme { return v.ui.theme }

func (v *reportView) applyTheme() {
	t := v.theme()
	v.title.SetBackgroundColor(t.Surface)
	v.tabBar.SetBackgroundColor(t.Surface)
	v.sidebar.SetBackgroundColor(t.Surface)
	v.sidebar.SetBorderColor(t.Border)
	v.sidebar.SetTitleColor(t.Header)
	t.styleText(v.doc)
	t.styleTable(v.timelineTbl)
	t.styleText(v.billingSum)
	t.styleTable(v.billingTbl)
	v.chat.applyTheme()
	v.renderTitle()
	v.renderTabBar()
	v.renderSidebar()
	v.renderDocument()
	v.renderTimeline()
	v.renderBilling()
}

func (v *reportView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEsc:
		v.ui.closeReport()
		return nil
	case tcell.KeyTab:
		v.cycleFocus()
		return nil
	case tcell.KeyCtrlL:
		v.chat.clear()
		return nil
	}
	if v.ui.app.GetFocus() == v.doc {
		if v.scrollKey(event) {
			return nil
		}
	}
	if event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case 'q':
		v.ui.closeReport()
	case '1':
		v.switchTab(tabDocument)
	case '2':
		v.switchTab(tabTimeline)
	case '3':
		v.switchTab(tabBilling)
	case 'e':
		v.toggleEditMode()
	case 'k':
		if v.tab != tabTimeline {
			return event
		}
		v.toggleSelected(func(id string) (bool, error) { return v.rep.ToggleKeyDate(id) }, "isKeyDate")
	case 'v':
		if v.tab != tabTimeline {
			return event
		}
		v.toggleSelected(func(id string) (bool, error) { return v.rep.ToggleNeedsReview(id) }, "needsReview")
	case 'f':
		v.showFilterForm()
	case 'F':
		v.applyFilters(timeline.Filters{})
	case 'R':
		v.toggleRiskOnly()
	case 'E':
		v.showExportMenu()
	case 'i':
		v.chat.insertSuggestion()
	case '?':
		v.ui.showHelp()
	default:
		return event
	}
	return nil
}

func (v *reportView) cycleFocus() {
	if v.ui.app.GetFocus() == v.chat.input {
		v.focusTab()
		return
	}
	if v.ui.app.GetFocus() == v.sidebar {
		v.ui.app.SetFocus(v.chat.input)
		return
	}
	if v.tab == tabDocument {
		v.ui.app.SetFocus(v.sidebar)
		return
	}
	v.ui.app.SetFocus(v.chat.input)
}

func (v *reportView) focusTab() {
	switch v.tab {
	case tabTimeline:
		v.ui.app.SetFocus(v.timelineTbl)
	case tabBilling:
		v.ui.app.SetFocus(v.billingTbl)
	default:
		v.ui.app.SetFocus(v.doc)
	}
}

func (v *reportView) switchTab(tab int) {
	v.tab = tab
	v.tabs.SwitchToPage(strings.ToLower(tabNames[tab]))
	v.renderTabBar()
	v.focusTab()
}

func (v *reportView) renderTitle() {
	t := v.theme()
	mode := ""
	if v.rep.EditMode() {
		mode = fmt.Sprintf("  [%s::b]EDIT MODE[-:-:-]", t.TagWarning)
	}
	v.title.SetText(fmt.Sprintf(" [%s::b]%s[-:-:-]  [%s]%s, claim %s, %d documents[-]%s",
		t.TagAccent, tview.Escape(v.rep.Title), t.TagMuted, tview.Escape(v.rep.Claim.Name),
		v.rep.Claim.ID, v.rep.Claim.FileCount, mode))
}

func (v *reportView) renderTabBar() {
	t := v.theme()
	var b strings.Builder
	for i, name := range tabNames {
		if i == v.tab {
			fmt.Fprintf(&b, " [%s::b]╭─ %d %s ─╮[-:-:-]", t.TagAccent, i+1, name)
		} else {
			fmt.Fprintf(&b, " [%s]┌ %d %s ┐[-]", t.TagMuted, i+1, name)
		}
	}
	if n := v.filters.Active(); n > 0 {
		fmt.Fprintf(&b, "  [%s]%d filters[-]", t.TagWarning, n)
	}
	v.tabBar.SetText(b.String())
}

// renderSidebar highlights the active entry and the section containing it.
func (v *reportView) renderSidebar() {
	t := v.theme()
	active := v.tracker.Active()
	for _, s := range v.layout {
		n := v.nodes[s.ID]
		if v.tracker.IsSectionActive(s) {
			n.SetColor(t.Accent)
		} else {
			n.SetColor(t.TextPrimary)
		}
		for i, child := range n.GetChildren() {
			if s.Subsections[i].ID == active {
				child.SetColor(t.Header)
			} else {
				child.SetColor(t.TextMuted)
			}
		}
	}
	if n, ok := v.nodes[active]; ok {
		v.sidebar.SetCurrentNode(n)
	}
}

// renderDocument lays the report out in table-of-contents order and records
// each section's row extent for the tracker.
func (v *reportView) renderDocument() {
	t := v.theme()
	opts := export.MarkdownOptions{
		Formatter: v.ui.deps.Formatter,
		Guidance:  v.ui.deps.Guidance,
		NextSteps: v.ui.deps.NextSteps,
		Filters:   v.filters,
	}

	var lines []string
	geometry := sections.StaticGeometry{}
	add := func(ls ...string) { lines = append(lines, ls...) }

	for _, s := range v.layout {
		top := len(lines)
		add(fmt.Sprintf("[%s::bu]%s[-:-:-]", t.TagAccent, strings.ToUpper(s.Title)), "")
		subs := s.Subsections
		if len(subs) == 0 {
			subs = []sections.Section{{ID: s.ID}}
		}
		subBounds := map[string]sections.Bounds{}
		for _, sub := range subs {
			start := len(lines)
			if sub.Title != "" {
				add(fmt.Sprintf("[%s::b]%s[-:-:-]", t.TagTextPrimary, sub.Title), "")
			}
			add(markdownLines(export.RenderSection(v.rep, sub.ID, opts), docWidth)...)
			add("")
			subBounds[sub.ID] = sections.Bounds{Top: float64(start), Height: float64(len(lines) - start)}
		}
		geometry[s.ID] = sections.Bounds{Top: float64(top), Height: float64(len(lines) - top)}
		// A subsection sharing its parent's id is measured as the subsection.
		for id, b := range subBounds {
			if id != s.ID || len(s.Subsections) > 0 {
				geometry[id] = b
			}
		}
	}

	for _, ins := range v.rep.InsertedSections() {
		add(fmt.Sprintf("[%s::bu]%s[-:-:-]", t.TagSuccess, tview.Escape(ins.Title)), "")
		add(markdownLines(ins.Markdown, docWidth)...)
		add("")
	}

	v.geometry = geometry
	v.lines = len(lines)
	v.tracker.SetGeometry(geometry)
	v.doc.SetTitle(fmt.Sprintf(" %s ", v.rep.Type.Label()))
	v.doc.SetText(strings.Join(lines, "\n"))
	v.scrollTo(v.scroll)
}

// scrollKey handles document navigation so every move goes through the
// tracker.
func (v *reportView) scrollKey(event *tcell.EventKey) bool {
	_, _, _, height := v.doc.GetInnerRect()
	if height <= 0 {
		height = 20
	}
	switch event.Key() {
	case tcell.KeyDown:
		v.scrollTo(v.scroll + 1)
	case tcell.KeyUp:
		v.scrollTo(v.scroll - 1)
	case tcell.KeyPgDn:
		v.scrollTo(v.scroll + height)
	case tcell.KeyPgUp:
		v.scrollTo(v.scroll - height)
	case tcell.KeyHome:
		v.scrollTo(0)
	case tcell.KeyEnd:
		v.scrollTo(v.lines)
	case tcell.KeyRune:
		switch event.Rune() {
		case 'j':
			v.scrollTo(v.scroll + 1)
		case 'k':
			v.scrollTo(v.scroll - 1)
		case 'g':
			v.scrollTo(0)
		case 'G':
			v.scrollTo(v.lines)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func (v *reportView) scrollTo(row int) {
	if row > v.lines-1 {
		row = v.lines - 1
	}
	if row < 0 {
		row = 0
	}
	v.scroll = row
	v.doc.ScrollTo(row, 0)
	v.tracker.Update(float64(row))
}

// jumpTo activates a contents entry and scrolls it into view.
func (v *reportView) jumpTo(id string) {
	if !v.tracker.Click(id) {
		return
	}
	if v.tab != tabDocument {
		v.switchTab(tabDocument)
	}
	if b, ok := v.geometry[id]; ok {
		row := int(b.Top) - trackerOffset
		if row < 0 {
			row = 0
		}
		v.scroll = row
		v.doc.ScrollTo(row, 0)
	}
}

func (v *reportView) toggleEditMode() {
	on := !v.rep.EditMode()
	v.rep.SetEditMode(on)
	v.renderTitle()
	if on {
		v.ui.setStatus("[%s]Edit mode on[-]: select a timeline event and press Enter to edit it", v.theme().TagWarning)
	} else {
		v.ui.setStatus("Edit mode off")
	}
}

func (v *reportView) renderTimeline() {
	t := v.theme()
	data := v.rep.Data()
	v.events = timeline.Filter(data.Timeline, v.filters)

	row, _ := v.timelineTbl.GetSelection()
	v.timelineTbl.Clear()
	for col, h := range []string{"Date", "Provider", "Specialty", "Event", "Key", "Review", "Description"} {
		v.timelineTbl.SetCell(0, col, t.headerCell(h))
	}
	for i, e := range v.events {
		r := i + 1
		key, review := "", ""
		if e.IsKeyDate {
			key = fmt.Sprintf("[%s]★[-]", t.TagAccent)
		}
		if e.NeedsReview {
			review = fmt.Sprintf("[%s]⚑[-]", t.TagWarning)
		}
		v.timelineTbl.SetCell(r, 0, tview.NewTableCell(e.Date).SetTextColor(t.TableRow))
		v.timelineTbl.SetCell(r, 1, tview.NewTableCell(tview.Escape(e.Provider)).SetTextColor(t.TableRow))
		v.timelineTbl.SetCell(r, 2, tview.NewTableCell(tview.Escape(e.Specialty)).SetTextColor(t.TableRowMuted))
		v.timelineTbl.SetCell(r, 3, tview.NewTableCell(tview.Escape(e.EventType)).SetTextColor(t.TableRow))
		v.timelineTbl.SetCell(r, 4, tview.NewTableCell(key).SetAlign(tview.AlignCenter))
		v.timelineTbl.SetCell(r, 5, tview.NewTableCell(review).SetAlign(tview.AlignCenter))
		v.timelineTbl.SetCell(r, 6, tview.NewTableCell(tview.Escape(e.Description)).SetTextColor(t.TableRow).SetExpansion(1))
	}
	if len(v.events) == 0 {
		v.timelineTbl.SetCell(1, 0, tview.NewTableCell("No events match the current filters (F clears)").
			SetTextColor(t.TableRowMuted).SetSelectable(false))
	} else {
		if row < 1 {
			row = 1
		}
		if row > len(v.events) {
			row = len(v.events)
		}
		v.timelineTbl.Select(row, 0)
	}
	v.timelineTbl.SetTitle(fmt.Sprintf(" Medical Timeline (%d of %d) ", len(v.events), len(data.Timeline)))
}

func (v *reportView) eventAt(row int) (report.MedicalEvent, bool) {
	if row < 1 || row > len(v.events) {
		return report.MedicalEvent{}, false
	}
	return v.events[row-1], true
}

func (v *reportView) selectedEvent() (report.MedicalEvent, bool) {
	row, _ := v.timelineTbl.GetSelection()
	return v.eventAt(row)
}

// toggleSelected flips a flag on the selected timeline event and records
// the edit.
func (v *reportView) toggleSelected(toggle func(id string) (bool, error), field string) {
	ev, ok := v.selectedEvent()
	if !ok {
		return
	}
	value, err := toggle(ev.ID)
	if err != nil {
		v.ui.setStatus("[%s]%v[-]", v.theme().TagError, err)
		return
	}
	v.audit(ev.ID, field, fmt.Sprintf("%t", value))
	v.refresh()
	v.ui.setStatus("%s %s set to %t", ev.Date, field, value)
}

func (v *reportView) audit(eventID, field, value string) {
	if err := v.ui.deps.Store.LogReportEdit(v.ui.ctx, v.rep.Claim.ID, eventID, v.ui.deps.Actor, field, value); err != nil {
		v.ui.logger.Printf("audit report edit: %v", err)
	}
}

// refresh re-renders everything derived from the report data.
func (v *reportView) refresh() {
	v.renderTimeline()
	v.renderDocument()
	v.renderBilling()
}

func (v *reportView) showEventEditor(ev report.MedicalEvent) {
	if !v.rep.EditMode() {
		v.ui.showModal("Event "+ev.Date, eventDetail(ev, v.theme()))
		return
	}
	initial := 0
	for i, f := range report.EditableFields {
		if f == "description" {
			initial = i
		}
	}
	form := tview.NewForm()
	form.AddDropDown("Field", report.EditableFields, initial, nil)
	form.AddInputField("Value", ev.Description, 60, nil, nil)
	form.GetFormItemByLabel("Field").(*tview.DropDown).SetSelectedFunc(func(text string, _ int) {
		if cur, ok := v.rep.Event(ev.ID); ok {
			form.GetFormItemByLabel("Value").(*tview.InputField).SetText(eventField(cur, text))
		}
	})
	form.AddButton("Save", func() {
		_, field := form.GetFormItemByLabel("Field").(*tview.DropDown).GetCurrentOption()
		value := form.GetFormItemByLabel("Value").(*tview.InputField).GetText()
		if v.editEvent(ev.ID, field, value) {
			v.ui.popModal()
		}
	})
	form.AddButton("Cancel", v.ui.popModal)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Edit %s - %s ", ev.Date, ev.Provider)).SetTitleAlign(tview.AlignLeft)
	v.theme().styleForm(form)
	v.ui.pushModal("edit-event", form, 80, 9)
}

func (v *reportView) editEvent(eventID, field, value string) bool {
	if err := v.rep.EditEvent(eventID, field, value); err != nil {
		v.ui.setStatus("[%s]%v[-]", v.theme().TagError, err)
		return false
	}
	v.audit(eventID, field, value)
	v.refresh()
	v.ui.setStatus("Updated %s", field)
	return true
}

func eventField(e report.MedicalEvent, field string) string {
	switch field {
	case "description":
		return e.Description
	case "narrativeSummary":
		return e.NarrativeSummary
	case "provider":
		return e.Provider
	case "specialty":
		return e.Specialty
	case "eventType":
		return e.EventType
	case "date":
		return e.Date
	case "doctorName":
		return e.DoctorName
	case "medicalFacility":
		return e.MedicalFacility
	}
	return ""
}

func eventDetail(e report.MedicalEvent, t Theme) string {
	v := timeline.Normalize(e)
	var b strings.Builder
	fmt.Fprintf(&b, "[%s::b]%s[-:-:-] %s\n\n", t.TagAccent, tview.Escape(e.EventType), e.Date)
	fmt.Fprintf(&b, "Provider:  %s (%s)\n", tview.Escape(e.Provider), tview.Escape(e.Specialty))
	if v.DoctorName != "" {
		fmt.Fprintf(&b, "Doctor:    %s\n", tview.Escape(v.DoctorName))
	}
	if v.MedicalFacility != "" {
		fmt.Fprintf(&b, "Facility:  %s\n", tview.Escape(v.MedicalFacility))
	}
	fmt.Fprintf(&b, "Source:    %s (%s)\n\n", tview.Escape(e.SourceDocument), e.SourcePageRef)
	fmt.Fprintf(&b, "%s\n", tview.Escape(e.Description))
	if e.NarrativeSummary != "" {
		fmt.Fprintf(&b, "\n%s\n", tview.Escape(e.NarrativeSummary))
	}
	for _, list := range []struct {
		label string
		vals  []string
	}{
		{"Complaints", e.PatientComplaints},
		{"Diagnostics", e.Diagnostics},
		{"Interventions", e.Interventions},
		{"Labels", v.Labels},
	} {
		if len(list.vals) > 0 {
			fmt.Fprintf(&b, "\n[%s]%s[-]: %s", t.TagMuted, list.label, tview.Escape(strings.Join(list.vals, ", ")))
		}
	}
	fmt.Fprintf(&b, "\n\nKey date: %t   Needs review: %t", e.IsKeyDate, e.NeedsReview)
	return b.String()
}

// showFilterForm edits the timeline filters with options drawn from the
// report's own events.
func (v *reportView) showFilterForm() {
	opts := timeline.BuildOptions(v.rep.Data().Timeline)
	f := v.filters
	form := tview.NewForm()

	type choice struct {
		label  string
		values []string
		target *string
	}
	choices := []choice{
		{"Patient", opts.Patients, &f.PatientName},
		{"Doctor", opts.Doctors, &f.DoctorName},
		{"Facility", opts.Facilities, &f.MedicalFacility},
		{"Specialty", opts.Specialties, &f.MedicalSpecialty},
		{"Procedure", opts.Procedures, &f.ProcedureType},
		{"Medication", opts.Medications, &f.MedicationType},
		{"Label", opts.Labels, &f.Label},
		{"Needs review", []string{timeline.Yes, timeline.No}, &f.NeedsReview},
		{"Key date", []string{timeline.Yes, timeline.No}, &f.IsKeyDate},
	}
	for _, c := range choices {
		c := c
		values := append([]string{"(any)"}, c.values...)
		initial := 0
		for i, val := range c.values {
			if val == *c.target {
				initial = i + 1
			}
		}
		form.AddDropDown(c.label, values, initial, func(text string, index int) {
			if index <= 0 {
				*c.target = ""
				return
			}
			*c.target = text
		})
	}
	form.AddInputField("Start date", f.StartDate, 12, nil, func(text string) { f.StartDate = text })
	form.AddInputField("End date", f.EndDate, 12, nil, func(text string) { f.EndDate = text })
	form.AddInputField("Search", f.Search, 32, nil, func(text string) { f.Search = text })
	form.AddButton("Apply", func() {
		v.ui.popModal()
		v.applyFilters(f)
	})
	form.AddButton("Clear", func() {
		v.ui.popModal()
		v.applyFilters(timeline.Filters{})
	})
	form.SetBorder(true).SetTitle(" Timeline Filters ").SetTitleAlign(tview.AlignLeft)
	v.theme().styleForm(form)
	v.ui.pushModal("filters", form, 64, 29)
}

func (v *reportView) applyFilters(f timeline.Filters) {
	v.filters = f
	v.renderTimeline()
	v.renderDocument()
	v.renderTabBar()
	if v.tab != tabTimeline {
		v.switchTab(tabTimeline)
	}
	v.ui.setStatus("Showing %d of %d events", len(v.events), len(v.rep.Data().Timeline))
}

func (v *reportView) toggleRiskOnly() {
	v.riskOnly = !v.riskOnly
	v.renderBilling()
	if v.tab != tabBilling {
		v.switchTab(tabBilling)
	}
	if v.riskOnly {
		v.ui.setStatus("Showing %d risk bills", len(v.bills))
	} else {
		v.ui.setStatus("Showing all bills")
	}
}

func (v *reportView) renderBilling() {
	t := v.theme()
	f := v.ui.deps.Formatter
	all := v.rep.Data().Bills
	sum := billing.Totals(all, v.rep.Type)

	var b strings.Builder
	fmt.Fprintf(&b, "Total billed [%s::b]%s[-:-:-]   Accident-attributable [%s]%s[-]   Unrelated/unsupported [%s]%s[-]\n\n",
		t.TagAccent, f.Format(sum.Total), t.TagSuccess, f.Format(sum.AccidentRelated), t.TagError, f.Format(sum.Unrelated))
	for _, s := range billing.CategorySubtotals(all) {
		fmt.Fprintf(&b, "  %-24s %3d bills  %14s\n", tview.Escape(s.Label), s.Count, f.Format(s.Amount))
	}
	groups := billing.GroupSubtotals(all)
	if len(groups) > 0 {
		b.WriteString("\n")
		for _, s := range groups {
			fmt.Fprintf(&b, "  [%s]%s[-] %s (%d)", t.TagMuted, s.Label, f.Format(s.Amount), s.Count)
		}
		b.WriteString("\n")
	}
	if v.rep.Type == report.TypeFull {
		fmt.Fprintf(&b, "\n[%s::b]High Impact Bills[-:-:-]\n", t.TagWarning)
		for i, bill := range billing.HighImpact(all, 5) {
			fmt.Fprintf(&b, "  %d. %s  %s  [%s]%s[-]\n", i+1, tview.Escape(bill.Description), f.Format(bill.Amount),
				t.riskTag(bill.RiskScore), bill.RiskScore)
		}
	}
	v.billingSum.SetText(b.String())

	v.bills = all
	title := " Line Items "
	if v.riskOnly {
		v.bills = billing.RiskOnly(all)
		title = fmt.Sprintf(" Line Items (risk only: %d of %d) ", len(v.bills), len(all))
	}
	v.billingTbl.Clear()
	for col, h := range []string{"Date", "Provider", "Description", "Category", "Amount", "Accident", "Risk", "Flags"} {
		v.billingTbl.SetCell(0, col, t.headerCell(h))
	}
	for i, bill := range v.bills {
		r := i + 1
		var flags []string
		if bill.IsDuplicate {
			flags = append(flags, "duplicate")
		}
		if !bill.HasMatchingTreatment {
			flags = append(flags, "no matching treatment")
		}
		accident := "No"
		if bill.IsAccidentRelated {
			accident = "Yes"
		}
		v.billingTbl.SetCell(r, 0, tview.NewTableCell(bill.Date).SetTextColor(t.TableRow))
		v.billingTbl.SetCell(r, 1, tview.NewTableCell(tview.Escape(bill.Provider)).SetTextColor(t.TableRow))
		v.billingTbl.SetCell(r, 2, tview.NewTableCell(tview.Escape(bill.Description)).SetTextColor(t.TableRow).SetExpansion(1))
		v.billingTbl.SetCell(r, 3, tview.NewTableCell(tview.Escape(bill.Category)).SetTextColor(t.TableRowMuted))
		v.billingTbl.SetCell(r, 4, tview.NewTableCell(f.Format(bill.Amount)).SetAlign(tview.AlignRight).SetTextColor(t.TableRow))
		v.billingTbl.SetCell(r, 5, tview.NewTableCell(accident).SetTextColor(t.TableRow))
		v.billingTbl.SetCell(r, 6, tview.NewTableCell(bill.RiskScore).SetTextColor(t.riskColor(bill.RiskScore)))
		v.billingTbl.SetCell(r, 7, tview.NewTableCell(strings.Join(flags, ", ")).SetTextColor(t.Warning))
	}
	v.billingTbl.SetTitle(title)
}

func (v *reportView) showExportMenu() {
	list := tview.NewList().ShowSecondaryText(false)
	for _, o := range export.Options {
		o := o
		list.AddItem(o.Label, "", 0, func() {
			v.ui.popModal()
			v.exportAs(o.Format)
		})
	}
	list.SetBorder(true).SetTitle(" Export ").SetTitleAlign(tview.AlignLeft)
	list.SetBackgroundColor(v.theme().Surface)
	list.SetMainTextColor(v.theme().TextPrimary)
	list.SetSelectedBackgroundColor(v.theme().SelectionBg)
	list.SetSelectedTextColor(v.theme().SelectionFg)
	list.SetBorderColor(v.theme().FocusBorder)
	v.ui.pushModal("export", list, 44, len(export.Options)+2)
}

// exportAs renders the report and writes it to the export directory.
func (v *reportView) exportAs(format export.Format) {
	deps := v.ui.deps
	if deps.Exporter == nil {
		v.ui.setStatus("[%s]Export is not configured[-]", v.theme().TagError)
		return
	}
	f, err := deps.Exporter.Export(v.ui.ctx, format, v.rep.Claim.ID)
	if err != nil {
		v.ui.logger.Printf("export %s for claim %s: %v", format, v.rep.Claim.ID, err)
		v.ui.setStatus("[%s]Export %s unavailable: %v[-]", v.theme().TagWarning, format, err)
		return
	}
	dir := deps.ExportDir
	if dir == "" {
		dir = "exports"
	}
	path, err := export.Save(dir, f)
	if err != nil {
		v.ui.setStatus("[%s]Could not save export: %v[-]", v.theme().TagError, err)
		return
	}
	details := map[string]interface{}{"format": string(format), "file": f.Name, "path": path}
	if err := deps.Store.LogClaimAction(v.ui.ctx, v.rep.Claim.ID, store.ActionExport, deps.Actor, details); err != nil {
		v.ui.logger.Printf("audit export: %v", err)
	}
	v.ui.setStatus("[%s]Exported %s[-]", v.theme().TagSuccess, path)
}
