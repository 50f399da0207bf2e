package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// Deps are the services the terminal dashboard drives.
type Deps struct {
	Store     *store.Store
	Bus       bus.Bus
	Intake    *ingest.Intake
	Sessions  *report.Sessions
	Assistant *assistant.Bridge
	Exporter  export.Exporter
	Formatter *billing.Formatter
	Guidance  report.Guidance
	NextSteps bool
	ExportDir string
	// Actor is recorded in the audit trail for actions taken in the UI.
	Actor string
}

type screen int

const (
	screenDashboard screen = iota
	screenReport
)

// UI represents the terminal user interface
type UI struct {
	app    *tview.Application
	deps   Deps
	logger *log.Logger

	// Layout components
	root      *tview.Flex
	pages     *tview.Pages
	dashboard *tview.Flex
	header    *tview.TextView
	search    *tview.InputField
	claimList *tview.Table
	detail    *tview.TextView
	statusBar *tview.TextView

	// State
	mu          sync.Mutex
	claims      []store.Claim
	query       string
	selectedID  string
	current     screen
	report      *reportView
	conv        *assistant.Conversation
	modals      []string
	modalFocus  []tview.Primitive
	lastMessage string

	theme        Theme
	themeName    string
	hasTrueColor bool

	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUI builds the dashboard. Nothing is drawn until Start.
func NewUI(ctx context.Context, deps Deps, logger *log.Logger) *UI {
	if logger == nil {
		logger = log.New(log.Writer(), "[ui] ", log.LstdFlags)
	}
	if deps.Formatter == nil {
		deps.Formatter = billing.NewFormatter("en-US")
	}
	if deps.Actor == "" {
		deps.Actor = "tui"
	}
	uiCtx, cancel := context.WithCancel(ctx)

	ui := &UI{
		app:          tview.NewApplication(),
		deps:         deps,
		logger:       logger,
		conv:         assistant.NewConversation(""),
		hasTrueColor: detectTrueColor(),
		ctx:          uiCtx,
		cancel:       cancel,
	}
	ui.theme, ui.themeName = themeByName("slate")

	ui.setupLayout()
	ui.app.SetInputCapture(ui.handleKey)
	ui.applyTheme()
	return ui
}

// Start loads the catalog, follows claim status updates and runs the
// application until ctx is cancelled or the user quits.
func (ui *UI) Start(ctx context.Context) error {
	ui.logger.Println("Starting TUI application")

	if err := ui.refreshClaims(); err != nil {
		ui.logger.Printf("Failed to load claims: %v", err)
		ui.setStatus("[%s]Error loading claims: %v[-]", ui.theme.TagError, err)
	}
	if ui.deps.Bus != nil {
		go ui.watchStatus()
	}

	go func() {
		select {
		case <-ctx.Done():
			ui.logger.Println("External context cancelled, stopping TUI")
		case <-ui.ctx.Done():
		}
		ui.cancel()
		ui.app.Stop()
	}()

	ui.mu.Lock()
	ui.running = true
	ui.mu.Unlock()
	err := ui.app.Run()
	ui.mu.Lock()
	ui.running = false
	ui.mu.Unlock()
	ui.logger.Printf("app.Run() returned: %v", err)
	return err
}

// Stop stops the TUI application
func (ui *UI) Stop() {
	ui.logger.Println("Stopping TUI application")
	ui.cancel()
	ui.app.Stop()
}

// queue runs fn on the UI goroutine. Before Start (tests, headless use) it
// runs inline.
func (ui *UI) queue(fn func()) {
	ui.mu.Lock()
	running := ui.running
	ui.mu.Unlock()
	if running {
		ui.app.QueueUpdateDraw(fn)
		return
	}
	fn()
}

// watchStatus refreshes the catalog whenever a claim changes status.
func (ui *UI) watchStatus() {
	err := ui.deps.Bus.ReadStatusStream(ui.ctx, "ui", "ui-1", func(ctx context.Context, msg bus.StatusMessage) error {
		ui.queue(func() {
			if err := ui.refreshClaims(); err != nil {
				ui.logger.Printf("refresh after status %s: %v", msg.ClaimID, err)
				return
			}
			if msg.Status == store.StatusReady {
				ui.setStatus("[%s]Claim %s is ready for review[-]", ui.theme.TagSuccess, msg.ClaimID)
			}
		})
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		ui.logger.Printf("status stream stopped: %v", err)
	}
}

func (ui *UI) setupLayout() {
	ui.header = tview.NewTextView().SetDynamicColors(true)

	ui.search = tview.NewInputField().
		SetLabel("Search: ").
		SetFieldWidth(0).
		SetPlaceholder("claim name")
	ui.search.SetChangedFunc(func(text string) {
		ui.query = text
		if err := ui.refreshClaims(); err != nil {
			ui.logger.Printf("search %q: %v", text, err)
		}
	})
	ui.search.SetDoneFunc(func(key tcell.Key) {
		ui.app.SetFocus(ui.claimList)
	})

	ui.claimList = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	ui.claimList.SetBorder(true).SetTitle(" Claims ").SetTitleAlign(tview.AlignLeft)
	ui.claimList.SetSelectionChangedFunc(func(row, _ int) {
		if c, ok := ui.claimAt(row); ok {
			ui.selectedID = c.ID
			ui.renderDetail(c)
		}
	})
	ui.claimList.SetSelectedFunc(func(row, _ int) {
		if c, ok := ui.claimAt(row); ok {
			ui.openClaim(c.ID)
		}
	})

	ui.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	ui.detail.SetBorder(true).SetTitle(" Claim ").SetTitleAlign(tview.AlignLeft)

	ui.statusBar = tview.NewTextView().SetDynamicColors(true)

	body := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(ui.claimList, 0, 3, true).
		AddItem(ui.detail, 0, 2, false)
	ui.dashboard = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.header, 1, 0, false).
		AddItem(ui.search, 1, 0, false).
		AddItem(body, 0, 1, true)

	ui.pages = tview.NewPages()
	ui.pages.AddPage("dashboard", ui.dashboard, true, true)

	ui.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.pages, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)
	ui.app.SetRoot(ui.root, true)
	ui.app.SetFocus(ui.claimList)

	ui.renderClaims()
	ui.setStatus("Welcome")
}

// handleKey is the application-wide input capture. Keys go to the active
// modal first, then to whichever screen is showing.
func (ui *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if len(ui.modals) > 0 {
		if event.Key() == tcell.KeyEsc {
			ui.popModal()
			return nil
		}
		return event
	}
	if f := ui.app.GetFocus(); f != nil {
		switch f.(type) {
		case *tview.InputField, *tview.TextArea, *tview.DropDown:
			return event
		}
	}
	if event.Key() == tcell.KeyCtrlC {
		ui.Stop()
		return nil
	}
	if ui.current == screenReport && ui.report != nil {
		return ui.report.handleKey(event)
	}
	return ui.dashboardKey(event)
}

func (ui *UI) dashboardKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		if ui.app.GetFocus() == ui.claimList {
			ui.app.SetFocus(ui.detail)
		} else {
			ui.app.SetFocus(ui.claimList)
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			ui.Stop()
			return nil
		case '/':
			ui.app.SetFocus(ui.search)
			return nil
		case 'a':
			ui.showAddClaimForm()
			return nil
		case 'd':
			ui.showAddDocumentsForm()
			return nil
		case 'r':
			if err := ui.refreshClaims(); err != nil {
				ui.setStatus("[%s]Refresh failed: %v[-]", ui.theme.TagError, err)
			} else {
				ui.setStatus("Refreshed %d claims", len(ui.claims))
			}
			return nil
		case 't':
			ui.setTheme(nextThemeName(ui.themeName))
			return nil
		case '?':
			ui.showHelp()
			return nil
		}
	}
	return event
}

// refreshClaims reloads the catalog under the current search query and
// keeps the selection on the same claim when it is still listed.
func (ui *UI) refreshClaims() error {
	claims, err := ui.deps.Store.SearchClaims(ui.ctx, ui.query)
	if err != nil {
		return fmt.Errorf("failed to load claims: %w", err)
	}
	ui.claims = claims
	ui.renderClaims()
	return nil
}

func (ui *UI) claimAt(row int) (store.Claim, bool) {
	if row < 1 || row > len(ui.claims) {
		return store.Claim{}, false
	}
	return ui.claims[row-1], true
}

func (ui *UI) renderClaims() {
	ui.claimList.Clear()
	for col, h := range []string{"Claim", "Status", "Files", "Total Billed", "Last Updated"} {
		ui.claimList.SetCell(0, col, ui.theme.headerCell(h))
	}

	selectRow := 0
	for i, c := range ui.claims {
		row := i + 1
		total := "-"
		if c.TotalBilled != nil {
			total = ui.deps.Formatter.Format(*c.TotalBilled)
		}
		ui.claimList.SetCell(row, 0, tview.NewTableCell(c.Name).SetTextColor(ui.theme.TableRow).SetExpansion(1))
		ui.claimList.SetCell(row, 1, tview.NewTableCell(ui.statusBadge(c.Status)))
		ui.claimList.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", c.FileCount)).SetAlign(tview.AlignRight).SetTextColor(ui.theme.TableRow))
		ui.claimList.SetCell(row, 3, tview.NewTableCell(total).SetAlign(tview.AlignRight).SetTextColor(ui.theme.TableRow))
		ui.claimList.SetCell(row, 4, tview.NewTableCell(c.LastUpdated.Local().Format("2006-01-02 15:04")).SetTextColor(ui.theme.TableRowMuted))
		if c.ID == ui.selectedID {
			selectRow = row
		}
	}

	if len(ui.claims) == 0 {
		msg := "No claims yet. Press a to add one."
		if ui.query != "" {
			msg = fmt.Sprintf("No claims match %q", ui.query)
		}
		ui.claimList.SetCell(1, 0, tview.NewTableCell(msg).SetTextColor(ui.theme.TableRowMuted).SetSelectable(false))
		ui.detail.SetText("")
	} else {
		if selectRow == 0 {
			selectRow = 1
		}
		ui.claimList.Select(selectRow, 0)
		c := ui.claims[selectRow-1]
		ui.selectedID = c.ID
		ui.renderDetail(c)
	}
	ui.renderHeader()
}

func (ui *UI) statusBadge(status string) string {
	switch status {
	case store.StatusReady:
		return fmt.Sprintf("[%s]● Ready[-]", ui.theme.TagSuccess)
	case store.StatusProcessing:
		return fmt.Sprintf("[%s]◌ Processing[-]", ui.theme.TagWarning)
	case store.StatusError:
		return fmt.Sprintf("[%s]✖ Error[-]", ui.theme.TagError)
	default:
		return status
	}
}

func (ui *UI) renderHeader() {
	ready := 0
	for _, c := range ui.claims {
		if c.Ready() {
			ready++
		}
	}
	ui.header.SetText(fmt.Sprintf(" [%s::b]Claims Console[-:-:-]  [%s]%d claims, %d ready[-]",
		ui.theme.TagAccent, ui.theme.TagMuted, len(ui.claims), ready))
}

func (ui *UI) renderDetail(c store.Claim) {
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[::-]\n", tview.Escape(c.Name))
	fmt.Fprintf(&b, "ID: %s   Status: %s\n", c.ID, ui.statusBadge(c.Status))
	if c.AccidentDate != "" {
		fmt.Fprintf(&b, "Accident date: %s\n", c.AccidentDate)
	}
	fmt.Fprintf(&b, "Created: %s\n", c.CreatedAt.Local().Format("2006-01-02 15:04"))
	if c.TotalBilled != nil {
		fmt.Fprintf(&b, "Total billed: %s\n", ui.deps.Formatter.Format(*c.TotalBilled))
	}
	if c.Ready() {
		fmt.Fprintf(&b, "Report: %s\n", report.Title(c))
	}

	docs, err := ui.deps.Store.ListDocuments(ui.ctx, c.ID)
	if err != nil {
		ui.logger.Printf("documents for %s: %v", c.ID, err)
	}
	fmt.Fprintf(&b, "\n[%s]Documents (%d)[-]\n", ui.theme.TagAccent, c.FileCount)
	for _, d := range docs {
		fmt.Fprintf(&b, "  %s [%s](%s)[-]\n", tview.Escape(d.FileName), ui.theme.TagMuted, strings.ToUpper(d.Kind))
	}

	entries, err := ui.deps.Store.GetAuditEntries(ui.ctx, c.ID, 5)
	if err == nil && len(entries) > 0 {
		fmt.Fprintf(&b, "\n[%s]Recent activity[-]\n", ui.theme.TagAccent)
		for _, e := range entries {
			fmt.Fprintf(&b, "  [%s]%s[-] %s by %s\n", ui.theme.TagMuted, e.Timestamp.Local().Format("01-02 15:04"), e.Action, tview.Escape(e.Actor))
		}
	}
	ui.detail.SetText(b.String())
	ui.detail.ScrollToBeginning()
}

// openClaim shows the report for a claim. Claims still being processed
// cannot be opened yet.
func (ui *UI) openClaim(id string) {
	c, err := ui.deps.Store.GetClaim(ui.ctx, id)
	if err != nil {
		ui.setStatus("[%s]Cannot open claim %s: %v[-]", ui.theme.TagError, id, err)
		return
	}
	if !c.Ready() {
		ui.setStatus("[%s]%s is still %s[-]", ui.theme.TagWarning, c.Name, c.Status)
		return
	}

	rep := ui.deps.Sessions.Open(c)
	// The transcript belongs to the claim on screen; answers still in
	// flight for a previous claim are dropped.
	if ui.conv.ClaimID() != c.ID {
		ui.conv.Switch(c.ID)
	}

	view := newReportView(ui, rep)
	ui.report = view
	ui.pages.AddAndSwitchToPage("report", view.root, true)
	ui.current = screenReport
	ui.app.SetFocus(view.doc)
	ui.logger.Printf("opened report for claim %s (%s)", c.ID, rep.Type)
	ui.setStatus("%s  [%s]1[-] document  [%s]2[-] timeline  [%s]3[-] billing  [%s]?[-] help",
		tview.Escape(rep.Title), ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent)
}

// closeReport returns to the dashboard.
func (ui *UI) closeReport() {
	ui.current = screenDashboard
	ui.pages.SwitchToPage("dashboard")
	ui.pages.RemovePage("report")
	ui.app.SetFocus(ui.claimList)
	if err := ui.refreshClaims(); err != nil {
		ui.logger.Printf("refresh claims: %v", err)
	}
	ui.setStatus("Claims")
}

// uploadsFromInput parses a comma separated list of file paths. Files that
// exist on disk contribute their size.
func uploadsFromInput(text string) []ingest.Upload {
	var out []ingest.Upload
	for _, part := range strings.Split(text, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		u := ingest.Upload{Name: filepath.Base(p)}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			u.Size = st.Size()
		}
		out = append(out, u)
	}
	return out
}

func (ui *UI) showAddClaimForm() {
	form := tview.NewForm()
	form.AddInputField("Claim name", "", 48, nil, nil)
	form.AddInputField("Files", "", 48, nil, nil)
	form.AddTextView("Accepted", strings.ToUpper(strings.Join(store.AcceptedKinds, ", ")), 48, 1, true, false)
	form.AddButton("Create", func() {
		name := form.GetFormItemByLabel("Claim name").(*tview.InputField).GetText()
		files := form.GetFormItemByLabel("Files").(*tview.InputField).GetText()
		if ui.createClaim(name, uploadsFromInput(files)) {
			ui.popModal()
		}
	})
	form.AddButton("Cancel", ui.popModal)
	form.SetBorder(true).SetTitle(" Add Claim ").SetTitleAlign(tview.AlignLeft)
	ui.theme.styleForm(form)
	ui.pushModal("add-claim", form, 64, 11)
}

// createClaim submits a new claim and reports whether it was accepted.
func (ui *UI) createClaim(name string, uploads []ingest.Upload) bool {
	if strings.TrimSpace(name) == "" {
		ui.setStatus("[%s]Claim name is required[-]", ui.theme.TagError)
		return false
	}
	c, err := ui.deps.Intake.CreateClaim(ui.ctx, name, ui.deps.Actor, uploads)
	if err != nil {
		ui.logger.Printf("create claim %q: %v", name, err)
		ui.setStatus("[%s]Could not create claim: %v[-]", ui.theme.TagError, err)
		return false
	}
	ui.query = ""
	ui.search.SetText("")
	ui.selectedID = c.ID
	if err := ui.refreshClaims(); err != nil {
		ui.logger.Printf("refresh claims: %v", err)
	}
	ui.setStatus("[%s]Claim %s created with %d documents; analysis in progress[-]", ui.theme.TagSuccess, c.ID, len(uploads))
	return true
}

func (ui *UI) showAddDocumentsForm() {
	c, ok := ui.selectedClaim()
	if !ok {
		ui.setStatus("Select a claim first")
		return
	}
	form := tview.NewForm()
	form.AddInputField("Files", "", 48, nil, nil)
	form.AddButton("Add", func() {
		files := form.GetFormItemByLabel("Files").(*tview.InputField).GetText()
		if ui.addDocuments(c.ID, uploadsFromInput(files)) {
			ui.popModal()
		}
	})
	form.AddButton("Cancel", ui.popModal)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Add Documents: %s ", c.Name)).SetTitleAlign(tview.AlignLeft)
	ui.theme.styleForm(form)
	ui.pushModal("add-documents", form, 64, 7)
}

func (ui *UI) addDocuments(claimID string, uploads []ingest.Upload) bool {
	if len(uploads) == 0 {
		ui.setStatus("[%s]Enter at least one file[-]", ui.theme.TagError)
		return false
	}
	docs, err := ui.deps.Intake.AddDocuments(ui.ctx, claimID, ui.deps.Actor, uploads)
	if err != nil {
		ui.logger.Printf("add documents to %s: %v", claimID, err)
		ui.setStatus("[%s]Could not add documents: %v[-]", ui.theme.TagError, err)
		return false
	}
	if err := ui.refreshClaims(); err != nil {
		ui.logger.Printf("refresh claims: %v", err)
	}
	ui.setStatus("[%s]Added %d documents to claim %s[-]", ui.theme.TagSuccess, len(docs), claimID)
	return true
}

func (ui *UI) selectedClaim() (store.Claim, bool) {
	for _, c := range ui.claims {
		if c.ID == ui.selectedID {
			return c, true
		}
	}
	return store.Claim{}, false
}

// pushModal centers p over the current screen and routes input to it.
func (ui *UI) pushModal(name string, p tview.Primitive, width, height int) {
	grid := tview.NewGrid().
		SetColumns(0, width, 0).
		SetRows(0, height, 0).
		AddItem(p, 1, 1, 1, 1, 0, 0, true)
	ui.modalFocus = append(ui.modalFocus, ui.app.GetFocus())
	ui.modals = append(ui.modals, name)
	ui.pages.AddPage(name, grid, true, true)
	ui.app.SetFocus(p)
}

// popModal closes the top modal and restores the focus it replaced.
func (ui *UI) popModal() {
	n := len(ui.modals)
	if n == 0 {
		return
	}
	name := ui.modals[n-1]
	focus := ui.modalFocus[n-1]
	ui.modals = ui.modals[:n-1]
	ui.modalFocus = ui.modalFocus[:n-1]
	ui.pages.RemovePage(name)
	if focus != nil {
		ui.app.SetFocus(focus)
	}
}

func (ui *UI) showModal(title, text string) {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true).
		SetText(text)
	tv.SetBorder(true).SetTitle(fmt.Sprintf(" %s (Esc to close) ", title)).SetTitleAlign(tview.AlignLeft)
	ui.theme.styleText(tv)
	tv.SetBorderColor(ui.theme.FocusBorder)
	ui.pushModal("modal-"+title, tv, 80, 24)
}

func (ui *UI) showHelp() {
	help := fmt.Sprintf(`[%[1]s::b]Claims[-:-:-]
  Enter  open report        /  search by name
  a      add claim          d  add documents to claim
  r      refresh            t  cycle theme
  q      quit               ?  this help

[%[1]s::b]Report[-:-:-]
  1/2/3  document / timeline / billing
  j/k    scroll             Enter on contents: jump to section
  e      toggle edit mode   k/v  key date / needs review (timeline)
  f/F    filter / clear     R    risk-only billing
  Enter  edit event (timeline, edit mode)
  E      export             i    insert last Elyon analysis
  Tab    switch to chat     Ctrl+L clear chat
  Esc/q  back to claims`, ui.theme.TagAccent)
	ui.showModal("Help", help)
}

func (ui *UI) setStatus(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	ui.lastMessage = message
	ui.statusBar.SetText(fmt.Sprintf("[%s]%s[-] [%s]|[-] %s",
		ui.theme.TagMuted, time.Now().Format("15:04:05"), ui.theme.TagMuted, message))
}

func (ui *UI) applyTheme() {
	ui.header.SetBackgroundColor(ui.theme.Surface)
	ui.header.SetTextColor(ui.theme.TextPrimary)
	ui.search.SetBackgroundColor(ui.theme.Surface)
	ui.search.SetLabelColor(ui.theme.Accent)
	ui.search.SetFieldBackgroundColor(ui.theme.SelectionBg)
	ui.search.SetFieldTextColor(ui.theme.TextPrimary)
	ui.theme.styleTable(ui.claimList)
	ui.theme.styleText(ui.detail)
	ui.statusBar.SetTextColor(ui.theme.TextPrimary)
	ui.statusBar.SetBackgroundColor(ui.theme.Bg)
	ui.renderClaims()
	if ui.report != nil {
		ui.report.applyTheme()
	}
}

func (ui *UI) setTheme(name string) {
	ui.theme, ui.themeName = themeByName(name)
	ui.applyTheme()
	ui.setStatus("[%s]Theme: %s[-]", ui.theme.TagAccent, ui.themeName)
}

// GetStats returns UI statistics
func (ui *UI) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"claims_loaded": len(ui.claims),
		"selected_id":   ui.selectedID,
		"report_open":   ui.current == screenReport,
		"chat_messages": len(ui.conv.Messages()),
		"theme":         ui.themeName,
		"truecolor":     ui.hasTrueColor,
	}
	if ui.report != nil {
		stats["report_claim"] = ui.report.rep.Claim.ID
		stats["active_section"] = ui.report.tracker.Active()
	}
	return stats
}
