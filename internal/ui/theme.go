package ui

import (
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme defines UI color tokens used across widgets and text tags.
type Theme struct {
	// Widget colors
	Bg          tcell.Color
	Surface     tcell.Color
	Border      tcell.Color
	FocusBorder tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	TextPrimary tcell.Color
	TextMuted   tcell.Color
	Accent      tcell.Color
	Success     tcell.Color
	Warning     tcell.Color
	Error       tcell.Color
	Header      tcell.Color

	// Table colors
	TableHeader   tcell.Color
	TableHeaderBg tcell.Color
	TableRow      tcell.Color
	TableRowMuted tcell.Color

	// Risk levels (widgets)
	RiskHigh   tcell.Color
	RiskMedium tcell.Color
	RiskLow    tcell.Color

	// Text tag colors (for tview dynamic color markup)
	TagTextPrimary string
	TagMuted       string
	TagAccent      string
	TagSuccess     string
	TagWarning     string
	TagError       string
	TagRiskHigh    string
	TagRiskMedium  string
	TagRiskLow     string
}

// helpers
func hex(s string) tcell.Color { return tcell.GetColor(s) }

func themeDark() Theme {
	return Theme{
		Bg:          hex("#0e1116"),
		Surface:     hex("#12161e"),
		Border:      hex("#2b3240"),
		FocusBorder: hex("#4aa8ff"),
		SelectionBg: hex("#2b3240"),
		SelectionFg: hex("#cfd8e3"),
		TextPrimary: hex("#e6edf3"),
		TextMuted:   hex("#8a939f"),
		Accent:      hex("#2dd4bf"),
		Success:     hex("#22c55e"),
		Warning:     hex("#f59e0b"),
		Error:       hex("#ef4444"),
		Header:      hex("#eab308"),

		TableHeader:   hex("#eab308"),
		TableHeaderBg: hex("#1a2332"),
		TableRow:      hex("#e6edf3"),
		TableRowMuted: hex("#94a3b8"),

		RiskHigh:   hex("#ff5f5f"),
		RiskMedium: hex("#ffd75f"),
		RiskLow:    hex("#87ffaf"),

		TagTextPrimary: "#e6edf3",
		TagMuted:       "#8a939f",
		TagAccent:      "#2dd4bf",
		TagSuccess:     "#22c55e",
		TagWarning:     "#f59e0b",
		TagError:       "#ef4444",
		TagRiskHigh:    "#ff5f5f",
		TagRiskMedium:  "#ffd75f",
		TagRiskLow:     "#87ffaf",
	}
}

func themeLight() Theme {
	return Theme{
		Bg:          hex("#f6f8fa"),
		Surface:     hex("#ffffff"),
		Border:      hex("#d0d7de"),
		FocusBorder: hex("#1f6feb"),
		SelectionBg: hex("#e2e8f0"),
		SelectionFg: hex("#111827"),
		TextPrimary: hex("#111827"),
		TextMuted:   hex("#6b7280"),
		Accent:      hex("#2563eb"),
		Success:     hex("#15803d"),
		Warning:     hex("#b45309"),
		Error:       hex("#b91c1c"),
		Header:      hex("#1f2937"),

		TableHeader:   hex("#1f2937"),
		TableHeaderBg: hex("#e5e7eb"),
		TableRow:      hex("#111827"),
		TableRowMuted: hex("#6b7280"),

		RiskHigh:   hex("#dc2626"),
		RiskMedium: hex("#ca8a04"),
		RiskLow:    hex("#16a34a"),

		TagTextPrimary: "#111827",
		TagMuted:       "#6b7280",
		TagAccent:      "#2563eb",
		TagSuccess:     "#15803d",
		TagWarning:     "#b45309",
		TagError:       "#b91c1c",
		TagRiskHigh:    "#dc2626",
		TagRiskMedium:  "#ca8a04",
		TagRiskLow:     "#16a34a",
	}
}

func themeHighContrast() Theme {
	return Theme{
		Bg:          hex("#000000"),
		Surface:     hex("#000000"),
		Border:      hex("#ffffff"),
		FocusBorder: hex("#ffff00"),
		SelectionBg: hex("#ffffff"),
		SelectionFg: hex("#000000"),
		TextPrimary: hex("#ffffff"),
		TextMuted:   hex("#cccccc"),
		Accent:      hex("#00ffff"),
		Success:     hex("#00ff00"),
		Warning:     hex("#ffff00"),
		Error:       hex("#ff0000"),
		Header:      hex("#ffffff"),

		TableHeader:   hex("#ffffff"),
		TableHeaderBg: hex("#000000"),
		TableRow:      hex("#ffffff"),
		TableRowMuted: hex("#cccccc"),

		RiskHigh:   hex("#ff0000"),
		RiskMedium: hex("#ffff00"),
		RiskLow:    hex("#00ff00"),

		TagTextPrimary: "#ffffff",
		TagMuted:       "#cccccc",
		TagAccent:      "#00ffff",
		TagSuccess:     "#00ff00",
		TagWarning:     "#ffff00",
		TagError:       "#ff0000",
		TagRiskHigh:    "#ff0000",
		TagRiskMedium:  "#ffff00",
		TagRiskLow:     "#00ff00",
	}
}

// themeSlate is the default: the dashboard's blue-grey with an amber accent.
func themeSlate() Theme {
	t := themeDark()
	t.Bg = hex("#0f172a")
	t.Surface = hex("#111827")
	t.Border = hex("#334155")
	t.FocusBorder = hex("#f59e0b")
	t.SelectionBg = hex("#1e3a5f")
	t.SelectionFg = hex("#f8fafc")
	t.Accent = hex("#60a5fa")
	t.TagAccent = "#60a5fa"
	t.TableHeaderBg = hex("#1e293b")
	return t
}

var themeOrder = []string{"slate", "dark", "light", "high-contrast"}

func themeByName(name string) (Theme, string) {
	switch name {
	case "dark":
		return themeDark(), name
	case "light":
		return themeLight(), name
	case "high-contrast":
		return themeHighContrast(), name
	default:
		return themeSlate(), "slate"
	}
}

func nextThemeName(current string) string {
	for i, n := range themeOrder {
		if n == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func detectTrueColor() bool {
	ct := strings.ToLower(os.Getenv("COLORTERM"))
	if strings.Contains(ct, "truecolor") || strings.Contains(ct, "24bit") {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "truecolor") || strings.Contains(term, "24bit") || strings.Contains(term, "256color")
}

// riskTag returns the markup color for a risk or severity level.
func (t Theme) riskTag(level string) string {
	switch strings.ToLower(level) {
	case "high":
		return t.TagRiskHigh
	case "medium":
		return t.TagRiskMedium
	case "low":
		return t.TagRiskLow
	default:
		return t.TagTextPrimary
	}
}

func (t Theme) riskColor(level string) tcell.Color {
	switch strings.ToLower(level) {
	case "high":
		return t.RiskHigh
	case "medium":
		return t.RiskMedium
	case "low":
		return t.RiskLow
	default:
		return t.TableRow
	}
}

// styleForm applies the theme to a tview.Form used as a modal.
func (t Theme) styleForm(form *tview.Form) {
	form.SetBackgroundColor(t.Surface)
	form.SetFieldBackgroundColor(t.SelectionBg)
	form.SetFieldTextColor(t.TextPrimary)
	form.SetLabelColor(t.TextPrimary)
	form.SetButtonBackgroundColor(t.SelectionBg)
	form.SetButtonTextColor(t.SelectionFg)
	form.SetBorderColor(t.FocusBorder)
	form.SetTitleColor(t.Header)
}

func (t Theme) styleTable(tbl *tview.Table) {
	tbl.SetSelectedStyle(tcell.StyleDefault.Background(t.SelectionBg).Foreground(t.SelectionFg))
	tbl.SetBorderColor(t.Border)
	tbl.SetBackgroundColor(t.Surface)
	tbl.SetTitleColor(t.Header)
}

func (t Theme) styleText(tv *tview.TextView) {
	tv.SetTextColor(t.TextPrimary)
	tv.SetBorderColor(t.Border)
	tv.SetBackgroundColor(t.Surface)
	tv.SetTitleColor(t.Header)
}

// headerCell builds a non-selectable table header cell.
func (t Theme) headerCell(text string) *tview.TableCell {
	return tview.NewTableCell(text).
		SetTextColor(t.TableHeader).
		SetBackgroundColor(t.TableHeaderBg).
		SetAttributes(tcell.AttrBold).
		SetSelectable(false)
}
