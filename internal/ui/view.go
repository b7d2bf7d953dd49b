package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"borgview/internal/domain"
	"borgview/internal/services"
	"borgview/internal/state"
)

const (
	modeColumnWidth = 10
	dateColumnWidth = 19
	sizeColumnWidth = 10
	minPathWidth    = 12
)

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	dirStyle    lipgloss.Style
	crumbStyle  lipgloss.Style
	panelBorder lipgloss.Style
}

func stylesFor(model Model) uiStyles {
	if strings.ToLower(model.cfg.Theme) == "light" {
		return uiStyles{
			headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			dirStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
			crumbStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("25")),
			panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		dirStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		crumbStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	styles := stylesFor(model)
	if model.showHelp {
		return renderHelpView(model, styles)
	}
	sections := []string{
		renderHeader(model, styles),
		renderFilterBar(model, styles),
		renderBreadcrumbs(model.panel.Filter, styles),
		renderContent(model, styles),
		renderFooter(model, styles),
	}
	return strings.Join(sections, "\n")
}

func renderHeader(model Model, styles uiStyles) string {
	title := styles.headerStyle.Render("borgview")
	archive := model.panel.Archive.DisplayName()
	if model.panel.Filter.Diffing() {
		archive += styles.mutedStyle.Render(fmt.Sprintf("  [diff vs %s]", model.panel.Filter.DiffArchiveID))
	}
	phase := styles.statusStyle.Render(strings.ToUpper(model.panel.Phase.String()))
	return padLine(title+"  "+archive, phase, model.width)
}

func renderFilterBar(model Model, styles uiStyles) string {
	if model.editing != "" {
		return model.input.View()
	}
	filter := model.panel.Filter
	parts := []string{
		fmt.Sprintf("Mode: %s", strings.ToUpper(string(filter.Mode))),
		fmt.Sprintf("Max: %s", filter.MaxSize),
	}
	if filter.Search != "" {
		parts = append(parts, fmt.Sprintf("Search: %s", filter.Search))
	}
	if filter.Diffing() {
		parts = append(parts, fmt.Sprintf("Diff: %s", filter.DiffArchiveID))
	}
	return styles.mutedStyle.Render(strings.Join(parts, "  "))
}

// renderBreadcrumbs numbers each segment. Segments up to 9 have a digit
// key; deeper ones are reached through the breadcrumb prompt.
func renderBreadcrumbs(filter domain.Filter, styles uiStyles) string {
	crumbs := state.Breadcrumbs(filter)
	if len(crumbs) == 0 {
		if filter.Mode == domain.ModeTree {
			return styles.crumbStyle.Render("0 /")
		}
		return ""
	}
	parts := []string{styles.crumbStyle.Render("0 /")}
	for index, crumb := range crumbs {
		parts = append(parts, styles.crumbStyle.Render(fmt.Sprintf("%d %s", index+1, crumb.Name)))
	}
	return strings.Join(parts, " › ")
}

func renderContent(model Model, styles uiStyles) string {
	switch model.panel.Content() {
	case state.ContentJobs:
		return renderJobPanel(model.spinner.View(), model.jobSnapshot, styles)
	case state.ContentFailed:
		return renderFailure(model.panel, styles)
	case state.ContentLoadPrompt:
		return renderLoadPrompt(model, styles)
	case state.ContentTable:
		return renderTable(model, styles)
	default:
		return ""
	}
}

// renderJobPanel shows the backend jobs working on the listing. It only
// draws what it is given.
func renderJobPanel(frame string, snapshot services.JobSnapshot, styles uiStyles) string {
	lines := []string{frame + " Loading file list..."}
	for _, job := range snapshot.Jobs {
		line := "  " + job.Summary()
		if percent := job.Percent(); percent >= 0 {
			line += fmt.Sprintf(" (%d%%)", int(percent*100))
		}
		lines = append(lines, line)
	}
	if snapshot.Err != nil {
		lines = append(lines, styles.mutedStyle.Render(fmt.Sprintf("  job status unavailable: %v", snapshot.Err)))
	}
	if !snapshot.Polled.IsZero() {
		lines = append(lines, styles.mutedStyle.Render("  updated "+snapshot.Polled.Format("15:04:05")))
	}
	return strings.Join(lines, "\n")
}

func renderFailure(panel state.Panel, styles uiStyles) string {
	lines := []string{
		styles.warnStyle.Render("Cannot load archive file list"),
		panel.Failure,
		styles.mutedStyle.Render("Press r to try again"),
	}
	return strings.Join(lines, "\n")
}

func renderLoadPrompt(model Model, styles uiStyles) string {
	lines := []string{
		"The file list of this archive has not been loaded from the backup server yet.",
		"Loading it may take a while for large archives.",
		"",
		styles.statusStyle.Render(fmt.Sprintf("Press enter or %s to load file list from borg backup server", bindingKey(model.keys.Load))),
	}
	return strings.Join(lines, "\n")
}

func renderTable(model Model, styles uiStyles) string {
	visible := model.panel.Visible()
	pathWidth := maxInt(model.width-modeColumnWidth-dateColumnWidth-sizeColumnWidth-3, minPathWidth)
	header := styles.headerStyle.Render(tableRow("Mode", "Date", "Size", "Path", pathWidth))
	lines := []string{header}
	if len(visible) == 0 {
		lines = append(lines, styles.mutedStyle.Render("(no entries)"))
		return strings.Join(lines, "\n")
	}
	height := maxInt(model.listHeight(), 1)
	start := clamp(model.viewTop, 0, maxInt(len(visible)-1, 0))
	end := minInt(start+height, len(visible))
	for index := start; index < end; index++ {
		entry := visible[index]
		line := tableRow(entry.Mode, entry.Date, entry.Size, pathCell(entry), pathWidth)
		switch {
		case index == model.cursor:
			line = styles.cursorStyle.Render(line)
		case entry.IsDir():
			line = styles.dirStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func tableRow(mode, date, size, path string, pathWidth int) string {
	return strings.Join([]string{
		cell(mode, modeColumnWidth),
		cell(date, dateColumnWidth),
		runewidth.FillLeft(runewidth.Truncate(size, sizeColumnWidth, "…"), sizeColumnWidth),
		runewidth.Truncate(path, pathWidth, "…"),
	}, " ")
}

func pathCell(entry domain.FileEntry) string {
	if note := entry.Note(); note != "" {
		return entry.Path + "  " + note
	}
	return entry.Path
}

func cell(value string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(value, width, "…"), width)
}

func renderFooter(model Model, styles uiStyles) string {
	statusStyle := styles.mutedStyle
	if model.panel.Phase == state.PhaseFailed || strings.Contains(strings.ToLower(model.status), "error") {
		statusStyle = styles.warnStyle
	}
	statusLine := statusStyle.Render(trimStatus(model.status, model.width))
	left := fmt.Sprintf("%d/%d", minInt(model.cursor+1, len(model.visibleEntries())), len(model.visibleEntries()))
	keys := "↑/↓ move  enter open  ⌫ up  [/] back/fwd  0-9/g crumb  t mode  / search  z max  d diff  r reload  ? help  q quit"
	if model.editing != "" {
		keys = "enter apply  esc cancel"
	}
	footerLine := padLine(left, keys, model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderHelpView(model Model, styles uiStyles) string {
	bindings := []key.Binding{
		model.keys.Up,
		model.keys.Down,
		model.keys.PageUp,
		model.keys.PageDown,
		model.keys.Enter,
		model.keys.Parent,
		model.keys.HistoryBack,
		model.keys.HistoryNext,
		model.keys.Crumb,
		model.keys.GoToCrumb,
		model.keys.NextArchive,
		model.keys.ToggleMode,
		model.keys.Search,
		model.keys.ClearSearch,
		model.keys.MaxSize,
		model.keys.Diff,
		model.keys.Reload,
		model.keys.Load,
		model.keys.Cancel,
		model.keys.Help,
		model.keys.Quit,
	}

	lines := []string{styles.headerStyle.Render("borgview Help"), ""}
	lines = append(lines, styles.headerStyle.Render("Browsing"))
	lines = append(lines, "tree mode lists one directory", "flat mode lists every file up to the max entries", "search matches anywhere in the path, ignoring case")
	lines = append(lines, "", styles.headerStyle.Render("Loading"))
	lines = append(lines, "archives must be listed by the server once", "the job panel shows server progress meanwhile")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range bindings {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-22s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? or esc to close help")
	content := strings.Join(lines, "\n")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(content)
}

func bindingKey(binding key.Binding) string {
	keys := binding.Keys()
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || runewidth.StringWidth(message) <= max {
		return message
	}
	return runewidth.Truncate(message, max, "...")
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
