package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkhub/parkhub-tui/internal/logtail"
)

// logFetchLimit bounds the number of lines read from the log file.
const logFetchLimit = 500

// logsMsg carries the formatted tail of the log file.
type logsMsg struct {
	lines []string
	err   error
}

// readLogsCmd reads the end of the application log.
func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, logFetchLimit)
		if err != nil {
			return logsMsg{err: err}
		}
		return logsMsg{lines: logtail.FormatLines(lines)}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	if msg.err != nil {
		m.logErr = msg.err.Error()
		return
	}
	m.logErr = ""
	content := strings.Join(msg.lines, "\n")
	switch {
	case m.logFile == "":
		content = "Log em arquivo desativado."
	case len(msg.lines) == 0:
		content = "Nenhuma linha de log ainda."
	}
	m.logViewport.SetContent(content)
	m.logViewport.GotoBottom()
}

// handleLogsKey scrolls the log viewport.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.screen = m.back
		if m.screen == screenLot && m.lot == nil {
			m.screen = screenMain
		}
		return m, m.checkSentinel()
	case key.Matches(msg, m.keys.Refresh):
		return m, readLogsCmd(m.logFile)
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// renderLogs renders the log viewport under its title.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Logs")
	if m.logFile != "" {
		title += "  " + styles.FaintText.Render(truncate(m.logFile, max(m.width-10, 10)))
	}
	if m.logErr != "" {
		return title + "\n" + styles.DangerText.Render(m.logErr)
	}
	return title + "\n" + m.logViewport.View()
}
