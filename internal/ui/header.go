package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/parkhub/parkhub-tui/internal/auth"
	"github.com/parkhub/parkhub-tui/internal/brtime"
)

// renderHeader renders the top bar: logo, account, connectivity and the
// Brasília clock.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	left := []string{styles.Logo.Render("ParkHub")}
	profile := "Motorista"
	if m.profile == auth.Company {
		profile = "Empresa"
	}
	left = append(left, styles.MutedText.Render(profile))
	if m.userName != "" {
		left = append(left, styles.Text.Render(m.userName))
	}
	if m.offline() {
		left = append(left, styles.StatusStyle("offline").Render("OFFLINE"))
	}

	clock := styles.AccentText.Render(brtime.FormatTime(m.now, true)) +
		styles.FaintText.Render(" Brasília")

	leftStr := strings.Join(left, "  ")
	gap := max(m.width-lipgloss.Width(leftStr)-lipgloss.Width(clock)-2, 1)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Padding(0, 1).
		Render(leftStr + strings.Repeat(" ", gap) + clock)
}

// offline reports whether the visible snapshot has failed repeatedly.
func (m Model) offline() bool {
	if m.screen == screenLot && m.lot != nil {
		return m.lot.active.snapshot().IsOffline()
	}
	if m.sessions != nil {
		return m.sessions.snapshot().IsOffline()
	}
	return false
}

// renderFooter renders the status line above the key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	status := styles.FaintText.Render(m.screenHint())
	if m.status != "" {
		if m.statusErr {
			status = styles.DangerText.Render(m.status)
		} else {
			status = styles.SuccessText.Render(m.status)
		}
	}
	return styles.Footer.Render(status) + "\n" + styles.Footer.Render(m.help.View(m.keys))
}

// screenHint names the actions specific to the current screen.
func (m Model) screenHint() string {
	switch m.screen {
	case screenLot:
		return "n entrada · x saída · p preço · r atualizar · esc voltar"
	case screenLogs:
		return "j/k rolar · r recarregar · esc voltar"
	}
	if m.profile == auth.Company {
		return "enter abrir estacionamento · r atualizar"
	}
	if m.tab == 1 {
		return "n novo veículo · r atualizar"
	}
	return "r atualizar"
}
