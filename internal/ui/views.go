package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkhub/parkhub-tui/internal/auth"
	"github.com/parkhub/parkhub-tui/internal/brtime"
	"github.com/parkhub/parkhub-tui/internal/loader"
	"github.com/parkhub/parkhub-tui/internal/parkhub"
	"github.com/parkhub/parkhub-tui/internal/poll"
)

// pane is the behavior shared by list and snapshot panes.
type pane interface {
	move(delta int)
	setHeight(h int)
}

// buildPanes creates the tab panes for the signed-in profile.
func (m *Model) buildPanes() {
	limit := loader.WithLimit(m.pageSize)
	logger := loader.WithLogger(m.log)
	api := m.api
	clock := m.clock

	switch m.profile {
	case auth.Company:
		m.myLots = newListPane(paneLots, "Meus estacionamentos",
			loader.New[parkhub.ParkingLot](api.ListMyParkingLots, limit, logger), lotRow)
		m.myLots.header = lotHeader
		m.myLots.empty = "Nenhum estacionamento cadastrado."

		entries := func(ctx context.Context, page loader.PageRequest) ([]parkhub.Entry, error) {
			start, end, err := brtime.DayBoundsUTC(brtime.CurrentCivilDate(clock))
			if err != nil {
				return nil, err
			}
			return api.ListEntries(ctx, page, parkhub.EntryFilter{Start: start, End: end})
		}
		m.entries = newListPane(paneEntries, "Entradas de hoje",
			loader.New[parkhub.Entry](entries, limit, logger), entryRow)
		m.entries.header = entryHeader
		m.entries.empty = "Nenhuma entrada registrada hoje."

	default:
		m.lots = newListPane(paneLots, "Estacionamentos",
			loader.New[parkhub.ParkingLot](api.ListParkingLots, limit, logger), lotRow)
		m.lots.header = lotHeader
		m.lots.empty = "Nenhum estacionamento disponível."

		m.vehicles = newListPane(paneVehicles, "Meus veículos",
			loader.New[parkhub.Vehicle](api.ListVehicles, limit, logger), vehicleRow)
		m.vehicles.header = vehicleHeader
		m.vehicles.empty = "Nenhum veículo cadastrado. Pressione n para cadastrar."

		m.sessions = newPollPane(paneSessions, "Estacionados agora",
			poll.New[parkhub.ActiveSession](api.ListActiveSessions, poll.WithLogger(m.log), poll.WithClock(clock.Now)),
			sessionRow)
		m.sessions.header = sessionHeader
	}
}

// tabTitles lists the tabs shown for the signed-in profile.
func (m Model) tabTitles() []string {
	if m.profile == auth.Company {
		return []string{m.myLots.title, m.entries.title}
	}
	return []string{m.lots.title, m.vehicles.title, m.sessions.title}
}

// activePane returns the pane behind the selected tab.
func (m Model) activePane() pane {
	if m.screen == screenLot && m.lot != nil {
		return m.lot.active
	}
	if m.profile == auth.Company {
		if m.tab == 1 {
			return m.entries
		}
		return m.myLots
	}
	switch m.tab {
	case 1:
		return m.vehicles
	case 2:
		return m.sessions
	default:
		return m.lots
	}
}

// activeList returns the incremental list behind the selected tab, if any.
func (m Model) activeList() listLike {
	switch p := m.activePane().(type) {
	case *listPane[parkhub.ParkingLot]:
		return p
	case *listPane[parkhub.Vehicle]:
		return p
	case *listPane[parkhub.Entry]:
		return p
	}
	return nil
}

// listByID returns the list pane that owns id, if it exists.
func (m Model) listByID(id paneID) listLike {
	switch {
	case id == paneLots && m.lots != nil:
		return m.lots
	case id == paneLots && m.myLots != nil:
		return m.myLots
	case id == paneVehicles && m.vehicles != nil:
		return m.vehicles
	case id == paneEntries && m.entries != nil:
		return m.entries
	}
	return nil
}

// listLike is the untyped view of a listPane.
type listLike interface {
	pane
	start(ctx context.Context) tea.Cmd
	reload(ctx context.Context) tea.Cmd
	retry(ctx context.Context) tea.Cmd
	checkSentinel(ctx context.Context) tea.Cmd
	failed() bool
	top()
	bottom()
}

// activateTab starts the data source behind the selected tab on first use.
func (m Model) activateTab() tea.Cmd {
	if l := m.activeList(); l != nil {
		return l.start(m.sessCtx)
	}
	if p, ok := m.activePane().(*pollPane[parkhub.ActiveSession]); ok {
		return p.activate(m.sessCtx, m.pollInterval)
	}
	return nil
}

// checkSentinel asks the visible list whether its sentinel row is in view.
func (m Model) checkSentinel() tea.Cmd {
	if m.screen != screenMain || m.form != nil {
		return nil
	}
	if l := m.activeList(); l != nil {
		return l.checkSentinel(m.sessCtx)
	}
	return nil
}

// resize hands the content height to every pane.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	h := max(m.bodyHeight()-3, 1)
	if m.lots != nil {
		m.lots.setHeight(h)
	}
	if m.vehicles != nil {
		m.vehicles.setHeight(h)
	}
	if m.myLots != nil {
		m.myLots.setHeight(h)
	}
	if m.entries != nil {
		m.entries.setHeight(h)
	}
	if m.sessions != nil {
		m.sessions.setHeight(h - 1)
	}
	if m.lot != nil {
		m.lot.active.setHeight(max(h-lotSummaryRows, 1))
	}
	m.logViewport.Width = m.width
	m.logViewport.Height = max(m.bodyHeight()-1, 1)
}

// handleMainKey processes keys on the tabbed screen.
func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	titles := m.tabTitles()
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % len(titles)
		m.resize()
		return m, tea.Batch(m.activateTab(), m.checkSentinel())
	case key.Matches(msg, m.keys.ShiftTab):
		m.tab = (m.tab - 1 + len(titles)) % len(titles)
		m.resize()
		return m, tea.Batch(m.activateTab(), m.checkSentinel())
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshActive()
	case key.Matches(msg, m.keys.Open):
		if m.profile == auth.Company && m.tab == 0 {
			if lot, ok := m.myLots.selected(); ok {
				return m, m.openLot(lot)
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.New):
		if m.profile != auth.Company && m.tab == 1 {
			m.form = newVehicleForm()
		}
		return m, nil
	}
	return m, m.navigate(msg)
}

// navigate moves the cursor of the active pane and re-checks the sentinel.
func (m *Model) navigate(msg tea.KeyMsg) tea.Cmd {
	p := m.activePane()
	if p == nil {
		return nil
	}
	page := max(m.bodyHeight()-4, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		p.move(-1)
	case key.Matches(msg, m.keys.Down):
		p.move(1)
	case key.Matches(msg, m.keys.PageUp):
		p.move(-page)
	case key.Matches(msg, m.keys.PageDown):
		p.move(page)
	case key.Matches(msg, m.keys.Top):
		if l, ok := p.(listLike); ok {
			l.top()
		} else {
			p.move(-1 << 30)
		}
	case key.Matches(msg, m.keys.Bottom):
		if l, ok := p.(listLike); ok {
			l.bottom()
		} else {
			p.move(1 << 30)
		}
	default:
		return nil
	}
	return m.checkSentinel()
}

// refreshActive retries a failed page, reloads a list or refreshes a
// snapshot, depending on the active pane.
func (m Model) refreshActive() tea.Cmd {
	if l := m.activeList(); l != nil {
		if l.failed() {
			return l.retry(m.sessCtx)
		}
		return l.reload(m.sessCtx)
	}
	if p, ok := m.activePane().(*pollPane[parkhub.ActiveSession]); ok {
		return p.refresh(m.sessCtx)
	}
	return nil
}

// renderTab renders the tab strip and the active pane.
func (m Model) renderTab() string {
	styles := m.theme.Styles()
	var b strings.Builder
	for i, title := range m.tabTitles() {
		if i == m.tab {
			b.WriteString(styles.TabActive.Render(title))
		} else {
			b.WriteString(styles.TabInactive.Render(title))
		}
	}
	b.WriteString("\n")

	width := max(m.width-4, 10)
	spin := m.spinner.View()
	var body string
	switch p := m.activePane().(type) {
	case *listPane[parkhub.ParkingLot]:
		body = p.view(styles, width, spin)
	case *listPane[parkhub.Vehicle]:
		body = p.view(styles, width, spin)
	case *listPane[parkhub.Entry]:
		body = p.view(styles, width, spin)
	case *pollPane[parkhub.ActiveSession]:
		body = p.view(styles, width, spin, m.now)
	}
	b.WriteString(styles.Panel.Width(m.width - 2).Render(body))
	return b.String()
}

// Rows

var (
	lotHeader     = fmt.Sprintf("%-28s %-36s %6s", "Nome", "Endereço", "Vagas")
	vehicleHeader = fmt.Sprintf("%-9s %-24s %s", "Placa", "Nome", "País")
	entryHeader   = fmt.Sprintf("%-9s %-18s %-18s %s", "Placa", "Entrada", "Saída", "Valor")
	sessionHeader = fmt.Sprintf("%-9s %-22s %-18s %-7s %s", "Placa", "Empresa", "Entrada", "Tempo", "Valor")
)

func lotRow(l parkhub.ParkingLot, width int) string {
	return fmt.Sprintf("%s %s %6d", pad(l.Name, 28), pad(l.Address, 36), l.TotalSpots)
}

func vehicleRow(v parkhub.Vehicle, width int) string {
	name := v.Name
	if name == "" {
		name = emptyValue
	}
	return fmt.Sprintf("%s %s %s", pad(v.Plate, 9), pad(name, 24), v.Country)
}

func entryRow(e parkhub.Entry, width int) string {
	exit := "estacionado"
	if !e.Open() {
		exit = brtime.FormatForDisplay(e.ExitDate.String, true)
	}
	return fmt.Sprintf("%s %s %s %s",
		pad(e.Plate, 9),
		pad(brtime.FormatForDisplay(e.EntranceDate, true), 18),
		pad(exit, 18),
		FormatNullCents(e.PriceCents))
}

func sessionRow(s parkhub.ActiveSession, width int, now time.Time) string {
	entered := emptyValue
	elapsed := emptyValue
	if at := s.EnteredAt(); !at.IsZero() {
		entered = brtime.FormatTime(at, true)
		elapsed = formatDuration(now.Sub(at))
	}
	company := s.Company.Name
	if company == "" {
		company = emptyValue
	}
	return fmt.Sprintf("%s %s %s %s %s",
		pad(s.Vehicle.Plate, 9),
		pad(company, 22),
		pad(entered, 18),
		pad(elapsed, 7),
		FormatNullCents(s.CurrentPriceCents))
}
