package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/brtime"
	"github.com/parkhub/parkhub-tui/internal/parkhub"
	"github.com/parkhub/parkhub-tui/internal/poll"
)

// lotSummaryRows is the height taken by the lot summary above the active list.
const lotSummaryRows = 6

// lotDetail is the company view of a single lot.
type lotDetail struct {
	id      int64
	lot     parkhub.ParkingLot
	prices  []parkhub.Price
	quote   parkhub.PriceQuote
	loading bool
	err     string
	active  *pollPane[parkhub.ActiveSession]

	ctx    context.Context
	cancel context.CancelFunc
}

// lotDetailMsg carries the lot, its price table and the price in effect now.
type lotDetailMsg struct {
	id     int64
	lot    parkhub.ParkingLot
	prices []parkhub.Price
	quote  parkhub.PriceQuote
	err    error
}

// openLot switches to the lot detail screen and starts loading it.
func (m *Model) openLot(lot parkhub.ParkingLot) tea.Cmd {
	m.closeLot()
	ctx, cancel := context.WithCancel(m.sessCtx)
	id := lot.ID
	api := m.api
	active := newPollPane[parkhub.ActiveSession](paneLotActive, "Veículos estacionados",
		poll.New[parkhub.ActiveSession](func(ctx context.Context) ([]parkhub.ActiveSession, error) {
			return api.ListLotActiveVehicles(ctx, id)
		}, poll.WithLogger(m.log), poll.WithClock(m.clock.Now)),
		sessionRow)
	active.header = sessionHeader

	m.lot = &lotDetail{
		id:      id,
		lot:     lot,
		loading: true,
		active:  active,
		ctx:     ctx,
		cancel:  cancel,
	}
	m.screen = screenLot
	m.status = ""
	m.resize()
	return tea.Batch(m.loadLotCmd(), active.activate(ctx, m.pollInterval))
}

// closeLot stops the lot's poller and any background refresh.
func (m *Model) closeLot() {
	if m.lot == nil {
		return
	}
	m.lot.active.close()
	m.lot.cancel()
	m.lot = nil
	if m.screen == screenLot {
		m.screen = screenMain
	}
}

// loadLotCmd fetches the lot, its prices and the current price concurrently.
// The current price is looked up for the present weekday and hour in Brasília.
func (m Model) loadLotCmd() tea.Cmd {
	if m.lot == nil {
		return nil
	}
	ctx := m.lot.ctx
	id := m.lot.id
	api := m.api
	clock := m.clock
	return func() tea.Msg {
		msg := lotDetailMsg{id: id}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			lot, err := api.GetParkingLot(gctx, id)
			msg.lot = lot
			return err
		})
		g.Go(func() error {
			prices, err := api.ListPrices(gctx, id)
			msg.prices = prices
			return err
		})
		g.Go(func() error {
			weekday := brtime.APIWeekdayFromCivilWeekday(brtime.CurrentCivilWeekday(clock))
			quote, err := api.CurrentPrice(gctx, id, weekday, brtime.CurrentCivilHour(clock))
			msg.quote = quote
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (m *Model) handleLotDetail(msg lotDetailMsg) {
	if m.lot == nil || m.lot.id != msg.id {
		return
	}
	m.lot.loading = false
	if msg.err != nil {
		m.lot.err = apperr.Message(msg.err)
		m.log.Warn().Err(msg.err).Int64("lot_id", msg.id).Msg("load lot failed")
		return
	}
	m.lot.err = ""
	m.lot.lot = msg.lot
	m.lot.prices = msg.prices
	m.lot.quote = msg.quote
}

// handleLotKey processes keys on the lot detail screen.
func (m Model) handleLotKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeLot()
		m.resize()
		return m, m.checkSentinel()
	case key.Matches(msg, m.keys.Refresh):
		m.lot.loading = true
		return m, tea.Batch(m.loadLotCmd(), m.lot.active.refresh(m.lot.ctx))
	case key.Matches(msg, m.keys.New):
		m.form = newEntryForm()
		return m, nil
	case key.Matches(msg, m.keys.NewPrice):
		m.form = newPriceForm(brtime.APIWeekdayFromCivilWeekday(brtime.CurrentCivilWeekday(m.clock)))
		return m, nil
	case key.Matches(msg, m.keys.Exit):
		s, ok := m.lot.active.selected()
		if !ok {
			return m, nil
		}
		m.status = "Registrando saída de " + s.Vehicle.Plate + "..."
		m.statusErr = false
		return m, registerExitCmd(m.lot.ctx, m.api, parkhub.EntryInput{
			Plate:        s.Vehicle.Plate,
			ParkingLotID: m.lot.id,
		})
	}
	return m, m.navigate(msg)
}

// renderLot renders the lot summary, its price table and the parked vehicles.
func (m Model) renderLot() string {
	styles := m.theme.Styles()
	d := m.lot
	width := max(m.width-4, 10)

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(d.lot.Name))
	if d.loading {
		b.WriteString(" " + styles.InfoText.Render(m.spinner.View()))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(truncate(d.lot.Address, width)))
	b.WriteString("\n")

	if d.err != "" {
		b.WriteString(styles.DangerText.Render(d.err))
		b.WriteString(styles.FaintText.Render("  (r para tentar novamente)"))
		b.WriteString("\n")
	} else {
		b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			styles.FaintText.Render("Vagas"),
			styles.Text.Render(fmt.Sprint(d.lot.TotalSpots)),
			styles.FaintText.Render("Preço agora"),
			styles.SuccessText.Render(FormatNullCents(d.quote.PriceCents))))
	}
	b.WriteString(styles.FaintText.Render(truncate(priceTable(d.prices), width)))
	b.WriteString("\n\n")

	b.WriteString(d.active.view(styles, width, m.spinner.View(), m.now))
	return styles.Panel.Width(m.width - 2).Render(b.String())
}

// priceTable summarizes pricing rules on one line, e.g.
// "Seg 08-18h R$ 5,00 · Ter 08-18h R$ 5,00".
func priceTable(prices []parkhub.Price) string {
	if len(prices) == 0 {
		return "Nenhum preço cadastrado. Pressione p para cadastrar."
	}
	parts := make([]string, 0, len(prices))
	for _, p := range prices {
		parts = append(parts, fmt.Sprintf("%s %02d-%02dh %s",
			WeekdayName(p.Weekday), p.StartHour, p.EndHour, FormatCents(p.PriceCents)))
	}
	return strings.Join(parts, " · ")
}
