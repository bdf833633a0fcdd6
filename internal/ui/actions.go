package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/loadstate"
	"github.com/parkhub/parkhub-tui/internal/parkhub"
)

// actionMsg reports the result of a write to the API.
type actionMsg struct {
	kind formKind
	text string
	err  error
}

func newVehicleForm() *form {
	return newForm(formVehicle, "Novo veículo",
		formField{label: "Placa", placeholder: "ABC1D23", limit: 8},
		formField{label: "Nome", placeholder: "opcional", limit: 60},
		formField{label: "País", value: "BR", limit: 2},
	)
}

func newEntryForm() *form {
	return newForm(formEntry, "Registrar entrada",
		formField{label: "Placa", placeholder: "ABC1D23", limit: 8},
	)
}

func newPriceForm(weekday int) *form {
	return newForm(formPrice, "Novo preço",
		formField{label: "Dia", value: WeekdayName(weekday), placeholder: "Seg..Dom", limit: 3},
		formField{label: "Início (h)", placeholder: "8", limit: 2},
		formField{label: "Fim (h)", placeholder: "18", limit: 2},
		formField{label: "Preço", placeholder: "5,00", limit: 12},
	)
}

// handleFormKey routes keys to the open form. Esc cancels it.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		m.form = nil
		return m, m.checkSentinel()
	}
	submit, cmd := m.form.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	action, err := m.submitForm()
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	m.form.err = ""
	m.form.submitting = true
	return m, action
}

// submitForm parses the open form into the command that performs it.
func (m Model) submitForm() (tea.Cmd, error) {
	f := m.form
	switch f.kind {
	case formVehicle:
		in := parkhub.VehicleInput{
			Plate:   f.value(0),
			Name:    f.value(1),
			Country: strings.ToUpper(f.value(2)),
		}
		return createVehicleCmd(m.sessCtx, m.api, in), nil

	case formEntry:
		if m.lot == nil {
			return nil, fmt.Errorf("nenhum estacionamento selecionado")
		}
		in := parkhub.EntryInput{Plate: f.value(0), ParkingLotID: m.lot.id}
		return registerEntryCmd(m.lot.ctx, m.api, in), nil

	case formPrice:
		if m.lot == nil {
			return nil, fmt.Errorf("nenhum estacionamento selecionado")
		}
		in, err := parsePriceForm(f, m.lot.id)
		if err != nil {
			return nil, err
		}
		return createPriceCmd(m.lot.ctx, m.api, in), nil
	}
	return nil, fmt.Errorf("formulário desconhecido")
}

// parsePriceForm reads the weekday, hour range and amount of a price form.
func parsePriceForm(f *form, lotID int64) (parkhub.PriceInput, error) {
	weekday, err := parseWeekday(f.value(0))
	if err != nil {
		return parkhub.PriceInput{}, err
	}
	start, err := strconv.Atoi(f.value(1))
	if err != nil {
		return parkhub.PriceInput{}, fmt.Errorf("hora inicial inválida")
	}
	end, err := strconv.Atoi(f.value(2))
	if err != nil {
		return parkhub.PriceInput{}, fmt.Errorf("hora final inválida")
	}
	cents, err := ParseCents(f.value(3))
	if err != nil {
		return parkhub.PriceInput{}, err
	}
	return parkhub.PriceInput{
		ParkingLotID: lotID,
		Weekday:      weekday,
		StartHour:    start,
		EndHour:      end,
		PriceCents:   cents,
	}, nil
}

// parseWeekday accepts a short pt-BR day name or an API weekday number.
func parseWeekday(value string) (int, error) {
	v := strings.TrimSpace(value)
	for i, name := range weekdayNames {
		if strings.EqualFold(v, name) {
			return i, nil
		}
	}
	if strings.EqualFold(v, "Sab") {
		return 5, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(weekdayNames) {
		return n, nil
	}
	return 0, fmt.Errorf("dia inválido %q", value)
}

func createVehicleCmd(ctx context.Context, api API, in parkhub.VehicleInput) tea.Cmd {
	return func() tea.Msg {
		v, err := api.CreateVehicle(ctx, in)
		return actionMsg{kind: formVehicle, text: "Veículo " + v.Plate + " cadastrado.", err: err}
	}
}

func registerEntryCmd(ctx context.Context, api API, in parkhub.EntryInput) tea.Cmd {
	return func() tea.Msg {
		e, err := api.RegisterEntry(ctx, in)
		return actionMsg{kind: formEntry, text: "Entrada de " + e.Plate + " registrada.", err: err}
	}
}

// registerExitCmd is not backed by a form; kind stays zero.
func registerExitCmd(ctx context.Context, api API, in parkhub.EntryInput) tea.Cmd {
	return func() tea.Msg {
		e, err := api.RegisterExit(ctx, in)
		text := "Saída de " + e.Plate + " registrada."
		if e.PriceCents.Valid {
			text += " Valor: " + FormatCents(e.PriceCents.Int64) + "."
		}
		return actionMsg{text: text, err: err}
	}
}

func createPriceCmd(ctx context.Context, api API, in parkhub.PriceInput) tea.Cmd {
	return func() tea.Msg {
		_, err := api.CreatePrice(ctx, in)
		return actionMsg{kind: formPrice, text: "Preço cadastrado.", err: err}
	}
}

// handleAction applies the result of a write and refreshes what it touched.
// Failed form submissions keep the form open with the error.
func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warn().Err(msg.err).Int("form", int(msg.kind)).Msg("action failed")
		if m.form != nil && m.form.kind == msg.kind {
			m.form.submitting = false
			m.form.err = apperr.Message(msg.err)
			return m, nil
		}
		m.setStatus("", msg.err)
		return m, nil
	}

	if m.form != nil && m.form.kind == msg.kind {
		m.form = nil
	}
	m.setStatus(msg.text, nil)

	var cmds []tea.Cmd
	switch msg.kind {
	case formVehicle:
		if m.vehicles != nil {
			cmds = append(cmds, m.vehicles.reload(m.sessCtx))
		}
	case formPrice:
		if m.lot != nil {
			m.lot.loading = true
			cmds = append(cmds, m.loadLotCmd())
		}
	default:
		// Entries and exits change the parked list and today's entries.
		if m.lot != nil {
			m.lot.loading = true
			cmds = append(cmds, m.lot.active.refresh(m.lot.ctx), m.loadLotCmd())
		}
		if m.entries != nil && m.entries.loader.State().Phase != loadstate.Idle {
			cmds = append(cmds, m.entries.reload(m.sessCtx))
		}
	}
	return m, tea.Batch(cmds...)
}

// renderForm centers the open form over the content area.
func (m Model) renderForm() string {
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center,
		m.form.view(m.theme.Styles(), m.theme))
}
