package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkhub/parkhub-tui/internal/poll"
)

// refreshMsg reports that a poller refresh finished.
type refreshMsg struct {
	pane paneID
	err  error
}

// pollPane renders a poller snapshot with a cursor.
type pollPane[T any] struct {
	id     paneID
	title  string
	header string
	empty  string
	row    func(item T, width int, now time.Time) string
	poller *poll.Poller[T]

	cursor int
	offset int
	height int
}

func newPollPane[T any](id paneID, title string, p *poll.Poller[T], row func(T, int, time.Time) string) *pollPane[T] {
	return &pollPane[T]{
		id:     id,
		title:  title,
		empty:  "Nenhum veículo estacionado no momento.",
		row:    row,
		poller: p,
		height: 10,
	}
}

func (p *pollPane[T]) refreshCmd(ctx context.Context, run func(context.Context) error) tea.Cmd {
	id := p.id
	return func() tea.Msg {
		return refreshMsg{pane: id, err: run(ctx)}
	}
}

// activate fetches on first activation. With a positive interval the poller
// also refreshes in the background until ctx ends or the pane is closed.
func (p *pollPane[T]) activate(ctx context.Context, interval time.Duration) tea.Cmd {
	run, ok := p.poller.Start()
	if !ok {
		return nil
	}
	cmds := []tea.Cmd{p.refreshCmd(ctx, run)}
	if interval > 0 {
		poller := p.poller
		cmds = append(cmds, func() tea.Msg {
			timer := time.NewTimer(interval)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
			poller.Run(ctx, interval)
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// refresh issues a manual refresh.
func (p *pollPane[T]) refresh(ctx context.Context) tea.Cmd {
	run, ok := p.poller.Next()
	if !ok {
		return nil
	}
	return p.refreshCmd(ctx, run)
}

// close stops the poller from applying results.
func (p *pollPane[T]) close() {
	p.poller.Close()
}

func (p *pollPane[T]) snapshot() poll.Snapshot[T] {
	return p.poller.Snapshot()
}

func (p *pollPane[T]) setHeight(h int) {
	if h < 1 {
		h = 1
	}
	p.height = h
	p.move(0)
}

func (p *pollPane[T]) move(delta int) {
	n := len(p.snapshot().Items)
	p.cursor += delta
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+p.height {
		p.offset = p.cursor - p.height + 1
	}
}

func (p *pollPane[T]) selected() (T, bool) {
	var zero T
	items := p.snapshot().Items
	if p.cursor < 0 || p.cursor >= len(items) {
		return zero, false
	}
	return items[p.cursor], true
}

func (p *pollPane[T]) view(styles Styles, width int, spin string, now time.Time) string {
	snap := p.snapshot()
	var b strings.Builder

	status := styles.FaintText.Render("atualizado " + formatUpdated(snap.LastUpdated, now))
	if snap.Loading() {
		status = styles.InfoText.Render(spin + " Atualizando...")
	}
	if snap.IsOffline() {
		status += " " + styles.StatusStyle("offline").Render("OFFLINE")
	}
	b.WriteString(status)
	b.WriteString("\n")

	if p.header != "" {
		b.WriteString(styles.FaintText.Render(truncate(p.header, width)))
		b.WriteString("\n")
	}

	if snap.Err != "" {
		b.WriteString(styles.DangerText.Render(snap.Err))
		b.WriteString(styles.FaintText.Render("  (r para tentar novamente)"))
		return b.String()
	}
	if len(snap.Items) == 0 {
		if !snap.Loading() && !snap.LastUpdated.IsZero() {
			b.WriteString(styles.MutedText.Render(p.empty))
		}
		return b.String()
	}

	end := min(p.offset+p.height, len(snap.Items))
	for i := p.offset; i < end; i++ {
		line := pad(p.row(snap.Items[i], width-2, now), width-2)
		if i == p.cursor {
			b.WriteString(styles.Selected.Render("> " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
