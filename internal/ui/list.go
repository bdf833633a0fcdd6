package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkhub/parkhub-tui/internal/loader"
)

// paneID identifies the list a message belongs to.
type paneID int

const (
	paneLots paneID = iota
	paneVehicles
	paneEntries
	paneSessions
	paneLotActive
)

// pageMsg reports that a page fetch finished.
type pageMsg struct {
	pane paneID
	err  error
}

// listPane renders an incrementally loaded list with a cursor. The row after the
// last item is the sentinel; whenever it scrolls into view the next page is
// requested.
type listPane[T any] struct {
	id       paneID
	title    string
	header   string
	empty    string
	row      func(item T, width int) string
	loader   *loader.Loader[T]
	sentinel loader.Sentinel

	cursor int
	offset int
	height int
}

func newListPane[T any](id paneID, title string, l *loader.Loader[T], row func(T, int) string) *listPane[T] {
	return &listPane[T]{
		id:       id,
		title:    title,
		empty:    "Nenhum registro.",
		row:      row,
		loader:   l,
		sentinel: loader.DefaultSentinel(),
		height:   10,
	}
}

func (p *listPane[T]) fetchCmd(ctx context.Context, run func(context.Context) error) tea.Cmd {
	id := p.id
	return func() tea.Msg {
		return pageMsg{pane: id, err: run(ctx)}
	}
}

// start requests the first page on first activation.
func (p *listPane[T]) start(ctx context.Context) tea.Cmd {
	run, ok := p.loader.Start()
	if !ok {
		return nil
	}
	return p.fetchCmd(ctx, run)
}

// reload drops every item and fetches the first page again.
func (p *listPane[T]) reload(ctx context.Context) tea.Cmd {
	p.loader.Reset()
	p.cursor = 0
	p.offset = 0
	return p.start(ctx)
}

// retry re-requests the page that failed.
func (p *listPane[T]) retry(ctx context.Context) tea.Cmd {
	run, ok := p.loader.Next()
	if !ok {
		return nil
	}
	return p.fetchCmd(ctx, run)
}

// checkSentinel evaluates the sentinel against the visible window. A failed
// page is only fetched again through retry.
func (p *listPane[T]) checkSentinel(ctx context.Context) tea.Cmd {
	state := p.loader.State()
	if !state.HasMore || state.Err != "" {
		return nil
	}
	visible := p.sentinel.Visible(p.offset, p.height, len(state.Items))
	run, ok := p.loader.OnSentinel(visible)
	if !ok {
		return nil
	}
	return p.fetchCmd(ctx, run)
}

// failed reports whether the last page request failed.
func (p *listPane[T]) failed() bool {
	return p.loader.State().Err != ""
}

func (p *listPane[T]) setHeight(h int) {
	if h < 1 {
		h = 1
	}
	p.height = h
	p.clamp(len(p.loader.State().Items))
}

// move shifts the cursor by delta rows and scrolls to keep it visible.
func (p *listPane[T]) move(delta int) {
	p.cursor += delta
	p.clamp(len(p.loader.State().Items))
}

func (p *listPane[T]) top() {
	p.cursor = 0
	p.clamp(len(p.loader.State().Items))
}

func (p *listPane[T]) bottom() {
	p.cursor = len(p.loader.State().Items) - 1
	p.clamp(len(p.loader.State().Items))
}

func (p *listPane[T]) clamp(n int) {
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
	if p.offset < 0 {
		p.offset = 0
	}
}

func (p *listPane[T]) selected() (T, bool) {
	var zero T
	items := p.loader.State().Items
	if p.cursor < 0 || p.cursor >= len(items) {
		return zero, false
	}
	return items[p.cursor], true
}

// view renders the visible rows followed by the sentinel row.
func (p *listPane[T]) view(styles Styles, width int, spin string) string {
	state := p.loader.State()
	var b strings.Builder
	if p.header != "" {
		b.WriteString(styles.FaintText.Render(truncate(p.header, width)))
		b.WriteString("\n")
	}

	end := min(p.offset+p.height, len(state.Items))
	for i := p.offset; i < end; i++ {
		line := pad(p.row(state.Items[i], width-2), width-2)
		if i == p.cursor {
			b.WriteString(styles.Selected.Render("> " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		b.WriteString("\n")
	}

	switch {
	case state.Loading():
		b.WriteString(styles.InfoText.Render(spin + " Carregando..."))
	case state.Err != "":
		b.WriteString(styles.DangerText.Render(state.Err))
		b.WriteString(styles.FaintText.Render("  (r para tentar novamente)"))
	case len(state.Items) == 0 && !state.HasMore:
		b.WriteString(styles.MutedText.Render(p.empty))
	case !state.HasMore:
		b.WriteString(styles.FaintText.Render("Fim da lista."))
	}
	return b.String()
}
