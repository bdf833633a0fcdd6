package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/auth"
	"github.com/parkhub/parkhub-tui/internal/brtime"
	"github.com/parkhub/parkhub-tui/internal/kv"
	"github.com/parkhub/parkhub-tui/internal/loader"
	"github.com/parkhub/parkhub-tui/internal/parkhub"
)

// ThemeKey is the durable store key holding the selected theme name.
const ThemeKey = "theme"

// API is the subset of the ParkHub client used by the UI.
type API interface {
	Login(ctx context.Context, req parkhub.LoginRequest) (parkhub.LoginResponse, error)
	Me(ctx context.Context) (parkhub.Profile, error)
	ListParkingLots(ctx context.Context, page loader.PageRequest) ([]parkhub.ParkingLot, error)
	ListMyParkingLots(ctx context.Context, page loader.PageRequest) ([]parkhub.ParkingLot, error)
	GetParkingLot(ctx context.Context, id int64) (parkhub.ParkingLot, error)
	ListPrices(ctx context.Context, lotID int64) ([]parkhub.Price, error)
	CurrentPrice(ctx context.Context, lotID int64, weekday, hour int) (parkhub.PriceQuote, error)
	CreatePrice(ctx context.Context, in parkhub.PriceInput) (parkhub.Price, error)
	ListLotActiveVehicles(ctx context.Context, lotID int64) ([]parkhub.ActiveSession, error)
	ListVehicles(ctx context.Context, page loader.PageRequest) ([]parkhub.Vehicle, error)
	CreateVehicle(ctx context.Context, in parkhub.VehicleInput) (parkhub.Vehicle, error)
	ListActiveSessions(ctx context.Context) ([]parkhub.ActiveSession, error)
	ListEntries(ctx context.Context, page loader.PageRequest, filter parkhub.EntryFilter) ([]parkhub.Entry, error)
	RegisterEntry(ctx context.Context, in parkhub.EntryInput) (parkhub.Entry, error)
	RegisterExit(ctx context.Context, in parkhub.EntryInput) (parkhub.Entry, error)
}

// Session is the authentication state the UI reads and updates.
type Session interface {
	Authenticated(now time.Time) bool
	Profile() (auth.ProfileType, bool)
	SignIn(token string, p auth.ProfileType) error
	SignOut() error
	HandleUnauthorized()
}

// screen is the top-level view being shown.
type screen int

const (
	screenLogin screen = iota
	screenMain
	screenLot
	screenLogs
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	API          API
	Session      Session
	Prefs        kv.Store
	PageSize     int
	PollInterval time.Duration
	LogFile      string
	Logger       zerolog.Logger
	Clock        brtime.Clock
	ThemeName    string
	// Expired receives a value each time the API rejects the session token.
	Expired <-chan struct{}
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	api          API
	session      Session
	prefs        kv.Store
	log          zerolog.Logger
	clock        brtime.Clock
	pageSize     int
	pollInterval time.Duration
	logFile      string
	expired      <-chan struct{}

	// Per sign-in lifetime for background pollers
	sessCtx    context.Context
	sessCancel context.CancelFunc

	// UI state
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	theme    Theme
	width    int
	height   int
	ready    bool
	screen   screen
	back     screen
	showHelp bool
	now      time.Time

	// Account
	profile  auth.ProfileType
	userName string
	login    loginForm

	// Tabs and panes
	tab      int
	lots     *listPane[parkhub.ParkingLot]
	vehicles *listPane[parkhub.Vehicle]
	sessions *pollPane[parkhub.ActiveSession]
	myLots   *listPane[parkhub.ParkingLot]
	entries  *listPane[parkhub.Entry]
	lot      *lotDetail
	form     *form

	// Logs
	logViewport viewport.Model
	logErr      string

	// Status line
	status    string
	statusErr bool
}

// New creates a new Bubble Tea model. A stored, unexpired session opens the
// main screen directly.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clock := opts.Clock
	if clock == nil {
		clock = brtime.SystemClock{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = loader.DefaultLimit
	}
	prefs := opts.Prefs
	if prefs == nil {
		prefs = kv.NewMemory()
	}

	themeName := opts.ThemeName
	if stored, ok := prefs.Get(ThemeKey); ok && stored != "" {
		themeName = stored
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		ctx:          ctx,
		api:          opts.API,
		session:      opts.Session,
		prefs:        prefs,
		log:          opts.Logger,
		clock:        clock,
		pageSize:     pageSize,
		pollInterval: opts.PollInterval,
		logFile:      opts.LogFile,
		expired:      opts.Expired,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		theme:        GetTheme(themeName),
		now:          clock.Now(),
		screen:       screenLogin,
	}

	profile, _ := m.session.Profile()
	m.login = newLoginForm(profile)
	if m.session.Authenticated(m.now) && profile.Valid() {
		m.enterMain(profile)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(),
		m.spinner.Tick,
		waitExpired(m.expired),
		textinput.Blink,
	}
	if m.screen == screenMain {
		cmds = append(cmds, m.activateTab())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, max(m.bodyHeight()-1, 1))
		}
		m.ready = true
		m.resize()
		return m, m.checkSentinel()

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionExpiredMsg:
		m.expire()
		return m, waitExpired(m.expired)

	case loginMsg:
		return m.handleLogin(msg)

	case pageMsg:
		return m.handlePage(msg)

	case refreshMsg:
		// Snapshots are read on render; nothing else to do.
		return m, nil

	case lotDetailMsg:
		m.handleLotDetail(msg)
		return m, nil

	case actionMsg:
		return m.handleAction(msg)

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	return m, m.forwardToInputs(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	if m.screen == screenLogin {
		return m.login.view(m.theme.Styles(), m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	if m.screen == screenLogin {
		return m.handleLoginKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		m.logout()
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		if m.screen != screenLogs {
			m.back = m.screen
			m.screen = screenLogs
		}
		return m, readLogsCmd(m.logFile)
	}

	switch m.screen {
	case screenLogs:
		return m.handleLogsKey(msg)
	case screenLot:
		return m.handleLotKey(msg)
	default:
		return m.handleMainKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	submit, cmd := m.login.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	req := m.login.request()
	m.login.err = ""
	m.login.submitting = true
	return m, loginCmd(m.ctx, m.api, m.session, req)
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	m.login.submitting = false
	if msg.err != nil {
		m.login.err = apperr.Message(msg.err)
		m.log.Warn().Err(msg.err).Msg("sign in failed")
		return m, nil
	}
	m.log.Info().Str("profile", string(msg.profile)).Msg("signed in")
	m.userName = msg.name
	m.enterMain(msg.profile)
	m.resize()
	return m, m.activateTab()
}

// enterMain builds fresh panes for profile and shows the main screen.
func (m *Model) enterMain(profile auth.ProfileType) {
	if m.sessCancel != nil {
		m.sessCancel()
	}
	m.sessCtx, m.sessCancel = context.WithCancel(m.ctx)
	m.profile = profile
	m.screen = screenMain
	m.tab = 0
	m.form = nil
	m.lot = nil
	m.status = ""
	m.buildPanes()
}

// leave tears down the signed-in state and shows the login screen.
func (m *Model) leave(message string) {
	if m.sessCancel != nil {
		m.sessCancel()
		m.sessCancel = nil
	}
	m.closeLot()
	if m.sessions != nil {
		m.sessions.close()
	}
	m.lots, m.vehicles, m.sessions, m.myLots, m.entries = nil, nil, nil, nil, nil
	m.form = nil
	m.showHelp = false
	m.userName = ""
	m.screen = screenLogin
	m.login = newLoginForm(m.profile)
	m.login.err = message
}

func (m *Model) logout() {
	if err := m.session.SignOut(); err != nil {
		m.log.Warn().Err(err).Msg("sign out")
	}
	m.log.Info().Msg("signed out")
	m.leave("")
}

// expire handles a rejected or locally expired token. The session has already
// dropped the token.
func (m *Model) expire() {
	if m.screen == screenLogin {
		return
	}
	m.log.Info().Msg("session expired")
	m.leave(apperr.MsgUnauthorized)
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if err := m.prefs.Set(ThemeKey, m.theme.Name); err != nil {
		m.log.Warn().Err(err).Msg("save theme")
	}
}

func (m Model) quit() tea.Cmd {
	if m.sessCancel != nil {
		m.sessCancel()
	}
	return tea.Quit
}

// handleTick re-renders with the current time and checks token expiry.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.now = m.clock.Now()
	if m.screen != screenLogin && !m.session.Authenticated(m.now) {
		m.session.HandleUnauthorized()
		m.expire()
	}
	return m, tickCmd()
}

func (m Model) handlePage(msg pageMsg) (tea.Model, tea.Cmd) {
	// A reload issued while a page was in flight waits for it; start it now.
	var restart tea.Cmd
	if l := m.listByID(msg.pane); l != nil {
		restart = l.start(m.sessCtx)
	}
	if msg.err != nil {
		m.log.Debug().Err(msg.err).Int("pane", int(msg.pane)).Msg("page load failed")
		return m, restart
	}
	return m, tea.Batch(restart, m.checkSentinel())
}

// setStatus shows the outcome of an action in the footer.
func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.status = apperr.Message(err)
		m.statusErr = true
		return
	}
	m.status = text
	m.statusErr = false
}

// forwardToInputs passes non-key messages such as cursor blinks to the
// focused inputs.
func (m *Model) forwardToInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.login.email, cmd = m.login.email.Update(msg)
		cmds = append(cmds, cmd)
		m.login.password, cmd = m.login.password.Update(msg)
		cmds = append(cmds, cmd)
	default:
		if m.form != nil {
			for i := range m.form.inputs {
				m.form.inputs[i], cmd = m.form.inputs[i].Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}
	return tea.Batch(cmds...)
}

// bodyHeight is the number of rows left for content below the header and
// above the footer.
func (m Model) bodyHeight() int {
	return max(m.height-6, 1)
}

// renderMain renders the header, the active screen and the footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	if m.form != nil {
		return m.renderForm()
	}
	switch m.screen {
	case screenLogs:
		return m.renderLogs()
	case screenLot:
		return m.renderLot()
	default:
		return m.renderTab()
	}
}

// Messages

type tickMsg time.Time

type sessionExpiredMsg struct{}

// Commands

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitExpired blocks until the session reports an expired token.
func waitExpired(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionExpiredMsg{}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
