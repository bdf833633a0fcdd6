package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parkhub/parkhub-tui/internal/auth"
	"github.com/parkhub/parkhub-tui/internal/parkhub"
)

// loginMsg reports the outcome of a sign-in attempt.
type loginMsg struct {
	profile auth.ProfileType
	name    string
	err     error
}

// loginForm collects credentials and the profile to sign in as.
// Focus 0 and 1 are the text inputs; 2 is the profile toggle.
type loginForm struct {
	email      textinput.Model
	password   textinput.Model
	profile    auth.ProfileType
	focus      int
	err        string
	submitting bool
}

func newLoginForm(profile auth.ProfileType) loginForm {
	email := textinput.New()
	email.Placeholder = "voce@exemplo.com"
	email.CharLimit = 120
	email.Width = 30
	email.Focus()

	password := textinput.New()
	password.Placeholder = "senha"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 120
	password.Width = 30

	if !profile.Valid() {
		profile = auth.Driver
	}
	return loginForm{email: email, password: password, profile: profile}
}

func (f *loginForm) setFocus(i int) {
	f.focus = (i%3 + 3) % 3
	f.email.Blur()
	f.password.Blur()
	switch f.focus {
	case 0:
		f.email.Focus()
	case 1:
		f.password.Focus()
	}
}

func (f *loginForm) toggleProfile() {
	if f.profile == auth.Company {
		f.profile = auth.Driver
	} else {
		f.profile = auth.Company
	}
}

func (f *loginForm) update(msg tea.KeyMsg, keys keyMap) (submit bool, cmd tea.Cmd) {
	if f.submitting {
		return false, nil
	}
	switch {
	case key.Matches(msg, keys.Submit):
		if f.focus == 2 || (f.email.Value() != "" && f.password.Value() != "") {
			return true, nil
		}
		f.setFocus(f.focus + 1)
		return false, nil
	case key.Matches(msg, keys.NextField):
		f.setFocus(f.focus + 1)
		return false, nil
	case key.Matches(msg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return false, nil
	}
	switch f.focus {
	case 0:
		f.email, cmd = f.email.Update(msg)
	case 1:
		f.password, cmd = f.password.Update(msg)
	case 2:
		if key.Matches(msg, keys.Toggle) {
			f.toggleProfile()
		}
	}
	return false, cmd
}

func (f loginForm) request() parkhub.LoginRequest {
	return parkhub.LoginRequest{
		Email:    strings.TrimSpace(f.email.Value()),
		Password: f.password.Value(),
		UserType: string(f.profile),
	}
}

// loginCmd signs in, stores the token and fetches the display name. A failed
// profile lookup does not undo the sign-in.
func loginCmd(ctx context.Context, api API, session Session, req parkhub.LoginRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := api.Login(ctx, req)
		if err != nil {
			return loginMsg{err: err}
		}
		profile, perr := auth.ParseProfileType(resp.UserType)
		if perr != nil {
			profile = auth.ProfileType(req.UserType)
		}
		if err := session.SignIn(resp.AccessToken, profile); err != nil {
			return loginMsg{err: err}
		}
		msg := loginMsg{profile: profile}
		if me, err := api.Me(ctx); err == nil {
			msg.name = me.Name
		}
		return msg
	}
}

func (f loginForm) view(styles Styles, theme Theme, width, height int) string {
	var b strings.Builder
	b.WriteString(styles.Logo.Render("ParkHub"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Entre com sua conta"))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)).Width(10)
	b.WriteString(label.Render("E-mail"))
	b.WriteString(f.email.View())
	b.WriteString("\n")
	b.WriteString(label.Render("Senha"))
	b.WriteString(f.password.View())
	b.WriteString("\n")

	b.WriteString(label.Render("Perfil"))
	options := []struct {
		profile auth.ProfileType
		label   string
	}{{auth.Driver, "Motorista"}, {auth.Company, "Empresa"}}
	for _, opt := range options {
		style := styles.TabInactive
		if opt.profile == f.profile {
			style = styles.TabActive
		}
		b.WriteString(style.Render(opt.label))
	}
	if f.focus == 2 {
		b.WriteString(styles.FaintText.Render("  ←/→"))
	}
	b.WriteString("\n\n")

	switch {
	case f.submitting:
		b.WriteString(styles.InfoText.Render("Entrando..."))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render("enter entrar · tab próximo campo · ctrl+c sair"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		styles.FocusPanel.Render(b.String()))
}
