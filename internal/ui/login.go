package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guardcore/guarddash/internal/guardcore"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldTOTP
)

// loginForm collects either username/password/TOTP or a single API key.
type loginForm struct {
	inputs  []textinput.Model
	apiKey  textinput.Model
	useKey  bool
	focus   int
	pending bool
	err     string
}

func newLoginForm() loginForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	totp := textinput.New()
	totp.Placeholder = "totp code (optional)"
	totp.CharLimit = 8

	apiKey := textinput.New()
	apiKey.Placeholder = "api key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'

	return loginForm{
		inputs: []textinput.Model{username, password, totp},
		apiKey: apiKey,
	}
}

type loginResultMsg struct {
	err error
}

func (f *loginForm) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *loginForm) toggleMode() {
	f.useKey = !f.useKey
	f.err = ""
	if f.useKey {
		for j := range f.inputs {
			f.inputs[j].Blur()
		}
		f.apiKey.Focus()
		return
	}
	f.apiKey.Blur()
	f.setFocus(fieldUsername)
}

func (f *loginForm) reset() {
	*f = newLoginForm()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := &m.login
	if form.pending {
		return m, nil
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleAPIKey):
		form.toggleMode()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.submitLogin()
	case !form.useKey && key.Matches(msg, m.keys.NextField):
		form.setFocus(form.focus + 1)
		return m, nil
	case !form.useKey && key.Matches(msg, m.keys.PrevField):
		form.setFocus(form.focus - 1)
		return m, nil
	}

	var cmd tea.Cmd
	if form.useKey {
		form.apiKey, cmd = form.apiKey.Update(msg)
	} else {
		form.inputs[form.focus], cmd = form.inputs[form.focus].Update(msg)
	}
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	form := &m.login
	if form.useKey {
		apiKey := strings.TrimSpace(form.apiKey.Value())
		if apiKey == "" {
			form.err = "API key is required"
			return m, nil
		}
		form.pending = true
		form.err = ""
		session := m.session
		return m, func() tea.Msg {
			return loginResultMsg{err: session.SetAPIKey(apiKey)}
		}
	}

	username := strings.TrimSpace(form.inputs[fieldUsername].Value())
	password := form.inputs[fieldPassword].Value()
	totp := strings.TrimSpace(form.inputs[fieldTOTP].Value())
	if username == "" || password == "" {
		form.err = "Username and password are required"
		return m, nil
	}
	form.pending = true
	form.err = ""
	ctx, session := m.ctx, m.session
	return m, func() tea.Msg {
		_, err := session.Login(ctx, username, password, totp)
		return loginResultMsg{err: err}
	}
}

func (m Model) handleLoginResult(msg loginResultMsg) Model {
	m.login.pending = false
	if msg.err == nil {
		m.login.reset()
		return m
	}
	m.login.err = loginErrorText(msg.err)
	return m
}

func loginErrorText(err error) string {
	var apiErr *guardcore.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 0 {
			return "Cannot reach the server: " + apiErr.Message
		}
		return apiErr.Message
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled"
	}
	return err.Error()
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	form := m.login

	var b strings.Builder
	b.WriteString(styles.Logo.Render("guarddash"))
	b.WriteString("  ")
	b.WriteString(styles.MutedText.Render(m.baseURL))
	b.WriteString("\n\n")

	if form.useKey {
		b.WriteString(styles.AccentText.Render("API key"))
		b.WriteString("\n")
		b.WriteString(form.apiKey.View())
		b.WriteString("\n")
	} else {
		labels := []string{"Username", "Password", "TOTP"}
		for i, input := range form.inputs {
			b.WriteString(styles.AccentText.Render(labels[i]))
			b.WriteString("\n")
			b.WriteString(input.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case form.pending:
		b.WriteString(styles.WarningText.Render("Signing in..."))
	case form.err != "":
		b.WriteString(styles.DangerText.Render(form.err))
	default:
		b.WriteString(styles.FaintText.Render("enter sign in · tab next field · ctrl+k toggle API key · ctrl+c quit"))
	}

	panel := styles.Panel.
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 2).
		Width(56).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
