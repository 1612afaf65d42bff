package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/session"
)

type registerModel struct {
	deps Deps
	gen  int

	email    textinput.Model
	password textinput.Model
	focusPW  bool

	submitting bool
	status     string
}

func newRegisterModel(deps Deps, gen int) registerModel {
	em := textinput.New()
	em.Placeholder = "email"
	em.CharLimit = 128
	em.Focus()

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.CharLimit = 128
	pw.EchoMode = textinput.EchoPassword

	return registerModel{deps: deps, gen: gen, email: em, password: pw}
}

func registerCmd(s *session.Session, email, password string, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := s.Register(ctx, email, password)
		return registeredMsg{gen: gen, err: err}
	}
}

func (m registerModel) update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registeredMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err))
			return m, nil
		}
		m.status = successStyle.Render("account created, log in with `qrtrack login`")
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, switchTo(screenAccount)
		case tea.KeyTab, tea.KeyShiftTab:
			m.focusPW = !m.focusPW
			if m.focusPW {
				m.email.Blur()
				m.password.Focus()
			} else {
				m.password.Blur()
				m.email.Focus()
			}
			return m, textinput.Blink
		case tea.KeyEnter:
			if m.submitting {
				return m, nil
			}
			if !m.focusPW {
				m.focusPW = true
				m.email.Blur()
				m.password.Focus()
				return m, textinput.Blink
			}
			email := strings.TrimSpace(m.email.Value())
			password := m.password.Value()
			if email == "" || password == "" {
				m.status = errorStyle.Render("email and password are required")
				return m, nil
			}
			m.submitting = true
			m.status = pendingStyle.Render("registering")
			return m, registerCmd(m.deps.Session, email, password, m.gen)
		}
	}

	var cmd tea.Cmd
	if m.focusPW {
		m.password, cmd = m.password.Update(msg)
	} else {
		m.email, cmd = m.email.Update(msg)
	}
	return m, cmd
}

func (m registerModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("register"))
	b.WriteString("\n\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab switch field · enter submit · esc back"))
	return b.String()
}
