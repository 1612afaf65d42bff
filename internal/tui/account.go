package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/session"
)

type accountMode int

const (
	accountNormal accountMode = iota
	accountEditBirthday
	accountEditPhone
	accountConfirmDelete
)

type accountModel struct {
	deps Deps
	gen  int

	profile session.Profile
	input   textinput.Model
	mode    accountMode
	status  string
}

func newAccountModel(deps Deps, gen int) accountModel {
	profile, err := deps.Session.Profile()
	m := accountModel{deps: deps, gen: gen, profile: profile, input: textinput.New()}
	if err != nil {
		m.status = errorStyle.Render(err.Error())
	}
	return m
}

func deleteAccountCmd(s *session.Session, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := s.DeleteAccount(ctx)
		return accountDeletedMsg{gen: gen, err: err}
	}
}

func (m accountModel) update(msg tea.Msg) (accountModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDeletedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err))
			return m, nil
		}
		m.profile = session.Profile{}
		m.status = successStyle.Render("account deleted")
		return m, nil
	case tea.KeyMsg:
		if m.mode == accountConfirmDelete {
			switch msg.String() {
			case "y", "Y":
				m.mode = accountNormal
				m.status = pendingStyle.Render("deleting account")
				return m, deleteAccountCmd(m.deps.Session, m.gen)
			default:
				m.mode = accountNormal
			}
			return m, nil
		}
		if m.mode == accountEditBirthday || m.mode == accountEditPhone {
			switch msg.Type {
			case tea.KeyEsc:
				m.mode = accountNormal
				m.input.Blur()
				return m, nil
			case tea.KeyEnter:
				value := strings.TrimSpace(m.input.Value())
				if m.mode == accountEditBirthday {
					m.profile.Birthday = value
				} else {
					m.profile.Phone = value
				}
				m.mode = accountNormal
				m.input.Blur()
				if err := m.deps.Session.SaveProfile(m.profile.Birthday, m.profile.Phone); err != nil {
					m.status = errorStyle.Render(err.Error())
				} else {
					m.status = successStyle.Render("profile saved")
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc", "q":
			return m, switchTo(screenHome)
		case "b":
			m.mode = accountEditBirthday
			m.input.Placeholder = "yyyy-mm-dd"
			m.input.SetValue(m.profile.Birthday)
			m.input.Focus()
			return m, textinput.Blink
		case "p":
			m.mode = accountEditPhone
			m.input.Placeholder = "phone"
			m.input.SetValue(m.profile.Phone)
			m.input.Focus()
			return m, textinput.Blink
		case "l":
			if err := m.deps.Session.Logout(); err != nil {
				m.status = errorStyle.Render(err.Error())
			} else {
				m.profile = session.Profile{}
				m.status = successStyle.Render("logged out")
			}
			return m, nil
		case "R":
			return m, switchTo(screenRegister)
		case "D":
			m.mode = accountConfirmDelete
			return m, nil
		}
	}
	return m, nil
}

func (m accountModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("account"))
	b.WriteString("\n\n")

	email := m.profile.Email
	if email == "" {
		email = mutedStyle.Render("not logged in")
	}
	b.WriteString("email     " + email + "\n")
	b.WriteString("birthday  " + orDash(m.profile.Birthday) + "\n")
	b.WriteString("phone     " + orDash(m.profile.Phone) + "\n\n")

	switch m.mode {
	case accountEditBirthday, accountEditPhone:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case accountConfirmDelete:
		b.WriteString(errorStyle.Render("delete this account and all its projects? y/N"))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("b birthday · p phone · l logout · R register · D delete account · esc back"))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return mutedStyle.Render("-")
	}
	return s
}
