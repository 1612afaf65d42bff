package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PrivacyPolicyLines is the policy text shown before first use. Shared with
// the plain `qrtrack privacy` command.
func PrivacyPolicyLines() []string {
	return []string{
		"qrtrack privacy policy",
		"",
		"Projects you save (name, encoded content, colors and a rendered",
		"snapshot of the code) are stored on the qrtrack backend under your",
		"account and are removed when you delete the project or the account.",
		"",
		"Tracked codes redirect through the backend. Each scan records a",
		"timestamp and, when the scanner's network allows it, a coarse",
		"location. Coordinates are rounded before display and are never",
		"shown at street precision.",
		"",
		"Your bearer token, favorites, profile fields and the offline cache",
		"stay in a private directory on this machine and are sent nowhere",
		"except the backend the token belongs to.",
	}
}

type privacyModel struct {
	deps   Deps
	status string
}

func newPrivacyModel(deps Deps) privacyModel {
	return privacyModel{deps: deps}
}

func (m privacyModel) update(msg tea.Msg) (privacyModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			if err := m.deps.Session.AcceptPrivacy(); err != nil {
				m.status = errorStyle.Render(err.Error())
				return m, nil
			}
			return m, switchTo(screenHome)
		case "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m privacyModel) view() string {
	var b strings.Builder
	b.WriteString(panelString(strings.Join(PrivacyPolicyLines(), "\n")))
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("y accept · q decline and quit"))
	return b.String()
}
