package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/qr"
)

type analyticsModel struct {
	deps    Deps
	gen     int
	project projectRef

	analytics  *model.Analytics
	tracked    bool
	consented  bool
	askConsent bool
	loading    bool
	status     string
}

func newAnalyticsModel(deps Deps, ref projectRef, gen int) analyticsModel {
	return analyticsModel{
		deps:    deps,
		gen:     gen,
		project: ref,
		loading: true,
	}
}

func (m analyticsModel) update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analyticsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err))
			return m, nil
		}
		m.status = ""
		m.analytics = msg.analytics
		return m, nil
	case tea.KeyMsg:
		if m.askConsent {
			switch msg.String() {
			case "y", "Y":
				m.consented = true
				m.tracked = true
			}
			m.askConsent = false
			return m, nil
		}
		switch msg.String() {
		case "esc", "q":
			return m, switchTo(screenHome)
		case "t":
			switch {
			case m.tracked:
				m.tracked = false
			case m.consented:
				m.tracked = true
			default:
				m.askConsent = true
			}
			return m, nil
		case "r":
			m.loading = true
			return m, loadAnalyticsCmd(m.deps.Client, m.deps.token(), m.project.id, m.gen)
		case "c":
			return m, switchToProject(screenCustomize, m.project)
		case "o":
			target := linkTarget(m.project.text)
			if err := clipboard.WriteAll(target); err != nil {
				m.status = errorStyle.Render("clipboard: " + err.Error())
			} else {
				m.status = successStyle.Render("copied " + target)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m analyticsModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.project.name))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.project.text))
	b.WriteString("\n\n")

	content := m.project.text
	label := "direct"
	if m.tracked {
		content = m.deps.Client.TrackURL(m.project.id)
		label = "tracked"
	}
	if block, err := qr.Terminal(content); err == nil {
		b.WriteString(block)
	}
	b.WriteString(accentStyle.Render(label))
	if m.tracked {
		b.WriteString(mutedStyle.Render("  scans of this code are counted"))
	}
	b.WriteString("\n\n")

	if m.askConsent {
		b.WriteString(pendingStyle.Render("tracked mode counts each scan with a coarse location, enable? y/N"))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(pendingStyle.Render("loading analytics"))
		b.WriteString("\n")
	case m.analytics != nil:
		b.WriteString(fmt.Sprintf("scans: %s\n", successStyle.Render(fmt.Sprintf("%d", m.analytics.ScanCount))))
		located := 0
		for _, ev := range m.analytics.ScanEvents {
			if ev.Location != nil {
				located++
			}
		}
		if len(m.analytics.ScanEvents) > 0 {
			b.WriteString(fmt.Sprintf("located: %d/%d\n", located, len(m.analytics.ScanEvents)))
		}
		var lines []string
		for _, ev := range m.analytics.ScanEvents {
			when := ev.Timestamp
			if ts, err := time.Parse(time.RFC3339, ev.Timestamp); err == nil {
				when = ts.Local().Format("2006-01-02 15:04")
			}
			where := mutedStyle.Render("no location")
			if ev.Location != nil {
				where = fmt.Sprintf("%s (%.1f, %.1f)", ev.Location.Label(), ev.Location.RoundedLat(), ev.Location.RoundedLon())
			}
			lines = append(lines, fmt.Sprintf("%s  %s", when, where))
		}
		if len(lines) > 0 {
			b.WriteString(panelString(strings.Join(lines, "\n")))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("t tracked/direct · c colors · o copy link · r refresh · esc back"))
	return b.String()
}

// linkTarget turns the encoded content into something a browser can open.
// Plain text becomes a search query.
func linkTarget(text string) string {
	if u, err := url.Parse(text); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return text
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(text)
}
