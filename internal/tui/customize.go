package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/bus"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/qr"
)

type customizeModel struct {
	deps    Deps
	gen     int
	project projectRef

	qrInput textinput.Model
	bgInput textinput.Model
	focusBG bool

	saving bool
	status string
}

func newCustomizeModel(deps Deps, ref projectRef, gen int) customizeModel {
	qrColor := model.DefaultQRColor
	bgColor := model.DefaultBGColor
	for _, p := range deps.VM.Projects() {
		if p.ID == ref.id {
			qrColor = p.EffectiveQRColor()
			bgColor = p.EffectiveBGColor()
			break
		}
	}

	qi := textinput.New()
	qi.Placeholder = model.DefaultQRColor
	qi.SetValue(qrColor)
	qi.CharLimit = 7
	qi.Focus()

	bi := textinput.New()
	bi.Placeholder = model.DefaultBGColor
	bi.SetValue(bgColor)
	bi.CharLimit = 7

	return customizeModel{deps: deps, gen: gen, project: ref, qrInput: qi, bgInput: bi}
}

func (m customizeModel) update(msg tea.Msg) (customizeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case colorsSavedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.saving = false
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err))
			return m, nil
		}
		m.status = successStyle.Render("colors saved")
		m.deps.Bus.Publish(bus.EventCustomizationUpdated, bus.CustomizationUpdated{
			ID:   msg.id,
			Name: msg.name,
			Text: msg.text,
		})
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, switchToProject(screenAnalytics, m.project)
		case tea.KeyTab, tea.KeyShiftTab:
			m.focusBG = !m.focusBG
			if m.focusBG {
				m.qrInput.Blur()
				m.bgInput.Focus()
			} else {
				m.bgInput.Blur()
				m.qrInput.Focus()
			}
			return m, textinput.Blink
		case tea.KeyEnter:
			return m.save()
		}
		if msg.String() == "ctrl+r" {
			m.qrInput.SetValue(model.DefaultQRColor)
			m.bgInput.SetValue(model.DefaultBGColor)
			m.status = mutedStyle.Render("reset to defaults, enter to save")
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focusBG {
		m.bgInput, cmd = m.bgInput.Update(msg)
	} else {
		m.qrInput, cmd = m.qrInput.Update(msg)
	}
	return m, cmd
}

func (m customizeModel) save() (customizeModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	qrColor := strings.TrimSpace(m.qrInput.Value())
	bgColor := strings.TrimSpace(m.bgInput.Value())
	if !qr.ValidHexColor(qrColor) || !qr.ValidHexColor(bgColor) {
		m.status = errorStyle.Render("colors must look like #1a2b3c")
		return m, nil
	}
	snapshot, err := qr.SnapshotBase64(m.project.text, qrColor, bgColor)
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return m, nil
	}
	m.saving = true
	m.status = pendingStyle.Render("saving")
	p := model.Project{ID: m.project.id, Name: m.project.name, Text: m.project.text}
	return m, saveColorsCmd(m.deps.Client, m.deps.token(), p, qrColor, bgColor, snapshot, m.gen)
}

func (m customizeModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("customize " + m.project.name))
	b.WriteString("\n\n")

	qrColor := m.qrInput.Value()
	bgColor := m.bgInput.Value()
	if qr.ValidHexColor(qrColor) && qr.ValidHexColor(bgColor) {
		swatch := lipgloss.NewStyle().
			Foreground(lipgloss.Color(qrColor)).
			Background(lipgloss.Color(bgColor)).
			Render("  ▇▇ qrtrack ▇▇  ")
		b.WriteString(swatch)
		b.WriteString("\n\n")
	}

	b.WriteString("code  ")
	b.WriteString(m.qrInput.View())
	b.WriteString("\n")
	b.WriteString("back  ")
	b.WriteString(m.bgInput.View())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab switch field · enter save · ctrl+r defaults · esc back"))
	return b.String()
}
