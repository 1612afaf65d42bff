package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/bus"
	"github.com/ekarabulut/qrtrack/internal/config"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/session"
	"github.com/ekarabulut/qrtrack/internal/store/kvstore"
	"github.com/ekarabulut/qrtrack/internal/viewmodel"
)

// Deps carries everything the interactive screens need. The caller owns the
// lifecycles; the TUI only borrows them for the duration of Run.
type Deps struct {
	Config  *config.Config
	Client  *api.Client
	Store   *kvstore.Store
	Bus     *bus.Bus
	VM      *viewmodel.ProjectList
	Session *session.Session
}

// token returns the stored bearer token, empty when anonymous or when the
// store is unreadable.
func (d Deps) token() string {
	tok, _ := d.Session.Token()
	return tok
}

type screen int

const (
	screenPrivacy screen = iota
	screenHome
	screenAnalytics
	screenCustomize
	screenAccount
	screenRegister
)

// switchMsg asks the root model to change the active screen.
type switchMsg struct {
	to      screen
	project *projectRef
}

type projectRef struct {
	id   string
	name string
	text string
}

func switchTo(to screen) tea.Cmd {
	return func() tea.Msg { return switchMsg{to: to} }
}

func switchToProject(to screen, ref projectRef) tea.Cmd {
	return func() tea.Msg { return switchMsg{to: to, project: &ref} }
}

type rootModel struct {
	deps Deps
	// send pushes a message into the running program from outside the
	// update loop (bus callbacks).
	send   func(tea.Msg)
	active screen
	gen    int

	// watcher follows customization events for the project the Analytics
	// screen is showing; nil outside that screen.
	watcher *viewmodel.CustomizationWatcher

	home      homeModel
	analytics analyticsModel
	customize customizeModel
	account   accountModel
	register  registerModel
	privacy   privacyModel

	width  int
	height int
}

func newRootModel(deps Deps, send func(tea.Msg)) rootModel {
	m := rootModel{
		deps:   deps,
		send:   send,
		active: screenHome,
		gen:    1,
	}
	if accepted, _ := deps.Session.PrivacyAccepted(); !accepted {
		m.active = screenPrivacy
	}
	m.home = newHomeModel(deps)
	m.home.gen = m.gen
	m.privacy = newPrivacyModel(deps)
	return m
}

func (m rootModel) Init() tea.Cmd {
	if m.active == screenHome {
		return loadProjectsCmd(m.deps.VM, m.gen)
	}
	return nil
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.home.setSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case switchMsg:
		return m.switchScreen(msg)
	case customizationMsg:
		// A customization landed somewhere; colors in the list are stale.
		m.gen++
		m.home.gen = m.gen
		return m, loadProjectsCmd(m.deps.VM, m.gen)
	case analyticsRefreshMsg:
		// The per-project watcher fired for the project on screen.
		if m.active != screenAnalytics || m.analytics.project.id != msg.id {
			return m, nil
		}
		m.gen++
		m.analytics.gen = m.gen
		return m, loadAnalyticsCmd(m.deps.Client, m.deps.token(), msg.id, m.gen)
	}

	var cmd tea.Cmd
	switch m.active {
	case screenPrivacy:
		m.privacy, cmd = m.privacy.update(msg)
	case screenHome:
		m.home, cmd = m.home.update(msg)
	case screenAnalytics:
		m.analytics, cmd = m.analytics.update(msg)
	case screenCustomize:
		m.customize, cmd = m.customize.update(msg)
	case screenAccount:
		m.account, cmd = m.account.update(msg)
	case screenRegister:
		m.register, cmd = m.register.update(msg)
	}
	return m, cmd
}

func (m rootModel) switchScreen(msg switchMsg) (tea.Model, tea.Cmd) {
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	m.gen++
	m.active = msg.to
	switch msg.to {
	case screenHome:
		m.home.gen = m.gen
		return m, loadProjectsCmd(m.deps.VM, m.gen)
	case screenAnalytics:
		if msg.project == nil {
			m.active = screenHome
			return m, loadProjectsCmd(m.deps.VM, m.gen)
		}
		m.analytics = newAnalyticsModel(m.deps, *msg.project, m.gen)
		ref := *msg.project
		send := m.send
		m.watcher = viewmodel.WatchCustomization(m.deps.Bus, ref.id, ref.name, ref.text, func() {
			send(analyticsRefreshMsg{id: ref.id})
		})
		_ = m.deps.VM.SetActive(model.Project{
			ID:   msg.project.id,
			Name: msg.project.name,
			Text: msg.project.text,
		})
		return m, loadAnalyticsCmd(m.deps.Client, m.deps.token(), msg.project.id, m.gen)
	case screenCustomize:
		if msg.project == nil {
			m.active = screenHome
			return m, loadProjectsCmd(m.deps.VM, m.gen)
		}
		m.customize = newCustomizeModel(m.deps, *msg.project, m.gen)
		return m, nil
	case screenAccount:
		m.account = newAccountModel(m.deps, m.gen)
		return m, nil
	case screenRegister:
		m.register = newRegisterModel(m.deps, m.gen)
		return m, nil
	}
	return m, nil
}

func (m rootModel) View() string {
	switch m.active {
	case screenPrivacy:
		return m.privacy.view()
	case screenHome:
		return m.home.view()
	case screenAnalytics:
		return m.analytics.view()
	case screenCustomize:
		return m.customize.view()
	case screenAccount:
		return m.account.view()
	case screenRegister:
		return m.register.view()
	}
	return ""
}

// Run starts the interactive client and blocks until the user quits.
func Run(deps Deps) error {
	var p *tea.Program
	m := newRootModel(deps, func(msg tea.Msg) { go p.Send(msg) })
	p = tea.NewProgram(m, tea.WithAltScreen())

	token := deps.Bus.Subscribe(bus.EventCustomizationUpdated, func(payload any) {
		ev, ok := payload.(bus.CustomizationUpdated)
		if !ok {
			return
		}
		go p.Send(customizationMsg{payload: ev})
	})
	defer deps.Bus.Unsubscribe(bus.EventCustomizationUpdated, token)

	final, err := p.Run()
	if rm, ok := final.(rootModel); ok && rm.watcher != nil {
		rm.watcher.Close()
	}
	return err
}
