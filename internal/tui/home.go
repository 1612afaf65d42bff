package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/qr"
	"github.com/ekarabulut/qrtrack/internal/viewmodel"
)

type homeMode int

const (
	homeNormal homeMode = iota
	homeSearch
	homeNewText
	homeNewName
	homeEditName
	homeEditText
	homeConfirmDelete
)

type projectItem struct {
	project  model.Project
	favorite bool
}

func (i projectItem) FilterValue() string { return i.project.Name + " " + i.project.Text }

type projectDelegate struct{}

func (d projectDelegate) Height() int                             { return 1 }
func (d projectDelegate) Spacing() int                            { return 0 }
func (d projectDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(projectItem)
	if !ok {
		return
	}
	star := starOff
	if it.favorite {
		star = starOn
	}
	line := fmt.Sprintf("%s %s  %s", star, it.project.Name, mutedStyle.Render(it.project.Text))
	if index == m.Index() {
		line = selectedStyle.Render("› " + line)
	} else {
		line = "  " + line
	}
	fmt.Fprint(w, line)
}

type homeModel struct {
	deps Deps
	gen  int

	list  list.Model
	input textinput.Model
	mode  homeMode

	pendingText string
	preview     string
	editing     projectRef

	status  string
	loading bool

	width  int
	height int
}

func newHomeModel(deps Deps) homeModel {
	l := list.New(nil, projectDelegate{}, 60, 16)
	l.Title = "qrtrack"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	in := textinput.New()
	in.CharLimit = 256

	m := homeModel{deps: deps, list: l, input: in, loading: true}
	m.syncItems()
	return m
}

func (m *homeModel) setSize(w, h int) {
	m.width, m.height = w, h
	lh := h - 6
	if lh < 4 {
		lh = 4
	}
	m.list.SetSize(w-2, lh)
}

func (m *homeModel) syncItems() {
	visible := m.deps.VM.Visible()
	items := make([]list.Item, 0, len(visible))
	for _, p := range visible {
		items = append(items, projectItem{project: p, favorite: m.deps.VM.IsFavorite(p.ID)})
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

func (m homeModel) selected() (model.Project, bool) {
	it, ok := m.list.SelectedItem().(projectItem)
	if !ok {
		return model.Project{}, false
	}
	return it.project, true
}

func (m homeModel) update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err)) + " " + staleStyle.Render("(cached)")
		} else {
			m.status = ""
		}
		m.syncItems()
		return m, nil
	case projectSavedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err))
		} else {
			m.status = successStyle.Render("saved")
			m.preview = ""
		}
		m.syncItems()
		return m, nil
	case projectDeletedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle.Render(api.UserMessage(msg.err))
		} else {
			m.status = successStyle.Render("deleted")
		}
		m.syncItems()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m homeModel) handleKey(msg tea.KeyMsg) (homeModel, tea.Cmd) {
	if m.mode != homeNormal {
		return m.handleModalKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		m.status = ""
		return m, loadProjectsCmd(m.deps.VM, m.gen)
	case "/":
		m.mode = homeSearch
		m.input.Placeholder = "search name or content"
		m.input.SetValue(m.deps.VM.Query())
		m.input.Focus()
		return m, textinput.Blink
	case "n":
		m.mode = homeNewText
		m.input.Placeholder = "content to encode"
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "f":
		if p, ok := m.selected(); ok {
			if err := m.deps.VM.ToggleFavorite(p.ID); err != nil {
				m.status = errorStyle.Render(err.Error())
			}
			m.syncItems()
		}
		return m, nil
	case "F":
		m.deps.VM.SetFavoritesOnly(!m.deps.VM.FavoritesOnly())
		m.syncItems()
		return m, nil
	case "e":
		if p, ok := m.selected(); ok {
			m.editing = projectRef{id: p.ID, name: p.Name, text: p.Text}
			m.mode = homeEditName
			m.input.Placeholder = "name"
			m.input.SetValue(p.Name)
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	case "d":
		if p, ok := m.selected(); ok {
			m.editing = projectRef{id: p.ID, name: p.Name, text: p.Text}
			m.mode = homeConfirmDelete
		}
		return m, nil
	case "c":
		if p, ok := m.selected(); ok {
			return m, switchToProject(screenCustomize, projectRef{id: p.ID, name: p.Name, text: p.Text})
		}
		return m, nil
	case "a":
		return m, switchTo(screenAccount)
	case "enter":
		if p, ok := m.selected(); ok {
			return m, switchToProject(screenAnalytics, projectRef{id: p.ID, name: p.Name, text: p.Text})
		}
		return m, nil
	case "esc":
		if m.preview != "" {
			m.preview = ""
			return m, nil
		}
		if m.deps.VM.Query() != "" || m.deps.VM.FavoritesOnly() {
			m.deps.VM.SetQuery("")
			m.deps.VM.SetFavoritesOnly(false)
			m.syncItems()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m homeModel) handleModalKey(msg tea.KeyMsg) (homeModel, tea.Cmd) {
	if m.mode == homeConfirmDelete {
		switch msg.String() {
		case "y", "Y":
			m.mode = homeNormal
			m.loading = true
			return m, deleteProjectCmd(m.deps.VM, m.editing.id, m.gen)
		default:
			m.mode = homeNormal
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.mode = homeNormal
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		switch m.mode {
		case homeSearch:
			m.deps.VM.SetQuery(value)
			m.mode = homeNormal
			m.input.Blur()
			m.syncItems()
			return m, nil
		case homeNewText:
			if value == "" {
				return m, nil
			}
			m.pendingText = value
			if block, err := qr.Terminal(value); err == nil {
				m.preview = block
			}
			m.mode = homeNewName
			m.input.Placeholder = "name (empty to discard)"
			m.input.SetValue("")
			return m, nil
		case homeNewName:
			m.mode = homeNormal
			m.input.Blur()
			if value == "" {
				m.preview = ""
				return m, nil
			}
			snapshot, err := qr.SnapshotBase64(m.pendingText, model.DefaultQRColor, model.DefaultBGColor)
			if err != nil {
				m.preview = ""
				m.status = errorStyle.Render("render snapshot: " + err.Error())
				return m, nil
			}
			payload := api.SavePayload{
				Name:    value,
				Text:    m.pendingText,
				Time:    time.Now().UTC().Format(time.RFC3339),
				QRImage: snapshot,
				QRColor: model.DefaultQRColor,
				BGColor: model.DefaultBGColor,
			}
			m.loading = true
			return m, saveProjectCmd(m.deps.VM, m.deps.Client, m.deps.token(), payload, m.gen)
		case homeEditName:
			if value == "" {
				return m, nil
			}
			m.editing.name = value
			m.mode = homeEditText
			m.input.Placeholder = "content"
			m.input.SetValue(m.editing.text)
			return m, nil
		case homeEditText:
			m.mode = homeNormal
			m.input.Blur()
			if value == "" {
				return m, nil
			}
			m.loading = true
			return m, saveEditCmd(m.deps.VM, m.editing.id, m.editing.name, value, m.gen)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m homeModel) view() string {
	var b strings.Builder

	header := "qrtrack"
	switch m.deps.VM.Status() {
	case viewmodel.StatusLoading:
		header += " " + pendingStyle.Render("loading")
	case viewmodel.StatusStale:
		header += " " + staleStyle.Render("stale")
	}
	if m.loading {
		header += " " + pendingStyle.Render("refreshing")
	}
	if m.deps.VM.FavoritesOnly() {
		header += " " + accentStyle.Render("[favorites]")
	}
	if q := m.deps.VM.Query(); q != "" {
		header += " " + accentStyle.Render("/"+q)
	}
	m.list.Title = header

	b.WriteString(m.list.View())
	b.WriteString("\n")

	if m.preview != "" {
		b.WriteString(m.preview)
		b.WriteString("\n")
	}

	switch m.mode {
	case homeSearch, homeNewText, homeNewName, homeEditName, homeEditText:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case homeConfirmDelete:
		b.WriteString(errorStyle.Render(fmt.Sprintf("delete %q? y/N", m.editing.name)))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter analytics · n new · e edit · d delete · f fav · F fav-only · / search · c colors · a account · r refresh · q quit"))
	return b.String()
}
