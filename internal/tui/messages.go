package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/bus"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/viewmodel"
)

// Messages produced by asynchronous commands. Each load message carries the
// generation counter that was current when the command was issued so that
// results arriving after a screen change are dropped instead of applied.

type projectsLoadedMsg struct {
	gen int
	err error
}

type analyticsLoadedMsg struct {
	gen       int
	analytics *model.Analytics
	err       error
}

type projectSavedMsg struct {
	gen int
	err error
}

type projectDeletedMsg struct {
	gen int
	err error
}

type colorsSavedMsg struct {
	gen     int
	id      string
	name    string
	text    string
	qrColor string
	bgColor string
	err     error
}

type registeredMsg struct {
	gen int
	err error
}

type accountDeletedMsg struct {
	gen int
	err error
}

// customizationMsg is forwarded into the program by the bus subscription
// installed in Run.
type customizationMsg struct {
	payload bus.CustomizationUpdated
}

// analyticsRefreshMsg comes from the per-project CustomizationWatcher the
// root model holds while the Analytics screen is up.
type analyticsRefreshMsg struct {
	id string
}

const requestTimeout = 20 * time.Second

func loadProjectsCmd(vm *viewmodel.ProjectList, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := vm.Refresh(ctx)
		return projectsLoadedMsg{gen: gen, err: err}
	}
}

func loadAnalyticsCmd(client *api.Client, token, id string, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		a, err := client.GetScanAnalytics(ctx, token, id)
		return analyticsLoadedMsg{gen: gen, analytics: a, err: err}
	}
}

func saveProjectCmd(vm *viewmodel.ProjectList, client *api.Client, token string, payload api.SavePayload, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := client.CreateProject(ctx, token, payload); err != nil {
			return projectSavedMsg{gen: gen, err: err}
		}
		err := vm.Refresh(ctx)
		return projectSavedMsg{gen: gen, err: err}
	}
}

func saveEditCmd(vm *viewmodel.ProjectList, id, name, text string, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := vm.SaveEdit(ctx, id, name, text)
		return projectSavedMsg{gen: gen, err: err}
	}
}

func deleteProjectCmd(vm *viewmodel.ProjectList, id string, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := vm.Delete(ctx, id)
		return projectDeletedMsg{gen: gen, err: err}
	}
}

func saveColorsCmd(client *api.Client, token string, p model.Project, qrColor, bgColor, snapshot string, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.UpdateProjectColors(ctx, token, p.ID, qrColor, bgColor, snapshot)
		return colorsSavedMsg{
			gen:     gen,
			id:      p.ID,
			name:    p.Name,
			text:    p.Text,
			qrColor: qrColor,
			bgColor: bgColor,
			err:     err,
		}
	}
}
