package tui

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/bus"
	"github.com/ekarabulut/qrtrack/internal/config"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/session"
	"github.com/ekarabulut/qrtrack/internal/store/kvstore"
	"github.com/ekarabulut/qrtrack/internal/viewmodel"
)

// saveBackend records save-project bodies and serves an empty list.
type saveBackend struct {
	mu    sync.Mutex
	saved []api.SavePayload
}

func (f *saveBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/get-projects", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"projects": []model.Project{}})
	})
	mux.HandleFunc("POST /api/save-project", func(w http.ResponseWriter, r *http.Request) {
		var body api.SavePayload
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.saved = append(f.saved, body)
		f.mu.Unlock()
	})
	return mux
}

func newTestDeps(t *testing.T, h http.Handler) Deps {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := kvstore.New(t.TempDir())
	client := api.New(srv.URL, time.Second)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Deps{
		Config:  &config.Config{},
		Client:  client,
		Store:   store,
		Bus:     bus.New(),
		VM:      viewmodel.NewProjectList(client, store, log),
		Session: session.New(client, store),
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSaveFlowSendsSnapshotAndDefaultColors(t *testing.T) {
	backend := &saveBackend{}
	deps := newTestDeps(t, backend.handler())

	m := newHomeModel(deps)
	m.mode = homeNewName
	m.pendingText = "https://shop.example"
	m.input.SetValue("Shop QR")

	m2, cmd := m.handleModalKey(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	saved, ok := msg.(projectSavedMsg)
	require.True(t, ok)
	assert.NoError(t, saved.err)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.saved, 1)
	got := backend.saved[0]
	assert.Equal(t, "Shop QR", got.Name)
	assert.Equal(t, "https://shop.example", got.Text)
	assert.Equal(t, model.DefaultQRColor, got.QRColor)
	assert.Equal(t, model.DefaultBGColor, got.BGColor)
	assert.NotEmpty(t, got.QRImage)
	assert.Equal(t, homeNormal, m2.mode)
}

func TestAnalyticsScreenWiresWatcher(t *testing.T) {
	deps := newTestDeps(t, http.NewServeMux())

	var sent []tea.Msg
	var mu sync.Mutex
	root := newRootModel(deps, func(msg tea.Msg) {
		mu.Lock()
		sent = append(sent, msg)
		mu.Unlock()
	})
	base := deps.Bus.SubscriberCount(bus.EventCustomizationUpdated)

	next, _ := root.Update(switchMsg{to: screenAnalytics, project: &projectRef{id: "p1", name: "Site", text: "https://a.example"}})
	assert.Equal(t, base+1, deps.Bus.SubscriberCount(bus.EventCustomizationUpdated))

	deps.Bus.Publish(bus.EventCustomizationUpdated, bus.CustomizationUpdated{ID: "p2"})
	deps.Bus.Publish(bus.EventCustomizationUpdated, bus.CustomizationUpdated{ID: "p1"})
	// legacy publishers without an id match on the pair
	deps.Bus.Publish(bus.EventCustomizationUpdated, bus.CustomizationUpdated{Name: "Site", Text: "https://a.example"})

	mu.Lock()
	assert.Equal(t, []tea.Msg{analyticsRefreshMsg{id: "p1"}, analyticsRefreshMsg{id: "p1"}}, sent)
	mu.Unlock()

	_, _ = next.Update(switchMsg{to: screenHome})
	assert.Equal(t, base, deps.Bus.SubscriberCount(bus.EventCustomizationUpdated))
}

func TestTrackedModeNeedsConsentOnce(t *testing.T) {
	m := newAnalyticsModel(Deps{}, projectRef{id: "p1", name: "Site", text: "https://a.example"}, 1)
	assert.False(t, m.tracked)

	m, _ = m.update(keyRune('t'))
	assert.True(t, m.askConsent)
	assert.False(t, m.tracked)

	// declining leaves direct mode on
	m, _ = m.update(keyRune('n'))
	assert.False(t, m.askConsent)
	assert.False(t, m.tracked)

	m, _ = m.update(keyRune('t'))
	m, _ = m.update(keyRune('y'))
	assert.True(t, m.tracked)

	// once consented, toggling no longer prompts
	m, _ = m.update(keyRune('t'))
	assert.False(t, m.tracked)
	m, _ = m.update(keyRune('t'))
	assert.True(t, m.tracked)
	assert.False(t, m.askConsent)
}

func TestProjectItemFilterValue(t *testing.T) {
	it := projectItem{project: model.Project{Name: "Menu", Text: "https://cafe.example"}}
	assert.Equal(t, "Menu https://cafe.example", it.FilterValue())
}

func TestLinkTarget(t *testing.T) {
	assert.Equal(t, "https://shop.example/menu", linkTarget("https://shop.example/menu"))
	assert.Equal(t, "http://shop.example", linkTarget("http://shop.example"))
	assert.Equal(t, "https://www.google.com/search?q=hello+world", linkTarget("hello world"))
}

func TestPrivacyPolicyLinesNotEmpty(t *testing.T) {
	lines := PrivacyPolicyLines()
	assert.NotEmpty(t, lines)
	assert.Equal(t, "qrtrack privacy policy", lines[0])
}
