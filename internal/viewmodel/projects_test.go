package viewmodel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/store/kvstore"
)

// fakeBackend serves a mutable project list and records deletes.
type fakeBackend struct {
	mu       sync.Mutex
	projects []model.Project
	fail     bool
	deleted  []string
	updated  map[string][2]string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/get-projects", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"backend down"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"projects": f.projects})
	})
	mux.HandleFunc("DELETE /api/delete-project/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		f.deleted = append(f.deleted, id)
		kept := f.projects[:0]
		for _, p := range f.projects {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		f.projects = kept
	})
	mux.HandleFunc("PUT /api/update-project/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.updated == nil {
			f.updated = map[string][2]string{}
		}
		id := r.PathValue("id")
		f.updated[id] = [2]string{body.Name, body.Text}
		for i := range f.projects {
			if f.projects[i].ID == id {
				f.projects[i].Name = body.Name
				f.projects[i].Text = body.Text
			}
		}
	})
	return mux
}

func (f *fakeBackend) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeBackend) setProjects(ps []model.Project) {
	f.mu.Lock()
	f.projects = ps
	f.mu.Unlock()
}

func newTestVM(t *testing.T, backend *fakeBackend) (*ProjectList, *kvstore.Store) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	store := kvstore.New(t.TempDir())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProjectList(api.New(srv.URL, time.Second), store, log), store
}

func TestRefreshSuccessReplacesListAndCache(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{
		{ID: "1", Name: "A", Text: "http://a"},
		{ID: "2", Name: "B", Text: "http://b"},
	}}
	vm, store := newTestVM(t, backend)

	require.NoError(t, vm.Refresh(context.Background()))

	assert.Equal(t, StatusReady, vm.Status())
	assert.Len(t, vm.Projects(), 2)

	raw, ok, err := store.Get(kvstore.KeyQRCache)
	require.NoError(t, err)
	require.True(t, ok)
	var cached []model.Project
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, vm.Projects(), cached)
}

func TestRefreshFailureServesPriorSuccessfulListExactly(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{
		{ID: "1", Name: "A", Text: "http://a"},
	}}
	vm, _ := newTestVM(t, backend)
	require.NoError(t, vm.Refresh(context.Background()))
	want := vm.Projects()

	backend.setFail(true)
	err := vm.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, StatusStale, vm.Status())
	assert.Equal(t, want, vm.Projects(), "cached list must match the prior successful fetch exactly")
}

func TestRefreshFailureWithoutCacheYieldsEmptyStale(t *testing.T) {
	backend := &fakeBackend{fail: true}
	vm, _ := newTestVM(t, backend)

	err := vm.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusStale, vm.Status())
	assert.Empty(t, vm.Projects())
}

func TestRecoveryAfterStaleOverwritesCache(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{{ID: "1", Name: "A", Text: "http://a"}}}
	vm, store := newTestVM(t, backend)
	require.NoError(t, vm.Refresh(context.Background()))

	backend.setFail(true)
	require.Error(t, vm.Refresh(context.Background()))
	require.Equal(t, "1", vm.Projects()[0].ID)

	backend.setFail(false)
	backend.setProjects([]model.Project{{ID: "2", Name: "B", Text: "http://b"}})
	require.NoError(t, vm.Refresh(context.Background()))

	assert.Equal(t, StatusReady, vm.Status())
	require.Len(t, vm.Projects(), 1)
	assert.Equal(t, "2", vm.Projects()[0].ID)

	raw, _, err := store.Get(kvstore.KeyQRCache)
	require.NoError(t, err)
	var cached []model.Project
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	require.Len(t, cached, 1)
	assert.Equal(t, "2", cached[0].ID)
}

func TestVisibleFiltering(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{
		{ID: "1", Name: "Shop QR", Text: "https://shop.example"},
		{ID: "2", Name: "Menu", Text: "https://food.example/menu"},
		{ID: "3", Name: "Contact", Text: "tel:+123"},
	}}
	vm, _ := newTestVM(t, backend)
	require.NoError(t, vm.Refresh(context.Background()))

	// empty query is the identity, order preserved
	assert.Equal(t, vm.Projects(), vm.Visible())

	// case-insensitive match on name
	vm.SetQuery("SHOP")
	require.Len(t, vm.Visible(), 1)
	assert.Equal(t, "1", vm.Visible()[0].ID)

	// match on text too
	vm.SetQuery("food")
	require.Len(t, vm.Visible(), 1)
	assert.Equal(t, "2", vm.Visible()[0].ID)

	vm.SetQuery("nothing-matches")
	assert.Empty(t, vm.Visible())
}

func TestFavoritesOverlay(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{
		{ID: "1", Name: "A", Text: "a"},
		{ID: "2", Name: "B", Text: "b"},
	}}
	vm, _ := newTestVM(t, backend)
	require.NoError(t, vm.Refresh(context.Background()))

	require.NoError(t, vm.ToggleFavorite("2"))
	vm.SetFavoritesOnly(true)

	got := vm.Visible()
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestToggleFavoriteTwiceRestoresPersistedSet(t *testing.T) {
	backend := &fakeBackend{}
	vm, store := newTestVM(t, backend)

	require.NoError(t, vm.ToggleFavorite("1"))
	assert.True(t, vm.IsFavorite("1"))

	require.NoError(t, vm.ToggleFavorite("1"))
	assert.False(t, vm.IsFavorite("1"))

	raw, ok, err := store.Get(kvstore.KeyFavoriteProjectIDs)
	require.NoError(t, err)
	require.True(t, ok)
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(raw), &ids))
	assert.Empty(t, ids)
}

func TestFavoritesSurviveRestart(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	store := kvstore.New(t.TempDir())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.New(srv.URL, time.Second)

	vm := NewProjectList(client, store, log)
	require.NoError(t, vm.ToggleFavorite("1"))
	require.NoError(t, vm.ToggleFavorite("7"))

	vm2 := NewProjectList(client, store, log)
	assert.Equal(t, []string{"1", "7"}, vm2.FavoriteIDs())
}

func TestDeleteCleansFavoritesAndCustomizationKey(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{{ID: "1", Name: "A", Text: "a"}}}
	vm, store := newTestVM(t, backend)
	require.NoError(t, vm.Refresh(context.Background()))
	require.NoError(t, vm.ToggleFavorite("1"))
	require.NoError(t, store.Set(kvstore.CustomizationKeyPrefix+"1", "{}"))

	require.NoError(t, vm.Delete(context.Background(), "1"))

	assert.Equal(t, []string{"1"}, backend.deleted)
	assert.Empty(t, vm.FavoriteIDs())

	raw, ok, err := store.Get(kvstore.KeyFavoriteProjectIDs)
	require.NoError(t, err)
	require.True(t, ok)
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(raw), &ids))
	assert.Empty(t, ids, "favorite removal is persisted before the refresh completes")

	_, ok, err = store.Get(kvstore.CustomizationKeyPrefix + "1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, vm.Projects())
}

func TestDeleteFailureLeavesLocalStateUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"not yours"}`))
	}))
	t.Cleanup(srv.Close)
	store := kvstore.New(t.TempDir())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	vm := NewProjectList(api.New(srv.URL, time.Second), store, log)
	require.NoError(t, vm.ToggleFavorite("1"))

	err := vm.Delete(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, []string{"1"}, vm.FavoriteIDs())
}

func TestSaveEditUpdatesBackendAndRefreshes(t *testing.T) {
	backend := &fakeBackend{projects: []model.Project{{ID: "1", Name: "Old", Text: "http://old"}}}
	vm, _ := newTestVM(t, backend)
	require.NoError(t, vm.Refresh(context.Background()))

	require.NoError(t, vm.SaveEdit(context.Background(), "1", "New", "http://new"))

	assert.Equal(t, [2]string{"New", "http://new"}, backend.updated["1"])
	require.Len(t, vm.Projects(), 1)
	assert.Equal(t, "New", vm.Projects()[0].Name)
	assert.Equal(t, StatusReady, vm.Status())
}

func TestConcurrentTogglesSerialize(t *testing.T) {
	backend := &fakeBackend{}
	vm, _ := newTestVM(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = vm.ToggleFavorite("x")
		}()
	}
	wg.Wait()

	// an even number of toggles always lands back on "not favorite"
	assert.False(t, vm.IsFavorite("x"))
}
