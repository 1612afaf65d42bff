// Package viewmodel owns the in-memory project list and reconciles it with
// the backend and the local cache. It is the only writer of the qr_cache
// entry; screens render whatever it exposes.
package viewmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/store/kvstore"
)

// Status tells a screen whether the displayed list is live or served from
// the last-known-good cache.
type Status int

const (
	StatusLoading Status = iota
	StatusReady          // list came from a successful fetch
	StatusStale          // fetch failed, list is the cached snapshot (possibly empty)
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusStale:
		return "stale"
	default:
		return "unknown"
	}
}

// ProjectList is the shared list state behind the Home screen and the
// project-picking command paths.
type ProjectList struct {
	client *api.Client
	store  *kvstore.Store
	log    *slog.Logger

	mu       sync.Mutex
	projects []model.Project
	status   Status
	query    string
	favOnly  bool
	favs     []string // favorite project ids, kept in toggle order
}

// NewProjectList builds a view-model over the given collaborators and loads
// the persisted favorite set. A favorites load failure is logged, not fatal:
// favorites degrade to empty.
func NewProjectList(client *api.Client, store *kvstore.Store, log *slog.Logger) *ProjectList {
	vm := &ProjectList{
		client: client,
		store:  store,
		log:    log,
		status: StatusLoading,
	}
	favs, err := loadFavorites(store)
	if err != nil {
		log.Error("load favorites", "error", err)
		favs = nil
	}
	vm.favs = favs
	return vm
}

// Refresh fetches the project list. On success the in-memory list is
// replaced and the cache overwritten wholesale; on failure the cached
// snapshot (or an empty list) takes its place and the fetch error is
// returned so the UI can surface it next to the stale data.
func (vm *ProjectList) Refresh(ctx context.Context) error {
	vm.mu.Lock()
	vm.status = StatusLoading
	vm.mu.Unlock()

	token := vm.token()
	projects, err := vm.client.ListProjects(ctx, token)
	if err != nil {
		cached := vm.loadCache()
		vm.mu.Lock()
		vm.projects = cached
		vm.status = StatusStale
		vm.mu.Unlock()
		vm.log.Warn("project fetch failed, serving cache",
			"error", err, "cached", len(cached))
		return err
	}

	vm.mu.Lock()
	vm.projects = projects
	vm.status = StatusReady
	vm.mu.Unlock()

	if b, err := json.Marshal(projects); err != nil {
		vm.log.Error("marshal project cache", "error", err)
	} else if err := vm.store.Set(kvstore.KeyQRCache, string(b)); err != nil {
		vm.log.Error("write project cache", "error", err)
	}
	return nil
}

// Status returns whether the current list is loading, live, or cached.
func (vm *ProjectList) Status() Status {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.status
}

// Projects returns a copy of the unfiltered in-memory list.
func (vm *ProjectList) Projects() []model.Project {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]model.Project, len(vm.projects))
	copy(out, vm.projects)
	return out
}

// SetQuery updates the search predicate. Empty means no filtering.
func (vm *ProjectList) SetQuery(q string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.query = q
}

// Query returns the current search string.
func (vm *ProjectList) Query() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.query
}

// SetFavoritesOnly toggles the favorites overlay.
func (vm *ProjectList) SetFavoritesOnly(on bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.favOnly = on
}

// FavoritesOnly reports whether the overlay is active.
func (vm *ProjectList) FavoritesOnly() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.favOnly
}

// Visible applies the filter and the favorites overlay to the in-memory
// list, preserving order. A case-insensitive substring match against name OR
// text; the empty query is the identity.
func (vm *ProjectList) Visible() []model.Project {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(vm.query))
	out := make([]model.Project, 0, len(vm.projects))
	for _, p := range vm.projects {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Text), q) {
			continue
		}
		if vm.favOnly && !contains(vm.favs, p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsFavorite reports whether id is in the favorite set.
func (vm *ProjectList) IsFavorite(id string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return contains(vm.favs, id)
}

// FavoriteIDs returns a copy of the favorite set in toggle order.
func (vm *ProjectList) FavoriteIDs() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]string, len(vm.favs))
	copy(out, vm.favs)
	return out
}

// ToggleFavorite flips the favorite flag for id and persists the whole set
// before returning. The mutex serializes rapid toggles so two read-modify-
// write cycles cannot interleave.
func (vm *ProjectList) ToggleFavorite(id string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if contains(vm.favs, id) {
		vm.favs = remove(vm.favs, id)
	} else {
		vm.favs = append(vm.favs, id)
	}
	return vm.persistFavoritesLocked()
}

// SaveEdit pushes an in-place name/text edit to the backend, then refreshes.
func (vm *ProjectList) SaveEdit(ctx context.Context, id, name, text string) error {
	if err := vm.client.UpdateProjectFields(ctx, vm.token(), id, name, text); err != nil {
		return fmt.Errorf("save edit: %w", err)
	}
	return vm.Refresh(ctx)
}

// Delete removes the project remotely, then cleans the favorite set and the
// legacy per-project customization key, then refreshes. Local state is only
// touched after the remote delete succeeded.
func (vm *ProjectList) Delete(ctx context.Context, id string) error {
	if err := vm.client.DeleteProject(ctx, vm.token(), id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	vm.mu.Lock()
	if contains(vm.favs, id) {
		vm.favs = remove(vm.favs, id)
		if err := vm.persistFavoritesLocked(); err != nil {
			vm.log.Error("persist favorites after delete", "error", err)
		}
	}
	vm.mu.Unlock()

	if err := vm.store.Remove(kvstore.CustomizationKeyPrefix + id); err != nil {
		vm.log.Error("remove customization key", "id", id, "error", err)
	}
	return vm.Refresh(ctx)
}

// SetActive records the project a screen navigated into.
func (vm *ProjectList) SetActive(p model.Project) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal active project: %w", err)
	}
	return vm.store.Set(kvstore.KeyActiveProject, string(b))
}

func (vm *ProjectList) token() string {
	tok, _, err := vm.store.Get(kvstore.KeyToken)
	if err != nil {
		vm.log.Error("read token", "error", err)
		return ""
	}
	return tok
}

func (vm *ProjectList) loadCache() []model.Project {
	raw, ok, err := vm.store.Get(kvstore.KeyQRCache)
	if err != nil {
		vm.log.Error("read project cache", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var projects []model.Project
	if err := json.Unmarshal([]byte(raw), &projects); err != nil {
		vm.log.Error("parse project cache", "error", err)
		return nil
	}
	return projects
}

// persistFavoritesLocked writes the favorite set; callers hold vm.mu.
func (vm *ProjectList) persistFavoritesLocked() error {
	b, err := json.Marshal(vm.favs)
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}
	if err := vm.store.Set(kvstore.KeyFavoriteProjectIDs, string(b)); err != nil {
		return fmt.Errorf("persist favorites: %w", err)
	}
	return nil
}

func loadFavorites(store *kvstore.Store) ([]string, error) {
	raw, ok, err := store.Get(kvstore.KeyFavoriteProjectIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("parse favorites: %w", err)
	}
	return ids, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
