package obsidian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// ViewTypeMarkdown is the type of a document pane. Every other type
// (file explorer, backlinks, graph) is auxiliary.
const ViewTypeMarkdown = "markdown"

// ViewState is one pane as persisted in the layout file
type ViewState struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	File   string `json:"file,omitempty"`
	Pinned bool   `json:"pinned"`
}

type layout struct {
	Views []ViewState `json:"views"`
}

// Workspace implements ports.Workspace on a JSON layout file shared with
// the host. Every mutation is written back immediately.
type Workspace struct {
	path      string
	vaultPath string
	opener    ports.ObsidianOpener
	logger    *zap.Logger

	mu    sync.Mutex
	views []ViewState
}

var _ ports.Workspace = (*Workspace)(nil)

// WorkspaceOption configures a Workspace
type WorkspaceOption func(*Workspace)

// WithOpener launches every loaded note in the host
func WithOpener(o ports.ObsidianOpener) WorkspaceOption {
	return func(w *Workspace) { w.opener = o }
}

// WithWorkspaceLogger sets the logger
func WithWorkspaceLogger(l *zap.Logger) WorkspaceOption {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l.Named("workspace")
		}
	}
}

// NewWorkspace creates a workspace backed by the layout file at path
func NewWorkspace(path, vaultPath string, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		path:      path,
		vaultPath: vaultPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Views returns a copy of the current layout, reloaded from disk
func (w *Workspace) Views() ([]ViewState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reload(); err != nil {
		return nil, err
	}
	return slices.Clone(w.views), nil
}

// ForEachOpenView visits every pane in display order. The layout is
// reloaded first so edits made by the host are seen.
func (w *Workspace) ForEachOpenView(fn func(ports.View)) {
	w.mu.Lock()
	w.reloadOrReset()
	ids := make([]string, len(w.views))
	for i, v := range w.views {
		ids[i] = v.ID
	}
	w.mu.Unlock()

	for _, id := range ids {
		fn(&view{ws: w, id: id})
	}
}

// OpenNewView creates an empty document pane
func (w *Workspace) OpenNewView(ctx context.Context, placement ports.Placement) (ports.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloadOrReset()

	state := ViewState{ID: uuid.NewString(), Type: ViewTypeMarkdown}
	if placement == ports.PlacementFirst {
		w.views = slices.Insert(w.views, 0, state)
	} else {
		w.views = append(w.views, state)
	}
	if err := w.save(); err != nil {
		return nil, err
	}
	return &view{ws: w, id: state.ID}, nil
}

func (w *Workspace) reload() error {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		w.views = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read layout: %w", err)
	}
	var l layout
	if err := json.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("failed to decode layout: %w", err)
	}
	w.views = l.Views
	return nil
}

// reloadOrReset reloads the layout, starting from an empty one when the
// file cannot be read. Caller holds w.mu.
func (w *Workspace) reloadOrReset() {
	if err := w.reload(); err != nil {
		w.logger.Warn("layout unreadable, treating workspace as empty", zap.Error(err))
		w.views = nil
	}
}

func (w *Workspace) save() error {
	data, err := json.MarshalIndent(layout{Views: w.views}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create layout folder: %w", err)
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}
	return os.Rename(tmp, w.path)
}

// mutate applies fn to the pane with id on the layout as currently on disk
// and saves it
func (w *Workspace) mutate(ctx context.Context, id string, fn func(i int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reload(); err != nil {
		return err
	}
	i := w.indexOf(id)
	if i < 0 {
		return fmt.Errorf("view %s is no longer open", id)
	}
	if err := fn(i); err != nil {
		return err
	}
	return w.save()
}

func (w *Workspace) indexOf(id string) int {
	return slices.IndexFunc(w.views, func(v ViewState) bool { return v.ID == id })
}

func (w *Workspace) state(id string) (ViewState, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return ViewState{}, -1
	}
	return w.views[i], i
}

// view is a handle on one pane, resolved by id on every call
type view struct {
	ws *Workspace
	id string
}

func (v *view) ArtifactPath() string {
	s, _ := v.ws.state(v.id)
	return s.File
}

func (v *view) IsPrimary() bool {
	s, _ := v.ws.state(v.id)
	return s.Type == ViewTypeMarkdown
}

func (v *view) Pinned() bool {
	s, _ := v.ws.state(v.id)
	return s.Pinned
}

func (v *view) Index() int {
	_, i := v.ws.state(v.id)
	return i
}

func (v *view) Load(ctx context.Context, a *domain.Artifact) error {
	err := v.ws.mutate(ctx, v.id, func(i int) error {
		v.ws.views[i].File = a.Path
		return nil
	})
	if err != nil {
		return err
	}
	if v.ws.opener != nil {
		abs := filepath.Join(v.ws.vaultPath, filepath.FromSlash(a.Path))
		if err := v.ws.opener.OpenFile(abs); err != nil {
			v.ws.logger.Warn("failed to launch note", zap.String("path", a.Path), zap.Error(err))
		}
	}
	return nil
}

func (v *view) SetPinned(ctx context.Context, pinned bool) error {
	return v.ws.mutate(ctx, v.id, func(i int) error {
		v.ws.views[i].Pinned = pinned
		return nil
	})
}

func (v *view) Close(ctx context.Context) error {
	return v.ws.mutate(ctx, v.id, func(i int) error {
		v.ws.views = slices.Delete(v.ws.views, i, i+1)
		return nil
	})
}

func (v *view) MoveTo(ctx context.Context, index int) error {
	return v.ws.mutate(ctx, v.id, func(i int) error {
		if index < 0 || index >= len(v.ws.views) {
			return fmt.Errorf("index %d out of range", index)
		}
		s := v.ws.views[i]
		v.ws.views = slices.Insert(slices.Delete(v.ws.views, i, i+1), index, s)
		return nil
	})
}
