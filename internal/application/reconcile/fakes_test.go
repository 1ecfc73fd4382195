package reconcile

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sort"
	"time"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

type fakeStore struct {
	notes      map[string]*domain.Artifact
	createErr  map[domain.Periodicity]error
	panicOnAll bool
	events     *[]string
}

func newFakeStore(events *[]string) *fakeStore {
	return &fakeStore{
		notes:     map[string]*domain.Artifact{},
		createErr: map[domain.Periodicity]error{},
		events:    events,
	}
}

func (s *fakeStore) pathFor(p domain.Periodicity, date time.Time) string {
	format, folder := s.FormatAndFolder(p)
	return path.Join(folder, domain.NewDateFormat(format).Format(date)+".md")
}

// seed adds an existing note for the period containing date
func (s *fakeStore) seed(p domain.Periodicity, date time.Time) string {
	start := domain.StartOf(p.Unit(), date)
	a := &domain.Artifact{Periodicity: p, PeriodStart: start, Path: s.pathFor(p, start)}
	s.notes[a.Path] = a
	return a.Path
}

func (s *fakeStore) Exists(_ context.Context, unit domain.Unit, date time.Time) (bool, error) {
	_, ok := s.notes[s.pathFor(unit.Periodicity(), date)]
	return ok, nil
}

func (s *fakeStore) Create(_ context.Context, unit domain.Unit, date time.Time) (*domain.Artifact, error) {
	p := unit.Periodicity()
	if err := s.createErr[p]; err != nil {
		return nil, err
	}
	a := &domain.Artifact{Periodicity: p, PeriodStart: date, Path: s.pathFor(p, date)}
	s.notes[a.Path] = a
	*s.events = append(*s.events, "create "+a.Path)
	return a, nil
}

func (s *fakeStore) ListAll(_ context.Context, p domain.Periodicity) ([]string, error) {
	if s.panicOnAll {
		panic("index corrupted")
	}
	var out []string
	for path, a := range s.notes {
		if a.Periodicity == p {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) Current(_ context.Context, unit domain.Unit, date time.Time) (*domain.Artifact, error) {
	return s.notes[s.pathFor(unit.Periodicity(), date)], nil
}

func (s *fakeStore) FormatAndFolder(p domain.Periodicity) (string, string) {
	return domain.DefaultFormats[p], p.String()
}

func (s *fakeStore) FindByPath(_ context.Context, p string) (*domain.Artifact, error) {
	return s.notes[p], nil
}

type fakeWorkspace struct {
	views      []*fakeView
	placements []ports.Placement
	shiftOnPin bool
	events     *[]string
}

type fakeView struct {
	ws      *fakeWorkspace
	path    string
	primary bool
	pinned  bool
	closed  bool
}

func (w *fakeWorkspace) add(path string, primary, pinned bool) *fakeView {
	v := &fakeView{ws: w, path: path, primary: primary, pinned: pinned}
	w.views = append(w.views, v)
	return v
}

func (w *fakeWorkspace) paths() []string {
	var out []string
	for _, v := range w.views {
		out = append(out, v.path)
	}
	return out
}

func (w *fakeWorkspace) ForEachOpenView(fn func(ports.View)) {
	for _, v := range slices.Clone(w.views) {
		fn(v)
	}
}

func (w *fakeWorkspace) OpenNewView(_ context.Context, placement ports.Placement) (ports.View, error) {
	v := &fakeView{ws: w, primary: true}
	w.placements = append(w.placements, placement)
	if placement == ports.PlacementFirst {
		w.views = append([]*fakeView{v}, w.views...)
	} else {
		w.views = append(w.views, v)
	}
	*w.events = append(*w.events, "open view")
	return v, nil
}

func (v *fakeView) ArtifactPath() string { return v.path }
func (v *fakeView) IsPrimary() bool      { return v.primary }
func (v *fakeView) Pinned() bool         { return v.pinned }

func (v *fakeView) Index() int {
	return slices.Index(v.ws.views, v)
}

func (v *fakeView) Load(_ context.Context, a *domain.Artifact) error {
	v.path = a.Path
	*v.ws.events = append(*v.ws.events, "load "+a.Path)
	return nil
}

func (v *fakeView) SetPinned(_ context.Context, pinned bool) error {
	v.pinned = pinned
	if pinned && v.ws.shiftOnPin {
		i := v.Index()
		v.ws.views = append(slices.Delete(v.ws.views, i, i+1), v)
	}
	*v.ws.events = append(*v.ws.events, fmt.Sprintf("pin %s %v", v.path, pinned))
	return nil
}

func (v *fakeView) Close(context.Context) error {
	i := v.Index()
	if i < 0 {
		return fmt.Errorf("view %s already closed", v.path)
	}
	v.ws.views = slices.Delete(v.ws.views, i, i+1)
	v.closed = true
	*v.ws.events = append(*v.ws.events, "close "+v.path)
	return nil
}

func (v *fakeView) MoveTo(_ context.Context, index int) error {
	i := v.Index()
	v.ws.views = slices.Insert(slices.Delete(v.ws.views, i, i+1), index, v)
	*v.ws.events = append(*v.ws.events, fmt.Sprintf("move %s %d", v.path, index))
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(message string, _ time.Duration) {
	n.messages = append(n.messages, message)
}

type fakeTemplater struct {
	events *[]string
	forced []bool
}

func (t *fakeTemplater) Process(_ context.Context, a *domain.Artifact, force bool) error {
	t.forced = append(t.forced, force)
	*t.events = append(*t.events, "template "+a.Path)
	return nil
}
