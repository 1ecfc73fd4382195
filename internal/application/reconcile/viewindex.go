package reconcile

import "autonotes/internal/ports"

// OpenViewIndex maps artifact path to the primary view showing it. It is
// built fresh for every periodicity and never shared between passes.
type OpenViewIndex struct {
	byPath map[string]ports.View
	order  []ports.View
}

// BuildOpenViewIndex scans the workspace. Auxiliary panes and views with no
// artifact are left out; when a path is open twice the first view wins.
func BuildOpenViewIndex(ws ports.Workspace) *OpenViewIndex {
	idx := &OpenViewIndex{byPath: make(map[string]ports.View)}
	ws.ForEachOpenView(func(v ports.View) {
		if !v.IsPrimary() {
			return
		}
		p := v.ArtifactPath()
		if p == "" {
			return
		}
		idx.order = append(idx.order, v)
		if _, seen := idx.byPath[p]; !seen {
			idx.byPath[p] = v
		}
	})
	return idx
}

// Has reports whether path is open in a primary view
func (idx *OpenViewIndex) Has(path string) bool {
	_, ok := idx.byPath[path]
	return ok
}

// Get returns the view showing path
func (idx *OpenViewIndex) Get(path string) (ports.View, bool) {
	v, ok := idx.byPath[path]
	return v, ok
}

// Views returns every indexed view in workspace order, duplicates included
func (idx *OpenViewIndex) Views() []ports.View {
	return idx.order
}

// Len returns the number of distinct open paths
func (idx *OpenViewIndex) Len() int {
	return len(idx.byPath)
}
