// Package graph builds the project dependency graph from parsed
// configs and computes build order, grounded on the same
// gonum.org/v1/gonum/graph/simple + topo combination the distri build
// batcher uses for its package dependency graph.
//
// Unlike that batcher, which breaks cycles by dropping edges so a
// bootstrap build can proceed, this package reports a cycle as a
// single diagnostic and refuses to produce an order for the affected
// projects: a reference cycle is a configuration error, not something
// to route around, unless every edge on the cycle is explicitly marked
// Circular.
package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/types"
)

type node struct {
	id  int64
	key types.CanonicalKey
}

func (n *node) ID() int64 { return n.id }

// ConfigLookup resolves a project's parsed config by key, the way the
// Graph Builder consults the path and config cache rather than owning
// configs itself.
type ConfigLookup interface {
	Key(name types.ResolvedName) types.CanonicalKey
	Resolve(name string) types.ResolvedName
	Parse(key types.CanonicalKey) (*types.ParsedConfig, *errors.Diagnostic)
}

// edgeKey identifies a directed edge by its endpoint node IDs, used to
// look up whether the reference that produced it was marked Circular.
type edgeKey struct{ from, to int64 }

// Builder constructs the directed reference graph across the project
// set reachable from a set of roots and computes topological build
// orders over it. It memoizes the computed order until invalidated: the
// graph only changes shape on a Full reload or when a project's own
// reference list changes.
type Builder struct {
	cache ConfigLookup

	g             *simple.DirectedGraph
	nodes         map[types.CanonicalKey]*node
	nextID        int64
	circularEdges map[edgeKey]bool
	order         []types.CanonicalKey
	orderOK       bool
}

// NewBuilder creates a Graph Builder backed by cache.
func NewBuilder(cache ConfigLookup) *Builder {
	return &Builder{
		cache:         cache,
		g:             simple.NewDirectedGraph(),
		nodes:         make(map[types.CanonicalKey]*node),
		circularEdges: make(map[edgeKey]bool),
	}
}

// Invalidate drops the memoized build order and graph shape, forcing
// the next BuildOrder call to re-walk every root from scratch.
func (b *Builder) Invalidate() {
	b.g = simple.NewDirectedGraph()
	b.nodes = make(map[types.CanonicalKey]*node)
	b.circularEdges = make(map[edgeKey]bool)
	b.order = nil
	b.orderOK = false
}

func (b *Builder) nodeFor(key types.CanonicalKey) *node {
	if n, ok := b.nodes[key]; ok {
		return n
	}
	n := &node{id: b.nextID, key: key}
	b.nextID++
	b.nodes[key] = n
	b.g.AddNode(n)
	return n
}

// BuildOrder walks every root project's transitive references,
// building the dependency graph, and returns a topological build
// order: each project appears after every project it depends on.
// A reference cycle with no edge marked Circular produces a single
// diagnostic and a nil order.
func (b *Builder) BuildOrder(roots []string) ([]types.CanonicalKey, *errors.Diagnostic) {
	if b.orderOK && b.order != nil {
		return b.order, nil
	}
	b.Invalidate()

	visited := make(map[types.CanonicalKey]bool)
	var walk func(name string) *errors.Diagnostic
	walk = func(name string) *errors.Diagnostic {
		resolved := b.cache.Resolve(name)
		key := b.cache.Key(resolved)
		if visited[key] {
			return nil
		}
		visited[key] = true
		from := b.nodeFor(key)

		cfg, diag := b.cache.Parse(key)
		if diag != nil {
			return diag
		}
		for _, ref := range cfg.References {
			refResolved := b.cache.Resolve(ref.Path)
			refKey := b.cache.Key(refResolved)
			to := b.nodeFor(refKey)
			// Edge direction: from depends on to, so to must build
			// first; topo.Sort on this edge direction lists
			// dependencies before dependents.
			b.g.SetEdge(b.g.NewEdge(to, from))
			if ref.Circular {
				b.circularEdges[edgeKey{from: to.ID(), to: from.ID()}] = true
			}
			if err := walk(ref.Path); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if diag := walk(root); diag != nil {
			return nil, diag
		}
	}

	sorted, err := topo.Sort(b.g)
	if err != nil {
		diag := b.diagnoseCycle(err)
		if diag != nil {
			return nil, diag
		}
		// Every edge in every reported cycle was marked Circular:
		// fall back to a stable order sorted by canonical key so a
		// consistent (if not dependency-aware) order is used.
		sorted = b.stableNodeOrder()
	}

	order := make([]types.CanonicalKey, 0, len(sorted))
	for _, n := range sorted {
		order = append(order, n.(*node).key)
	}
	b.order = order
	b.orderOK = true
	return order, nil
}

// BuildOrderFor returns the sub-sequence of the full build order needed
// to build a single project and its transitive dependencies.
func (b *Builder) BuildOrderFor(roots []string, target types.CanonicalKey) ([]types.CanonicalKey, *errors.Diagnostic) {
	full, diag := b.BuildOrder(roots)
	if diag != nil {
		return nil, diag
	}
	needed := b.transitiveDeps(target)
	out := make([]types.CanonicalKey, 0, len(needed))
	for _, key := range full {
		if needed[key] {
			out = append(out, key)
		}
	}
	return out, nil
}

func (b *Builder) transitiveDeps(target types.CanonicalKey) map[types.CanonicalKey]bool {
	needed := map[types.CanonicalKey]bool{target: true}
	n, ok := b.nodes[target]
	if !ok {
		return needed
	}
	var visit func(n *node)
	visit = func(n *node) {
		// Edges point dependency -> dependent, so a node's
		// dependencies are its predecessors, not its successors.
		preds := b.g.To(n.ID())
		for preds.Next() {
			dep := preds.Node().(*node)
			if !needed[dep.key] {
				needed[dep.key] = true
				visit(dep)
			}
		}
	}
	visit(n)
	return needed
}

// diagnoseCycle reports the first cycle found among components whose
// edges are not all marked Circular. Returns nil if every reported
// component consists solely of explicitly-circular references.
func (b *Builder) diagnoseCycle(err error) *errors.Diagnostic {
	uo, ok := err.(topo.Unorderable)
	if !ok {
		return &errors.Diagnostic{
			Stage: errors.StageGlobal, Severity: errors.SeverityError,
			Message: fmt.Sprintf("cannot determine build order: %v", err),
		}
	}
	for _, component := range uo {
		if len(component) < 2 {
			continue
		}
		if b.componentAllCircular(component) {
			continue
		}
		names := make([]string, 0, len(component))
		for _, n := range component {
			names = append(names, string(n.(*node).key))
		}
		sort.Strings(names)
		return &errors.Diagnostic{
			Stage: errors.StageGlobal, Severity: errors.SeverityError,
			Message: fmt.Sprintf("project reference cycle detected: %v", names),
		}
	}
	return nil
}

// componentAllCircular reports whether every edge running between two
// nodes of component is marked Circular, meaning the whole cycle was
// explicitly authored rather than accidental.
func (b *Builder) componentAllCircular(component []graph.Node) bool {
	ids := make(map[int64]bool, len(component))
	for _, n := range component {
		ids[n.ID()] = true
	}
	for _, n := range component {
		succs := b.g.From(n.ID())
		for succs.Next() {
			succ := succs.Node()
			if !ids[succ.ID()] {
				continue
			}
			if !b.circularEdges[edgeKey{from: n.ID(), to: succ.ID()}] {
				return false
			}
		}
	}
	return true
}

// stableNodeOrder is used only when every cycle component consists of
// edges the project authors marked Circular; it returns nodes sorted
// by canonical key rather than attempting a topological sort that
// cannot exist for a cyclic graph.
func (b *Builder) stableNodeOrder() []graph.Node {
	out := make([]graph.Node, 0, len(b.nodes))
	keys := make([]types.CanonicalKey, 0, len(b.nodes))
	for k := range b.nodes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		out = append(out, b.nodes[k])
	}
	return out
}
