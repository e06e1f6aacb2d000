package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// ErrCyclicGraph is returned by TopologicalOrder when the dependsOn edges contain a cycle
var ErrCyclicGraph = errors.New("step graph contains a dependency cycle")

// Edge kinds reported by Edges
const (
	EdgeDependsOn = "depends_on"
	EdgeMaterial  = "material"
)

type stepNode struct {
	id         string
	orderIndex int
	trackID    string
	family     domain.ActionFamily
	dependsOn  []string
}

// StepGraph is the dependency view of a build's steps. An edge B -> A exists
// when step B lists A in dependsOn, meaning A must finish before B.
type StepGraph struct {
	nodes map[string]*stepNode
	// order holds node ids sorted by (orderIndex, trackId, id)
	order []string
	// adjacency: dependent -> prerequisites that exist, sorted like order
	adjacency map[string][]string
	steps     []domain.Step
}

// NewStepGraph builds the graph for the given steps. When step ids repeat the
// first occurrence wins for ordering and the dependsOn lists are merged.
func NewStepGraph(steps []domain.Step) *StepGraph {
	g := &StepGraph{
		nodes:     make(map[string]*stepNode, len(steps)),
		adjacency: make(map[string][]string, len(steps)),
		steps:     steps,
	}
	for _, s := range steps {
		if n, ok := g.nodes[s.ID]; ok {
			n.dependsOn = append(n.dependsOn, s.DependsOn...)
			continue
		}
		g.nodes[s.ID] = &stepNode{
			id:         s.ID,
			orderIndex: s.OrderIndex,
			trackID:    s.TrackID,
			family:     s.Action.Family,
			dependsOn:  append([]string(nil), s.DependsOn...),
		}
		g.order = append(g.order, s.ID)
	}
	g.sortIDs(g.order)

	for _, id := range g.order {
		seen := make(map[string]bool)
		var deps []string
		for _, dep := range g.nodes[id].dependsOn {
			if _, ok := g.nodes[dep]; !ok || seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}
		g.sortIDs(deps)
		g.adjacency[id] = deps
	}
	return g
}

func (g *StepGraph) less(a, b string) bool {
	na, nb := g.nodes[a], g.nodes[b]
	if na.orderIndex != nb.orderIndex {
		return na.orderIndex < nb.orderIndex
	}
	if na.trackID != nb.trackID {
		return na.trackID < nb.trackID
	}
	return na.id < nb.id
}

func (g *StepGraph) sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool { return g.less(ids[i], ids[j]) })
}

// Nodes returns step ids in deterministic (orderIndex, trackId, id) order
func (g *StepGraph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Prerequisites returns the existing steps that id depends on
func (g *StepGraph) Prerequisites(id string) []string {
	return append([]string(nil), g.adjacency[id]...)
}

// MissingReferences lists every dependsOn entry that names no known step.
// Each (step, missing id) pair is reported once.
func (g *StepGraph) MissingReferences() []domain.MissingReference {
	var out []domain.MissingReference
	for _, id := range g.order {
		seen := make(map[string]bool)
		for _, dep := range g.nodes[id].dependsOn {
			if _, ok := g.nodes[dep]; ok || seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, domain.MissingReference{StepID: id, MissingID: dep})
		}
	}
	return out
}

// MaxCycles bounds how many elementary cycles Cycles reports. Dense cyclic
// graphs have exponentially many; enumeration stops once the bound is hit.
const MaxCycles = 1000

// Cycles enumerates the elementary dependency cycles with Johnson's
// algorithm. Start vertices are taken in id order and each cycle is reported
// once, beginning at its lexicographically smallest id, so the result depends
// only on the edges and never on orderIndex or trackId. A step that depends
// on itself is a cycle of one. The result is sorted.
func (g *StepGraph) Cycles() [][]string {
	ids := append([]string(nil), g.order...)
	sort.Strings(ids)

	succ := make(map[string][]string, len(ids))
	pred := make(map[string][]string, len(ids))
	for _, v := range ids {
		next := append([]string(nil), g.adjacency[v]...)
		sort.Strings(next)
		succ[v] = next
		for _, w := range next {
			pred[w] = append(pred[w], v)
		}
	}

	var cycles [][]string
	for i, s := range ids {
		if len(cycles) >= MaxCycles {
			break
		}
		allowed := make(map[string]bool, len(ids)-i)
		for _, v := range ids[i:] {
			allowed[v] = true
		}
		comp := stronglyConnectedWith(s, allowed, succ, pred)

		blocked := make(map[string]bool, len(comp))
		blockers := make(map[string]map[string]bool, len(comp))
		var unblock func(u string)
		unblock = func(u string) {
			blocked[u] = false
			for w := range blockers[u] {
				delete(blockers[u], w)
				if blocked[w] {
					unblock(w)
				}
			}
		}

		var path []string
		var circuit func(v string) bool
		circuit = func(v string) bool {
			closed := false
			path = append(path, v)
			blocked[v] = true
			for _, w := range succ[v] {
				if !comp[w] || len(cycles) >= MaxCycles {
					continue
				}
				if w == s {
					cycles = append(cycles, append([]string(nil), path...))
					closed = true
				} else if !blocked[w] && circuit(w) {
					closed = true
				}
			}
			if closed {
				unblock(v)
			} else {
				for _, w := range succ[v] {
					if !comp[w] {
						continue
					}
					if blockers[w] == nil {
						blockers[w] = make(map[string]bool)
					}
					blockers[w][v] = true
				}
			}
			path = path[:len(path)-1]
			return closed
		}
		circuit(s)
	}

	sort.Slice(cycles, func(i, j int) bool { return compareCycles(cycles[i], cycles[j]) < 0 })
	return cycles
}

// stronglyConnectedWith returns the strongly connected component of s in the
// subgraph induced by allowed: the vertices s reaches that also reach s.
func stronglyConnectedWith(s string, allowed map[string]bool, succ, pred map[string][]string) map[string]bool {
	reach := func(edges map[string][]string) map[string]bool {
		seen := map[string]bool{s: true}
		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range edges[v] {
				if allowed[w] && !seen[w] {
					seen[w] = true
					queue = append(queue, w)
				}
			}
		}
		return seen
	}
	forward, backward := reach(succ), reach(pred)
	comp := make(map[string]bool, len(forward))
	for v := range forward {
		if backward[v] {
			comp[v] = true
		}
	}
	return comp
}

func compareCycles(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// FormatCycle renders a cycle as "a -> b -> a"
func FormatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " -> ")
}

// TopologicalOrder returns step ids so that every step follows its
// prerequisites, breaking ties by (orderIndex, trackId, id). When the graph is
// cyclic the steps that could be ordered are returned with ErrCyclicGraph.
func (g *StepGraph) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		indegree[id] = len(g.adjacency[id])
		for _, dep := range g.adjacency[id] {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		g.sortIDs(ready)
		v := ready[0]
		ready = ready[1:]
		out = append(out, v)
		for _, w := range dependents[v] {
			indegree[w]--
			if indegree[w] == 0 {
				ready = append(ready, w)
			}
		}
	}

	if len(out) != len(g.order) {
		return out, ErrCyclicGraph
	}
	return out, nil
}

// MaterialEdge connects the step producing an in-build artifact to a step consuming it
type MaterialEdge struct {
	From     string
	To       string
	Artifact string
}

// MaterialEdges derives producer -> consumer edges from in_build references
func (g *StepGraph) MaterialEdges() []MaterialEdge {
	producers := make(map[string][]string)
	for _, s := range g.steps {
		for _, ref := range s.Produces {
			if ref.Type == domain.AssemblyRefInBuild && ref.ArtifactID != "" {
				producers[ref.ArtifactID] = append(producers[ref.ArtifactID], s.ID)
			}
		}
	}

	seen := make(map[MaterialEdge]bool)
	var edges []MaterialEdge
	for _, s := range g.steps {
		for _, ref := range s.Consumes {
			if ref.Type != domain.AssemblyRefInBuild {
				continue
			}
			for _, p := range producers[ref.ArtifactID] {
				e := MaterialEdge{From: p, To: s.ID, Artifact: ref.ArtifactID}
				if p == s.ID || seen[e] {
					continue
				}
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return g.less(a.From, b.From)
		}
		if a.To != b.To {
			return g.less(a.To, b.To)
		}
		return a.Artifact < b.Artifact
	})
	return edges
}

// Edges returns dependency edges (prerequisite -> dependent) followed by material edges
func (g *StepGraph) Edges() []domain.GraphEdge {
	var out []domain.GraphEdge
	for _, id := range g.order {
		for _, dep := range g.adjacency[id] {
			out = append(out, domain.GraphEdge{From: dep, To: id, Kind: EdgeDependsOn})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return g.less(out[i].From, out[j].From)
		}
		return g.less(out[i].To, out[j].To)
	})
	for _, e := range g.MaterialEdges() {
		out = append(out, domain.GraphEdge{From: e.From, To: e.To, Kind: EdgeMaterial, Artifact: e.Artifact})
	}
	return out
}

// ToDOT returns a DOT rendering of the graph. Cycle members are filled and
// edges between them drawn red; material edges are dashed.
func (g *StepGraph) ToDOT(name string) string {
	cycleSet := make(map[string]struct{})
	for _, c := range g.Cycles() {
		for _, n := range c {
			cycleSet[n] = struct{}{}
		}
	}
	if name == "" {
		name = "build"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("  rankdir=LR;\n")
	for _, id := range g.order {
		n := g.nodes[id]
		label := escapeDOT(id)
		if n.family != "" {
			label = fmt.Sprintf("%s\\n%s", label, escapeDOT(string(n.family)))
		}
		if _, inCycle := cycleSet[id]; inCycle {
			fmt.Fprintf(&b, "  %q [label=\"%s\", style=filled, fillcolor=\"#ffe6e6\"];\n", id, label)
		} else {
			fmt.Fprintf(&b, "  %q [label=\"%s\"];\n", id, label)
		}
	}
	for _, e := range g.Edges() {
		var attrs []string
		if e.Kind == EdgeMaterial {
			attrs = append(attrs, "style=dashed", fmt.Sprintf("label=%q", e.Artifact))
		} else {
			_, a := cycleSet[e.From]
			_, c := cycleSet[e.To]
			if a && c {
				attrs = append(attrs, "color=red")
			}
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&b, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&b, "  %q -> %q;\n", e.From, e.To)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func escapeDOT(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
