// Package depgraph implements the foreign-key dependency engine: topological
// ordering, cycle detection, wave batching, level grouping, and the
// root/leaf/pivot classification spec.md §4.2 describes.
package depgraph

import (
	"regexp"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

// CircularDependencyError reports the first cycle found during Resolve,
// carrying the node sequence that closes the ring.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	s := "circular dependency: "
	for i, name := range e.Cycle {
		if i > 0 {
			s += " -> "
		}
		s += name
	}
	return s
}

// index builds lookup structures shared by every operation in this package:
// table-by-name, and each table's in-set FK targets, skipping self-references
// and FKs pointing outside the input set per spec.md §4.2's edge-case policy.
type index struct {
	tables  []schema.Table
	byName  map[string]schema.Table
	targets map[string][]string // table -> distinct in-set tables it references
}

func buildIndex(tables []schema.Table) *index {
	idx := &index{
		byName:  make(map[string]schema.Table, len(tables)),
		targets: make(map[string][]string, len(tables)),
		tables:  tables,
	}
	for _, t := range tables {
		idx.byName[t.Name] = t
	}
	for _, t := range tables {
		seen := map[string]bool{}
		var targets []string
		for _, fk := range t.ForeignKeys {
			if fk.ReferencedTable == t.Name {
				continue // self-reference never blocks ordering or counts as a cycle edge
			}
			if _, ok := idx.byName[fk.ReferencedTable]; !ok {
				continue // external reference, silently dropped
			}
			if !seen[fk.ReferencedTable] {
				seen[fk.ReferencedTable] = true
				targets = append(targets, fk.ReferencedTable)
			}
		}
		idx.targets[t.Name] = targets
	}
	return idx
}

// Resolve returns tables in topological order: for every in-set FK A→B,
// B precedes A. Order among independent tables is stable in input order.
// Returns *CircularDependencyError if the FK graph (restricted to the input
// set, self-references excluded) contains a cycle.
func Resolve(tables []schema.Table) ([]schema.Table, error) {
	cycles := DetectCircularDependencies(tables)
	if len(cycles) > 0 {
		return nil, &CircularDependencyError{Cycle: cycles[0]}
	}

	idx := buildIndex(tables)
	visited := make(map[string]bool, len(tables))
	var order []schema.Table

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range idx.targets[name] {
			visit(dep)
		}
		order = append(order, idx.byName[name])
	}

	for _, t := range tables {
		visit(t.Name)
	}
	return order, nil
}

// DetectCircularDependencies runs a depth-first traversal maintaining a
// recursion stack; each time a node already on the stack is re-encountered,
// the path from its first occurrence to the re-encounter (with the repeated
// node appended to close the cycle) is recorded once. Disjoint cycles are
// each reported once.
func DetectCircularDependencies(tables []schema.Table) [][]string {
	idx := buildIndex(tables)

	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	var cycles [][]string
	reported := map[string]bool{}

	var visit func(name string)
	visit = func(name string) {
		visited[name] = true
		onStack[name] = true
		stack = append(stack, name)

		for _, dep := range idx.targets[name] {
			if onStack[dep] {
				cycle := cycleFrom(stack, dep)
				key := cycleKey(cycle)
				if !reported[key] {
					reported[key] = true
					cycles = append(cycles, cycle)
				}
				continue
			}
			if !visited[dep] {
				visit(dep)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[name] = false
	}

	for _, t := range tables {
		if !visited[t.Name] {
			visit(t.Name)
		}
	}
	return cycles
}

func cycleFrom(stack []string, repeated string) []string {
	start := 0
	for i, n := range stack {
		if n == repeated {
			start = i
			break
		}
	}
	cycle := append([]string{}, stack[start:]...)
	cycle = append(cycle, repeated)
	return cycle
}

func cycleKey(cycle []string) string {
	var key string
	for _, n := range cycle {
		key += n + ">"
	}
	return key
}

// GroupIntoBatches produces waves where no table in wave k references
// another table in the same wave: walk the topologically sorted list and
// start a new wave whenever the next table's in-set FKs reference a table
// already placed in the current wave.
func GroupIntoBatches(tables []schema.Table) ([][]schema.Table, error) {
	ordered, err := Resolve(tables)
	if err != nil {
		return nil, err
	}
	idx := buildIndex(tables)

	var batches [][]schema.Table
	var current []schema.Table
	currentSet := map[string]bool{}

	for _, t := range ordered {
		conflicts := false
		for _, dep := range idx.targets[t.Name] {
			if currentSet[dep] {
				conflicts = true
				break
			}
		}
		if conflicts {
			batches = append(batches, current)
			current = nil
			currentSet = map[string]bool{}
		}
		current = append(current, t)
		currentSet[t.Name] = true
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}

// GroupByLevel assigns each table an integer level via iterative fixed
// point: level 0 holds tables with no in-set dependencies; level k holds
// tables whose every remaining in-set FK points to a table already assigned
// a level below k. Iterates until no assignment changes.
func GroupByLevel(tables []schema.Table) map[int][]string {
	idx := buildIndex(tables)
	level := make(map[string]int, len(tables))
	assigned := make(map[string]bool, len(tables))

	for changed := true; changed; {
		changed = false
		for _, t := range tables {
			if assigned[t.Name] {
				continue
			}
			ready := true
			maxDepLevel := -1
			for _, dep := range idx.targets[t.Name] {
				if !assigned[dep] {
					ready = false
					break
				}
				if level[dep] > maxDepLevel {
					maxDepLevel = level[dep]
				}
			}
			if ready {
				level[t.Name] = maxDepLevel + 1
				assigned[t.Name] = true
				changed = true
			}
		}
	}

	byLevel := map[int][]string{}
	for _, t := range tables {
		if !assigned[t.Name] {
			continue // part of an unresolved cycle; caller is expected to have already checked for cycles
		}
		byLevel[level[t.Name]] = append(byLevel[level[t.Name]], t.Name)
	}
	return byLevel
}

// pivotNamePattern is the naming convention half of the pivot predicate:
// two lower-case/digit segments joined by a single underscore, e.g.
// "post_tag", "role_user".
var pivotNamePattern = regexp.MustCompile(`^[a-z0-9]+_[a-z0-9]+$`)

// IsPivot reports whether t satisfies spec.md §4.2's pivot predicate:
// exactly two in-set FKs, a two-segment snake name, and a column budget of
// at most 2 (the FK columns) + (1 if it carries its own id/PK column) + (2
// if it carries both timestamp columns) + 1 extra column of slack.
func IsPivot(t schema.Table, inSet map[string]bool) bool {
	if !pivotNamePattern.MatchString(t.Name) {
		return false
	}

	var fkTargets []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name {
			continue
		}
		if inSet[fk.ReferencedTable] {
			fkTargets = append(fkTargets, fk.ReferencedTable)
		}
	}
	if len(fkTargets) != 2 {
		return false
	}

	budget := 2
	if _, ok := t.Column("id"); ok {
		budget++
	}
	_, hasCreated := t.Column("created_at")
	_, hasUpdated := t.Column("updated_at")
	if hasCreated && hasUpdated {
		budget += 2
	}
	budget++ // one extra column of slack

	return len(t.Columns) <= budget
}

// PivotTargets returns the two tables a pivot table joins, in FK order. The
// caller must already know t satisfies IsPivot.
func PivotTargets(t schema.Table) []string {
	var targets []string
	seen := map[string]bool{}
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		targets = append(targets, fk.ReferencedTable)
	}
	return targets
}

func inSetOf(tables []schema.Table) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t.Name] = true
	}
	return set
}

// GetPivotTables returns the subset of tables classified as pivots.
func GetPivotTables(tables []schema.Table) []schema.Table {
	inSet := inSetOf(tables)
	var pivots []schema.Table
	for _, t := range tables {
		if IsPivot(t, inSet) {
			pivots = append(pivots, t)
		}
	}
	return pivots
}

// GetRootTables returns tables with no in-set FK dependencies (level 0),
// excluding pivots per spec.md §8 invariant 8's pivot-exclusivity rule.
func GetRootTables(tables []schema.Table) []schema.Table {
	idx := buildIndex(tables)
	inSet := inSetOf(tables)
	var roots []schema.Table
	for _, t := range tables {
		if len(idx.targets[t.Name]) == 0 && !IsPivot(t, inSet) {
			roots = append(roots, t)
		}
	}
	return roots
}

// GetLeafTables returns tables no other in-set table references, excluding
// pivots.
func GetLeafTables(tables []schema.Table) []schema.Table {
	idx := buildIndex(tables)
	inSet := inSetOf(tables)
	referenced := map[string]bool{}
	for _, t := range tables {
		for _, dep := range idx.targets[t.Name] {
			referenced[dep] = true
		}
	}
	var leaves []schema.Table
	for _, t := range tables {
		if !referenced[t.Name] && !IsPivot(t, inSet) {
			leaves = append(leaves, t)
		}
	}
	return leaves
}

// WouldCreateCycle reports whether adding an edge from→to would close a
// cycle, i.e. whether a path from to back to from already exists in the
// in-set FK graph.
func WouldCreateCycle(from, to string, tables []schema.Table) bool {
	if from == to {
		return false // self-references never count as cycles
	}
	idx := buildIndex(tables)
	visited := map[string]bool{}

	var reaches func(name string) bool
	reaches = func(name string) bool {
		if name == from {
			return true
		}
		if visited[name] {
			return false
		}
		visited[name] = true
		for _, dep := range idx.targets[name] {
			if reaches(dep) {
				return true
			}
		}
		return false
	}
	return reaches(to)
}
