package orchestrator

import (
	"maps"
	"reflect"
	"sort"
	"strings"

	"github.com/kbukum/taskflow/logger"
)

// Plan is the batch layout for one call.
//
// Batches partition the keys of Records. A task's dependencies sit in
// strictly earlier batches, except for fast-path tasks, which ignore their
// dependencies, and Forced tasks, which were promoted to break a cycle.
type Plan struct {
	Records  map[string]*Record `json:"-"`
	Batches  [][]string         `json:"batches"`
	Forced   []string           `json:"forced,omitempty"`
	FastPath []string           `json:"fast_path,omitempty"`

	batchOf map[string]int
}

// BatchOf returns the batch index of name, or -1 if it is not planned.
func (p *Plan) BatchOf(name string) int {
	if i, ok := p.batchOf[name]; ok {
		return i
	}
	return -1
}

// InputsFor merges the captured map outputs of name's dependencies in
// declaration order; a later dependency overwrites an earlier one on key
// collision. Any map with string keys counts; other outputs contribute
// nothing.
func (p *Plan) InputsFor(name string) map[string]any {
	merged := make(map[string]any)
	r, ok := p.Records[name]
	if !ok {
		return merged
	}
	for _, dep := range r.DependsOn {
		d, ok := p.Records[dep]
		if !ok || !d.HasOutput {
			continue
		}
		if out, ok := asMapping(d.Output); ok {
			maps.Copy(merged, out)
		}
	}
	return merged
}

// asMapping returns v as a map[string]any when it is a map keyed by a
// string kind, such as map[string]string or map[string]int.
func asMapping(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// mergeInputs overlays params on propagated inputs. Params win.
func mergeInputs(propagated, params map[string]any) map[string]any {
	merged := make(map[string]any, len(propagated)+len(params))
	maps.Copy(merged, propagated)
	maps.Copy(merged, params)
	return merged
}

func (p *Plan) appendBatch(batch []string) {
	idx := len(p.Batches)
	p.Batches = append(p.Batches, batch)
	for _, name := range batch {
		p.batchOf[name] = idx
	}
}

// FastPathConfig selects tasks that always run in the first batch.
type FastPathConfig struct {
	// Names are matched exactly.
	Names []string `yaml:"names" mapstructure:"names"`
	// Substrings are matched case-sensitively anywhere in the name.
	Substrings []string `yaml:"substrings" mapstructure:"substrings"`
	// Disabled turns the fast path off entirely.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
}

// Match reports whether name takes the fast path.
func (f FastPathConfig) Match(name string) bool {
	if f.Disabled {
		return false
	}
	for _, n := range f.Names {
		if n == name {
			return true
		}
	}
	for _, s := range f.Substrings {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// Planner layers records into batches.
type Planner struct {
	fastPath FastPathConfig
	log      *logger.Logger
}

// NewPlanner creates a planner. A nil log discards cycle warnings.
func NewPlanner(fastPath FastPathConfig, log *logger.Logger) *Planner {
	if log == nil {
		log = logger.Nop()
	}
	return &Planner{fastPath: fastPath, log: log}
}

// Build lays out every record into batches. It always terminates: when no
// task is ready but some remain, the one with the fewest unmet
// dependencies (ties broken by name) is forced into a batch of its own and
// a warning is logged.
//
// Fast-path tasks join the first ready set in batch 0, ignoring their own
// dependencies. They only count as done once batch 0 is formed, so their
// dependents still land in a later batch.
func (p *Planner) Build(rs *RecordSet) *Plan {
	plan := &Plan{
		Records: rs.records,
		batchOf: make(map[string]int, rs.Len()),
	}

	done := make(map[string]bool, rs.Len())
	var fast, remaining []string
	for _, name := range rs.Names() {
		if p.fastPath.Match(name) {
			fast = append(fast, name)
		} else {
			remaining = append(remaining, name)
		}
	}
	plan.FastPath = fast

	for len(remaining) > 0 {
		var ready, waiting []string
		for _, name := range remaining {
			if unmet(rs.records[name], done) == 0 {
				ready = append(ready, name)
			} else {
				waiting = append(waiting, name)
			}
		}

		if len(fast) > 0 {
			batch := make([]string, 0, len(fast)+len(ready))
			batch = append(append(batch, fast...), ready...)
			sort.Strings(batch)
			p.commit(plan, batch, done)
			fast = nil
			remaining = waiting
			continue
		}

		if len(ready) == 0 {
			forced := p.pickForced(rs, remaining, done)
			p.commit(plan, []string{forced}, done)
			plan.Forced = append(plan.Forced, forced)
			remaining = without(remaining, forced)
			continue
		}

		p.commit(plan, ready, done)
		remaining = waiting
	}

	if len(fast) > 0 {
		p.commit(plan, fast, done)
	}
	return plan
}

func (p *Planner) commit(plan *Plan, batch []string, done map[string]bool) {
	plan.appendBatch(batch)
	for _, name := range batch {
		done[name] = true
	}
}

func (p *Planner) pickForced(rs *RecordSet, remaining []string, done map[string]bool) string {
	// remaining is sorted, so the first minimum wins ties by name.
	best, bestCount := "", -1
	for _, name := range remaining {
		n := unmet(rs.records[name], done)
		if bestCount < 0 || n < bestCount {
			best, bestCount = name, n
		}
	}

	var missing []string
	for _, dep := range rs.records[best].DependsOn {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	p.log.Warn("dependency cycle: forcing task past unmet dependencies", map[string]interface{}{
		logger.FieldTask: best,
		"unmet":          missing,
	})
	return best
}

func unmet(r *Record, done map[string]bool) int {
	n := 0
	for _, dep := range r.DependsOn {
		if !done[dep] {
			n++
		}
	}
	return n
}

func without(names []string, drop string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
