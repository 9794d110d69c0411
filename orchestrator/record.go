package orchestrator

import (
	"slices"
	"sort"
)

// Record is the per-name bookkeeping for one Execute call.
type Record struct {
	Name string `json:"name"`
	// DependsOn is the union of every declaration seen for Name, in
	// first-seen order without duplicates.
	DependsOn []string `json:"depends_on,omitempty"`
	Provides  []string `json:"provides,omitempty"`

	// Output is the captured result, valid only when HasOutput is set.
	Output    any  `json:"-"`
	HasOutput bool `json:"-"`
}

func (r *Record) addDeps(deps []string) {
	for _, d := range deps {
		if d == "" || slices.Contains(r.DependsOn, d) {
			continue
		}
		r.DependsOn = append(r.DependsOn, d)
	}
}

func (r *Record) addProvides(keys []string) {
	for _, k := range keys {
		if !slices.Contains(r.Provides, k) {
			r.Provides = append(r.Provides, k)
		}
	}
}

// capture stores the output of a successful run. Later calls are ignored.
func (r *Record) capture(output any) {
	if r.HasOutput {
		return
	}
	r.Output = output
	r.HasOutput = true
}

// RecordSet holds one Record per distinct name referenced in a call.
type RecordSet struct {
	records map[string]*Record
}

// NewRecordSet creates an empty set.
func NewRecordSet() *RecordSet {
	return &RecordSet{records: make(map[string]*Record)}
}

// Register records name with its declared dependencies and provided keys.
// It is idempotent: repeated registration unions the declarations. Every
// dependency gets at least a placeholder record.
func (s *RecordSet) Register(name string, dependsOn, provides []string) *Record {
	r := s.ensure(name)
	r.addDeps(dependsOn)
	r.addProvides(provides)
	for _, dep := range r.DependsOn {
		s.ensure(dep)
	}
	return r
}

func (s *RecordSet) ensure(name string) *Record {
	r, ok := s.records[name]
	if !ok {
		r = &Record{Name: name}
		s.records[name] = r
	}
	return r
}

// Get returns the record for name.
func (s *RecordSet) Get(name string) (*Record, bool) {
	r, ok := s.records[name]
	return r, ok
}

// Len returns the number of records.
func (s *RecordSet) Len() int { return len(s.records) }

// Names returns all record names sorted.
func (s *RecordSet) Names() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
