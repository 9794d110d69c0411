package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/taskflow/errors"
)

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		tasks  int
		second string
	}{
		{
			name: "yaml object",
			input: `
timeout: 5s
tasks:
  - name: weather.lookup
    params:
      city: Oslo
  - name: navigation.navigate
    depends_on: [weather.lookup]
`,
			tasks:  2,
			second: "navigation.navigate",
		},
		{
			name:   "yaml list",
			input:  "- name: time.now\n- name: echo\n",
			tasks:  2,
			second: "echo",
		},
		{
			name:   "json object",
			input:  `{"tasks":[{"name":"T1"},{"name":"T2","depends_on":["T1"]}]}`,
			tasks:  2,
			second: "T2",
		},
		{
			name:   "json list",
			input:  `[{"name":"T1","params":{"x":1}},{"name":"T2"}]`,
			tasks:  2,
			second: "T2",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := ReadBatch(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(b.Tasks) != tc.tasks {
				t.Fatalf("expected %d tasks, got %+v", tc.tasks, b.Tasks)
			}
			if b.Tasks[1].Name != tc.second {
				t.Errorf("expected %q, got %q", tc.second, b.Tasks[1].Name)
			}
		})
	}
}

func TestParseBatch_Invalid(t *testing.T) {
	if _, err := ReadBatch(strings.NewReader(`{"tasks": 3}`)); err == nil {
		t.Error("expected error for malformed tasks")
	}
}

func TestLoadBatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yaml")
	content := "timeout: 250ms\ntasks:\n  - name: A\n  - name: B\n    depends_on: [A]\n    params: {k: v}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := LoadBatchFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Tasks[1].Params["k"] != "v" || b.Tasks[1].DependsOn[0] != "A" {
		t.Errorf("unexpected task %+v", b.Tasks[1])
	}
	d, err := b.TimeoutDuration()
	if err != nil || d != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v (%v)", d, err)
	}

	if _, err := LoadBatchFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBatch_Validate(t *testing.T) {
	tests := []struct {
		name  string
		batch Batch
		ok    bool
	}{
		{"valid", Batch{Tasks: []Task{{Name: "weather.lookup"}}}, true},
		{"no tasks", Batch{}, false},
		{"empty name", Batch{Tasks: []Task{{Name: ""}}}, false},
		{"bad name", Batch{Tasks: []Task{{Name: "has space"}}}, false},
		{"empty dependency", Batch{Tasks: []Task{{Name: "a", DependsOn: []string{""}}}}, false},
		{"bad timeout", Batch{Tasks: []Task{{Name: "a"}}, Timeout: "soon"}, false},
		{"negative timeout", Batch{Tasks: []Task{{Name: "a"}}, Timeout: "-1s"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.batch.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidInput {
					t.Errorf("expected INVALID_INPUT, got %s", apperrors.CodeOf(err))
				}
			}
		})
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
	if !cfg.FastPath.Match(DefaultFastPathName) {
		t.Error("expected default fast path")
	}

	disabled := Config{FastPath: FastPathConfig{Disabled: true}}
	disabled.ApplyDefaults()
	if disabled.FastPath.Match(DefaultFastPathName) || len(disabled.FastPath.Names) != 0 {
		t.Errorf("expected fast path to stay disabled, got %+v", disabled.FastPath)
	}

	if err := (&Config{MaxParallel: -1}).Validate(); err == nil {
		t.Error("expected error for negative max_parallel")
	}
	if err := (&Config{Timeout: -time.Second}).Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestNames(t *testing.T) {
	got := Names([]Task{{Name: "b"}, {Name: "a"}, {Name: "b"}})
	if strings.Join(got, ",") != "b,a" {
		t.Errorf("expected b,a got %v", got)
	}
}
