package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// LoadBatchFile reads a task submission from a YAML or JSON file. The
// format follows the extension; anything other than .json is read as YAML.
func LoadBatchFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: reading %s: %w", path, err)
	}
	b, err := ParseBatch(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parsing %s: %w", path, err)
	}
	return b, nil
}

// ReadBatch reads a YAML or JSON submission from r. JSON is detected by a
// leading '{' or '['.
func ReadBatch(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: reading tasks: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	isJSON := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	return ParseBatch(data, isJSON)
}

// ParseBatch decodes a submission. The document is either a Batch object
// or a bare list of tasks.
func ParseBatch(data []byte, isJSON bool) (*Batch, error) {
	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	var b Batch
	objErr := unmarshal(data, &b)
	if objErr == nil {
		return &b, nil
	}

	var tasks []Task
	if err := unmarshal(data, &tasks); err != nil {
		return nil, objErr
	}
	return &Batch{Tasks: tasks}, nil
}
