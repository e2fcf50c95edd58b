package compartmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// mapFilePermissions is the file permission mode for compartment map
// files. Owner read/write only.
const mapFilePermissions = 0o600

// ReadFile reads and parses a compartment map from the given path.
func ReadFile(path string) (*CompartmentMapDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compartment map: %w", err)
	}
	return Parse(data)
}

// Parse parses compartment map JSON data.
func Parse(data []byte) (*CompartmentMapDescriptor, error) {
	var m CompartmentMapDescriptor
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse compartment map JSON: %w", err)
	}
	if m.Compartments == nil {
		m.Compartments = make(map[string]*CompartmentDescriptor)
	}
	return &m, nil
}

// Marshal serializes the compartment map to JSON. Output is
// deterministic: struct fields keep declaration order and map keys are
// emitted sorted.
func (m *CompartmentMapDescriptor) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the compartment map to the given path.
func (m *CompartmentMapDescriptor) WriteFile(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, mapFilePermissions)
}

// WriteTo writes the compartment map to the given writer.
func (m *CompartmentMapDescriptor) WriteTo(w io.Writer) (int64, error) {
	data, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
