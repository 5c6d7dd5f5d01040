package mcp

import (
	"fmt"
	"sort"
)

// Registry maps tool names to their descriptors. It is populated during
// startup and read-only afterwards, so lookups take no lock.
type Registry struct {
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(tool *Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is required")
	}
	if _, ok := r.tools[tool.Name]; ok {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Resolve looks up a tool by name.
func (r *Registry) Resolve(name string) (*Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
