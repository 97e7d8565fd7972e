package tool

import (
	"io"
	"sort"

	"github.com/spf13/afero"
)

// Registry holds the trusted tools. Anything not in it is never resolved.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates a registry with kubectl and argo.
func NewRegistry(progress io.Writer) *Registry {
	return NewRegistryWithFs(progress, nil)
}

// NewRegistryWithFs creates a registry whose tools cache on fs. Nil means the OS filesystem.
func NewRegistryWithFs(progress io.Writer, fs afero.Fs) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}

	for _, cfg := range trusted() {
		r.tools[cfg.Name] = newTool(cfg, progress, fs)
	}

	return r
}

// Get returns a tool by name, or nil if it is not trusted.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// All returns all registered tool names sorted alphabetically.
func (r *Registry) All() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// AllTools returns all registered tools sorted alphabetically by name.
func (r *Registry) AllTools() []*Tool {
	tools := make([]*Tool, 0, len(r.tools))
	for _, name := range r.All() {
		tools = append(tools, r.tools[name])
	}

	return tools
}
