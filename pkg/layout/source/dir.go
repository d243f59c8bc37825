package source

import (
	"fmt"
	"os"

	"github.com/infinri/layoutc/pkg/config"
)

// FromConfig builds a registry from the modules of a project file, backed by
// the module directories on disk.
func FromConfig(cfg *config.Config) (*FSRegistry, error) {
	modules := make([]Module, 0, len(cfg.Modules))
	for _, m := range cfg.Modules {
		dir := cfg.ModulePath(m)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("module %s: %s is not a directory", m.Name, dir)
		}
		modules = append(modules, Module{Name: m.Name, FS: os.DirFS(dir)})
	}
	return NewRegistry(modules...), nil
}
