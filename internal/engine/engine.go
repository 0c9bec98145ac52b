// Package engine selects a native property engine by name.
package engine

import (
	"fmt"

	"mediaprops/internal/config"
	"mediaprops/internal/engine/memory"
	"mediaprops/internal/engine/tagfile"
	"mediaprops/internal/native"
)

// New returns the engine configured under name.
func New(name string) (native.Engine, error) {
	switch name {
	case config.EngineTagLib:
		return tagfile.New(), nil
	case config.EngineMemory:
		return memory.New(memory.AutoRegister()), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}
