package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
)

// Validate performs a consistency check over every static node type and
// function: pin names must be unique per node, functions must not declare a
// parameter twice, and pure functions are warned about when they have no
// return value since nothing could ever consume them.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	r.ensureInit()

	var errs []string

	typeNames := make([]string, 0, len(r.nodeTypes))
	for key := range r.nodeTypes {
		typeNames = append(typeNames, key)
	}
	sort.Strings(typeNames)

	for _, key := range typeNames {
		nt := r.nodeTypes[key]
		if nt.Pins == nil {
			errs = append(errs, fmt.Sprintf("node type '%s': no pin function", nt.Name))
			continue
		}
		pins, err := nt.Pins(r, map[string]string{})
		if err != nil {
			// Dynamic node types legitimately need properties to resolve.
			logger.Debug("Skipping pin validation for dynamic node type.", "type", nt.Name, "reason", err)
			continue
		}
		seen := make(map[string]struct{})
		for _, p := range pins {
			n := NormalizePinName(p.Name)
			if _, dup := seen[n]; dup {
				errs = append(errs, fmt.Sprintf("node type '%s': duplicate pin '%s'", nt.Name, p.Name))
			}
			seen[n] = struct{}{}
			if nt.Pure && p.Type == Exec {
				errs = append(errs, fmt.Sprintf("node type '%s': pure node declares exec pin '%s'", nt.Name, p.Name))
			}
		}
	}

	fnNames := make([]string, 0, len(r.functions))
	for key := range r.functions {
		fnNames = append(fnNames, key)
	}
	sort.Strings(fnNames)

	for _, key := range fnNames {
		fn := r.functions[key]
		seen := make(map[string]struct{})
		for _, p := range append(append([]string{}, fn.Params...), fn.Returns...) {
			n := NormalizePinName(p)
			if _, dup := seen[n]; dup {
				errs = append(errs, fmt.Sprintf("function '%s': duplicate parameter '%s'", fn.Name, p))
			}
			seen[n] = struct{}{}
		}
		if fn.Pure && len(fn.Returns) == 0 {
			logger.Warn("Pure function has no return value and can never be consumed.", "function", fn.Name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
