// Package script defines test scripts: units of test code that run when
// loaded, optionally exposing set up, run and tear down hooks.
package script

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by a Resolver that has no script for a Ref.
var ErrNotFound = errors.New("script not found")

// Script is a loadable test script. Load executes the script's top-level
// code; a script with no code is a vacuously passing test.
type Script interface {
	Load(ctx context.Context, a *Asserter) error
}

// SetUpper is implemented by scripts with a set up hook.
type SetUpper interface {
	SetUp(ctx context.Context, a *Asserter) error
}

// RunTester is implemented by scripts that keep their checks out of Load.
type RunTester interface {
	RunTest(ctx context.Context, a *Asserter) error
}

// TearDowner is implemented by scripts with a tear down hook.
type TearDowner interface {
	TearDown(ctx context.Context, a *Asserter) error
}

// Func adapts a plain function to a Script.
type Func func(ctx context.Context, a *Asserter) error

// Load implements Script.
func (f Func) Load(ctx context.Context, a *Asserter) error {
	if f == nil {
		return nil
	}
	return f(ctx, a)
}

// Hooks is a Script assembled from optional phase functions.
type Hooks struct {
	OnLoad     Func
	OnSetUp    Func
	OnRun      Func
	OnTearDown Func
}

// Load implements Script.
func (h Hooks) Load(ctx context.Context, a *Asserter) error { return h.OnLoad.Load(ctx, a) }

// SetUp implements SetUpper.
func (h Hooks) SetUp(ctx context.Context, a *Asserter) error { return h.OnSetUp.Load(ctx, a) }

// RunTest implements RunTester.
func (h Hooks) RunTest(ctx context.Context, a *Asserter) error { return h.OnRun.Load(ctx, a) }

// TearDown implements TearDowner.
func (h Hooks) TearDown(ctx context.Context, a *Asserter) error { return h.OnTearDown.Load(ctx, a) }

// Ref locates a script. Module is the dotted identity used for registered
// scripts and reports; Path is the file on disk, if any.
type Ref struct {
	Module string
	Path   string
}

// NewRef derives the module identity of a script file relative to root:
// the extension is stripped and path separators become dots. Files outside
// root are named by their base name.
func NewRef(root, path string) Ref {
	rel := path
	if root != "" {
		rel = filepath.Base(path)
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return Ref{Module: ModuleName(rel), Path: path}
}

// ModuleName converts a relative file path into a module identity.
func ModuleName(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.TrimPrefix(rel, "./")
	return strings.ReplaceAll(rel, "/", ".")
}

// Resolver finds the script for a Ref.
type Resolver interface {
	Resolve(ref Ref) (Script, error)
}

// Chain tries each resolver in order and returns the first script found.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ref Ref) (Script, error) {
	for _, r := range c {
		s, err := r.Resolve(ref)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("resolve %q: %w", ref.Module, ErrNotFound)
}

// Registry holds in-process scripts keyed by module name.
type Registry struct {
	scripts map[string]Script
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]Script)}
}

// Register adds s under module, replacing any previous registration.
func (r *Registry) Register(module string, s Script) {
	r.scripts[module] = s
}

// Resolve implements Resolver.
func (r *Registry) Resolve(ref Ref) (Script, error) {
	if s, ok := r.scripts[ref.Module]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("module %q: %w", ref.Module, ErrNotFound)
}

// Modules returns the registered module names, sorted.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process registry that script packages register into from
// their init functions.
var Default = NewRegistry()
