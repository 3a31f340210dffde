package config

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/plume-bot/plume-bot/models"
)

// Tool is the declarative tool configuration read from plume.toml. The
// lint and coverage tables are option lists for external tools and are
// only validated here, never executed.
type Tool struct {
	Lint     Lint     `toml:"lint"`
	Coverage Coverage `toml:"coverage"`
	Notes    Notes    `toml:"notes"`
	App      App      `toml:"app"`
}

type Lint struct {
	Select []string `toml:"select"`
	Ignore []string `toml:"ignore"`
}

type Coverage struct {
	Source    []string `toml:"source"`
	Exclude   []string `toml:"exclude"`
	FailUnder float64  `toml:"fail_under"`
}

type Notes struct {
	Directory string   `toml:"directory"`
	Types     []string `toml:"types"`
}

// App is the build descriptor of the sample application: which backend
// package it needs on each target platform.
type App struct {
	Name     string              `toml:"name"`
	Sources  []string            `toml:"sources"`
	Requires map[string][]string `toml:"requires"`
}

var knownTargets = map[string]bool{
	"macos":   true,
	"linux":   true,
	"windows": true,
	"ios":     true,
	"android": true,
	"web":     true,
}

// LoadTool reads and validates plume.toml against the package matrix.
func LoadTool(path string, specs []models.PackageSpec) (*Tool, error) {

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading tool config %s", path)
	}

	t := &Tool{}
	if err := toml.Unmarshal(raw, t); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", path)
	}

	if t.Notes.Directory == "" {
		t.Notes.Directory = "changes"
	}
	if len(t.Notes.Types) == 0 {
		t.Notes.Types = []string{"feature", "bugfix", "doc", "removal", "misc"}
	}

	if err := t.check(specs); err != nil {
		return nil, errors.Wrapf(err, "invalid tool config %s", path)
	}
	return t, nil
}

func (t *Tool) check(specs []models.PackageSpec) error {
	if t.Coverage.FailUnder < 0 || t.Coverage.FailUnder > 100 {
		return fmt.Errorf("coverage fail_under %v is not a percentage", t.Coverage.FailUnder)
	}

	known := map[string]bool{}
	for _, pkg := range specs {
		known[pkg.Name] = true
	}

	for target, requires := range t.App.Requires {
		if !knownTargets[target] {
			return fmt.Errorf("app requires lists unknown target %q", target)
		}
		for _, req := range requires {
			// Third-party requirements (with version markers) are
			// allowed as-is, toolkit packages must be in the matrix.
			name := requirementName(req)
			if strings.HasPrefix(name, "plume") && !known[name] {
				return fmt.Errorf("app target %s requires %q which is not in the package matrix", target, name)
			}
		}
	}
	return nil
}

func requirementName(req string) string {
	for i, r := range req {
		if r == '=' || r == '>' || r == '<' || r == '~' || r == ' ' {
			return req[:i]
		}
	}
	return req
}
