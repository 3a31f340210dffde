package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/plume-bot/plume-bot/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const packagesYaml = `- name: plume
- name: plume-core
- name: plume-gtk
  backends: [linux]
- name: plume-demo
  optional: true
`

func Test_LoadPackages(t *testing.T) {
	path := writeFile(t, "packages.yaml", packagesYaml)

	specs, err := LoadPackages(path, "")
	if err != nil {
		t.Fatalf("LoadPackages() error = %v", err)
	}
	if len(specs) != 4 {
		t.Fatalf("LoadPackages() len = %d, want 4", len(specs))
	}
	if !specs[3].Optional {
		t.Errorf("plume-demo should be optional")
	}
	if len(specs[2].Backends) != 1 || specs[2].Backends[0] != "linux" {
		t.Errorf("plume-gtk backends = %v", specs[2].Backends)
	}
}

func Test_LoadPackages_target(t *testing.T) {
	path := writeFile(t, "packages.yaml", packagesYaml)

	specs, err := LoadPackages(path, "plume-core")
	if err != nil {
		t.Fatalf("LoadPackages() error = %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "plume-core" {
		t.Errorf("LoadPackages(target) = %v", specs)
	}

	if _, err := LoadPackages(path, "plume-qt"); err == nil {
		t.Errorf("LoadPackages() accepted a target outside the matrix")
	}
}

func Test_LoadPackages_duplicatePattern(t *testing.T) {
	path := writeFile(t, "packages.yaml", "- name: plume-core\n- name: plume_core\n")

	if _, err := LoadPackages(path, ""); err == nil {
		t.Errorf("LoadPackages() accepted two names with the same normalized pattern")
	}
}

const toolToml = `[lint]
select = ["E", "F"]
ignore = ["E501"]

[coverage]
source = ["core/src"]
fail_under = 85.0

[app]
name = "plume-demo"

[app.requires]
linux = ["plume-gtk", "pygobject>=3.46"]
macos = ["plume-cocoa"]
`

func matrix() []models.PackageSpec {
	return []models.PackageSpec{
		{Name: "plume"},
		{Name: "plume-gtk"},
		{Name: "plume-cocoa"},
	}
}

func Test_LoadTool(t *testing.T) {
	path := writeFile(t, "plume.toml", toolToml)

	tool, err := LoadTool(path, matrix())
	if err != nil {
		t.Fatalf("LoadTool() error = %v", err)
	}
	if tool.Coverage.FailUnder != 85.0 {
		t.Errorf("fail_under = %v, want 85", tool.Coverage.FailUnder)
	}
	if tool.Notes.Directory != "changes" {
		t.Errorf("notes directory default = %q, want changes", tool.Notes.Directory)
	}
	if len(tool.App.Requires["linux"]) != 2 {
		t.Errorf("linux requires = %v", tool.App.Requires["linux"])
	}
}

func Test_LoadTool_invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{
			name: "fail_under out of range",
			toml: "[coverage]\nfail_under = 120.0\n",
		},
		{
			name: "unknown target",
			toml: "[app.requires]\namiga = [\"plume-core\"]\n",
		},
		{
			name: "requirement outside matrix",
			toml: "[app.requires]\nlinux = [\"plume-qt\"]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "plume.toml", tt.toml)
			if _, err := LoadTool(path, matrix()); err == nil {
				t.Errorf("LoadTool() accepted: %s", tt.toml)
			}
		})
	}
}
