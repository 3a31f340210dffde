package index

import (
	"strings"
	"testing"

	"github.com/plume-bot/plume-bot/models"
)

func validManifest() *Manifest {
	return &Manifest{
		Package: "plume-core",
		Version: "1.2.0",
		Files: []ManifestFile{
			{Name: "plume_core-1.2.0.tar.gz", Sha256: strings.Repeat("a", 64), Size: 1024},
		},
	}
}

func TestManifest_Lint(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Manifest)
		wantErr bool
	}{
		{name: "valid", mutate: func(m *Manifest) {}, wantErr: false},
		{name: "missing package", mutate: func(m *Manifest) { m.Package = "" }, wantErr: true},
		{name: "bad version", mutate: func(m *Manifest) { m.Version = "one.two" }, wantErr: true},
		{name: "no files", mutate: func(m *Manifest) { m.Files = nil }, wantErr: true},
		{name: "short sha", mutate: func(m *Manifest) { m.Files[0].Sha256 = "abc" }, wantErr: true},
		{name: "zero size", mutate: func(m *Manifest) { m.Files[0].Size = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			if err := m.Lint(); (err != nil) != tt.wantErr {
				t.Errorf("Lint() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildManifest(t *testing.T) {
	pkg := &models.Package{
		Name:    "plume-core",
		Version: "1.2.0",
		Distributions: []models.Distribution{
			{AssetName: "plume_core-1.2.0.tar.gz", Sha256: strings.Repeat("a", 64), Size: 1024},
			{AssetName: "plume_core-1.2.0-py3-none-any.whl", Sha256: strings.Repeat("b", 64), Size: 2048},
		},
	}

	m := BuildManifest(pkg)
	if err := m.Lint(); err != nil {
		t.Fatalf("Lint() on built manifest: %v", err)
	}
	if len(m.Files) != 2 {
		t.Errorf("BuildManifest() files = %d, want 2", len(m.Files))
	}

	raw, err := m.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(raw), `package = 'plume-core'`) && !strings.Contains(string(raw), `package = "plume-core"`) {
		t.Errorf("Render() missing package name:\n%s", raw)
	}
}
