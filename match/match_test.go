package match

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/plume-bot/plume-bot/models"
)

func Test_Matches(t *testing.T) {
	tests := []struct {
		pkg     string
		version string
		asset   string
		want    bool
	}{
		{pkg: "plume-core", version: "1.2.0", asset: "plume_core-1.2.0.tar.gz", want: true},
		{pkg: "plume-core", version: "1.2.0", asset: "plume_core-1.2.0-py3-none-any.whl", want: true},
		{pkg: "plume_core", version: "1.2.0", asset: "plume-core-1.2.0.tar.gz", want: true},
		{pkg: "plume", version: "1.2.0", asset: "plume-1.2.0.tar.gz", want: true},
		{pkg: "plume", version: "1.2.0", asset: "plume_core-1.2.0.tar.gz", want: false},
		{pkg: "plume-core", version: "1.2.0", asset: "plume_core_style-1.2.0.tar.gz", want: false},
		{pkg: "plume-core", version: "1.2", asset: "plume_core-1.20.0.tar.gz", want: false},
		{pkg: "plume-core", version: "1.2.0", asset: "plume_core-1.2.0.tar.gz.sha256", want: false},
		{pkg: "plume-core", version: "1.2.0", asset: "checksums.txt", want: false},
		{pkg: "plume-core", version: "1.2.0", asset: "plume_core-2.0.0.tar.gz", want: false},
		{pkg: "plume-core", version: "v1.2.0", asset: "plume_core-v1.2.0.tar.gz", want: false},
		{pkg: "plume-core", version: "1.2.0", asset: "plume_core-1.2.0", want: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%s vs %s", tt.pkg, tt.version, tt.asset), func(t *testing.T) {
			spec := models.PackageSpec{Name: tt.pkg}
			if got := Matches(spec, tt.version, tt.asset); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Matches_pattern_override(t *testing.T) {
	spec := models.PackageSpec{Name: "plume-quill", Pattern: "quill"}
	if !Matches(spec, "1.2.0", "quill-1.2.0.tar.gz") {
		t.Errorf("pattern override did not match")
	}
	if Matches(spec, "1.2.0", "plume_quill-1.2.0.tar.gz") {
		t.Errorf("pattern override still matched the package name")
	}
}

func Test_Partition(t *testing.T) {
	specs := []models.PackageSpec{
		{Name: "plume"},
		{Name: "plume-core"},
		{Name: "plume-gtk"},
	}
	assets := []string{
		"plume-1.2.0.tar.gz",
		"plume-1.2.0-py3-none-any.whl",
		"plume_core-1.2.0.tar.gz",
		"plume_core-1.2.0-py3-none-any.whl",
		"plume_gtk-1.2.0-py3-none-linux_x86_64.whl",
		"checksums.txt",
		"source.tar.gz",
	}

	got, err := Partition(specs, "1.2.0", assets)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	want := map[string][]string{
		"plume":      {"plume-1.2.0.tar.gz", "plume-1.2.0-py3-none-any.whl"},
		"plume-core": {"plume_core-1.2.0.tar.gz", "plume_core-1.2.0-py3-none-any.whl"},
		"plume-gtk":  {"plume_gtk-1.2.0-py3-none-linux_x86_64.whl"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Partition() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Partition_ambiguous(t *testing.T) {
	specs := []models.PackageSpec{
		{Name: "plume-core"},
		{Name: "plume_core"},
	}
	_, err := Partition(specs, "1.2.0", []string{"plume_core-1.2.0.tar.gz"})
	if err == nil {
		t.Errorf("Partition() accepted two packages claiming the same asset")
	}
}
