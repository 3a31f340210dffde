package release

import (
	"context"
	"fmt"
	"testing"
)

func Test_Version(t *testing.T) {
	tests := []struct {
		tag     string
		project string
		want    string
	}{
		{tag: "1.2.0", project: "plume", want: "1.2.0"},
		{tag: "v1.2.0", project: "plume", want: "1.2.0"},
		{tag: "plume-1.2.0", project: "plume", want: "1.2.0"},
		{tag: "plume/1.2.0", project: "plume", want: "1.2.0"},
		{tag: "plume/v1.2.0", project: "plume", want: "1.2.0"},
		{tag: "v1.2.0-rc.1", project: "plume", want: "1.2.0-rc.1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("Tag: '%s' for %s gives clean version %s", tt.tag, tt.project, tt.want), func(t *testing.T) {
			if got := Version(tt.tag, tt.project); got != tt.want {
				t.Errorf("Version() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_CheckVersion(t *testing.T) {
	tests := []struct {
		version    string
		prerelease bool
		wantErr    bool
	}{
		{version: "1.2.0", prerelease: false, wantErr: false},
		{version: "1.2.0-rc.1", prerelease: true, wantErr: false},
		{version: "1.2.0-rc.1", prerelease: false, wantErr: true},
		{version: "not-a-version", prerelease: false, wantErr: true},
		{version: "", prerelease: false, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q prerelease=%v", tt.version, tt.prerelease), func(t *testing.T) {
			err := CheckVersion(context.Background(), tt.version, tt.prerelease)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
