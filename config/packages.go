package config

import (
	"fmt"
	"io/ioutil"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/plume-bot/plume-bot/match"
	"github.com/plume-bot/plume-bot/models"
)

// LoadPackages reads the publish matrix from a yaml file. When target is
// non-empty only the matching entry is returned.
func LoadPackages(path, target string) ([]models.PackageSpec, error) {

	c := []models.PackageSpec{}

	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading package matrix %s", path)
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", path)
	}

	if err := checkPackages(c); err != nil {
		return nil, err
	}

	if target == "" {
		return c, nil
	}

	for _, pkg := range c {
		if pkg.Name == target {
			return []models.PackageSpec{pkg}, nil
		}
	}

	return nil, fmt.Errorf("target %q is not in the package matrix", target)
}

func checkPackages(specs []models.PackageSpec) error {
	seen := map[string]string{}
	for _, pkg := range specs {
		if pkg.Name == "" {
			return fmt.Errorf("package matrix entry without a name")
		}
		norm := match.Normalize(pkg.Name)
		if prev, ok := seen[norm]; ok {
			return fmt.Errorf("packages %q and %q resolve to the same asset pattern", prev, pkg.Name)
		}
		seen[norm] = pkg.Name
	}
	return nil
}
