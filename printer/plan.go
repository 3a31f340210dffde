package printer

import (
	"fmt"

	"github.com/plume-bot/plume-bot/models"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// Table prints the publish plan for every package of the matrix.
func Table(packages []*models.Package) {

	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New("Package", "Published", "Release", "Files", "Status")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

	for _, pkg := range packages {
		tbl.AddRow(pkg.Name, pkg.PublishedVersion, pkg.Version, len(pkg.Distributions), Status(pkg))
	}

	tbl.Print()
	fmt.Println()
}

// Status summarizes what the publish run will do with a package.
func Status(pkg *models.Package) string {
	switch {
	case len(pkg.Distributions) == 0 && pkg.Optional:
		return "No assets (optional)"
	case len(pkg.Distributions) == 0:
		return "Missing assets"
	case pkg.PublishedVersion == "":
		return "New package"
	case pkg.PublishedVersion == pkg.Version:
		return "Up to date"
	default:
		return "Needs publish"
	}
}
