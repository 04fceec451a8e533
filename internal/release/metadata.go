package release

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oshokin/excel-form-extractor/internal/config"
)

// normalizeSeparators matches runs of characters PEP 503 folds into a dash.
var normalizeSeparators = regexp.MustCompile(`[-_.]+`)

// Descriptor is the package metadata written next to the built artifacts.
type Descriptor struct {
	// Name is the normalized distribution name.
	Name string `yaml:"name"`
	// ImportName is the Python import package.
	ImportName string `yaml:"import_name"`
	// Version is the resolved release version.
	Version string `yaml:"version"`
	// URL is the project home page.
	URL string `yaml:"url"`
	// Author is the package author.
	Author string `yaml:"author"`
	// AuthorEmail is the author contact address.
	AuthorEmail string `yaml:"author_email,omitempty"`
	// Description is the one-line summary.
	Description string `yaml:"description"`
	// LongDescription is the README contents.
	LongDescription string `yaml:"long_description,omitempty"`
	// LongDescriptionContentType describes LongDescription.
	LongDescriptionContentType string `yaml:"long_description_content_type"`
	// License is the license identifier or full text.
	License string `yaml:"license"`
	// Platforms lists declared platforms.
	Platforms []string `yaml:"platforms,omitempty"`
	// Keywords lists index keywords.
	Keywords []string `yaml:"keywords"`
	// Classifiers lists trove classifiers.
	Classifiers []string `yaml:"classifiers,omitempty"`
	// PyModules lists pure Python modules.
	PyModules []string `yaml:"py_modules,omitempty"`
	// PackageData lists included file globs.
	PackageData []string `yaml:"package_data"`
}

// NormalizeName returns the PEP 503 normalized form of a distribution name.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeSeparators.ReplaceAllString(name, "-"))
}

// NewDescriptor assembles package metadata for the given version.
// The CI variant reads the README and LICENSE files from dir; missing files are errors.
func NewDescriptor(pkg config.Package, variant, version, dir string) (*Descriptor, error) {
	desc := &Descriptor{
		Name:                       pkg.Name,
		ImportName:                 pkg.Name,
		Version:                    version,
		URL:                        pkg.URL,
		Author:                     pkg.Author,
		AuthorEmail:                pkg.AuthorEmail,
		Description:                pkg.Description,
		LongDescriptionContentType: "text/markdown",
		License:                    pkg.License,
		Platforms:                  append([]string(nil), pkg.Platforms...),
		Keywords:                   append([]string(nil), pkg.Keywords...),
		PyModules:                  append([]string(nil), pkg.PyModules...),
		PackageData:                append([]string(nil), pkg.PackageData...),
	}

	if variant != config.VariantCI {
		return desc, nil
	}

	desc.Name = NormalizeName(pkg.Name)
	desc.Classifiers = append([]string(nil), pkg.Classifiers...)

	readme, err := os.ReadFile(filepath.Join(dir, pkg.ReadmeFile))
	if err != nil {
		return nil, fmt.Errorf("read readme: %w", err)
	}

	license, err := os.ReadFile(filepath.Join(dir, pkg.LicenseFile))
	if err != nil {
		return nil, fmt.Errorf("read license: %w", err)
	}

	desc.LongDescription = string(readme)
	desc.License = string(license)

	return desc, nil
}
