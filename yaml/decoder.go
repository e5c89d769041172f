// Package yaml decodes plugin descriptors written in YAML.
//
//	extractors:
//	  - name: webtoon
//	    kind: webtoon
//	    default: true
//	    identity:
//	      site_name: Webtoon
//	    settings:
//	      base_url: https://www.webtoons.com
package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/fwojciec/manhwa"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions handled by Decoder.
var Extensions = []string{".yaml", ".yml"}

var _ manhwa.DescriptorDecoder = (*Decoder)(nil)

// Decoder implements manhwa.DescriptorDecoder for YAML files.
type Decoder struct{}

// NewDecoder returns a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

type descriptorFile struct {
	Extractors []extractorEntry `yaml:"extractors"`
}

type extractorEntry struct {
	Name     string               `yaml:"name"`
	Kind     string               `yaml:"kind"`
	Default  bool                 `yaml:"default"`
	Identity identityEntry        `yaml:"identity"`
	Settings map[string]yaml.Node `yaml:"settings"`
}

type identityEntry struct {
	SiteName        string `yaml:"site_name"`
	SiteURL         string `yaml:"site_url"`
	SiteLogo        string `yaml:"site_logo"`
	SiteDescription string `yaml:"site_description"`
	Developer       string `yaml:"developer"`
}

// Decode parses src into a descriptor. Unknown fields are rejected.
func (d *Decoder) Decode(filename string, src []byte) (*manhwa.Descriptor, error) {
	var parsed descriptorFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
		return nil, manhwa.Errorf(manhwa.ELOAD, "%s: %v", filename, err)
	}

	desc := &manhwa.Descriptor{}
	seen := make(map[string]bool)
	for i, e := range parsed.Extractors {
		if e.Name == "" {
			return nil, manhwa.Errorf(manhwa.ELOAD, "%s: extractor %d: name required", filename, i)
		}
		if e.Kind == "" {
			return nil, manhwa.Errorf(manhwa.ELOAD, "%s: extractor %q: kind required", filename, e.Name)
		}
		if seen[e.Name] {
			return nil, manhwa.Errorf(manhwa.ELOAD, "%s: duplicate extractor %q", filename, e.Name)
		}
		seen[e.Name] = true

		settings := make(map[string]string, len(e.Settings))
		for name, node := range e.Settings {
			if node.Kind != yaml.ScalarNode {
				return nil, manhwa.Errorf(manhwa.ELOAD, "%s: extractor %q: setting %q must be a scalar (line %d)", filename, e.Name, name, node.Line)
			}
			settings[name] = node.Value
		}

		desc.Exports = append(desc.Exports, manhwa.Export{
			Name:    e.Name,
			Kind:    e.Kind,
			Default: e.Default,
			Identity: manhwa.Identity{
				SiteName:        e.Identity.SiteName,
				SiteURL:         e.Identity.SiteURL,
				SiteLogo:        e.Identity.SiteLogo,
				SiteDescription: e.Identity.SiteDescription,
				Developer:       e.Identity.Developer,
			},
			Settings: settings,
		})
	}
	return desc, nil
}
