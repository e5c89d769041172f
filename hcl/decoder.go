// Package hcl decodes plugin descriptors written in HCL.
//
//	extractor "webtoon" {
//	  kind    = "webtoon"
//	  default = true
//
//	  identity {
//	    site_name = "Webtoon"
//	  }
//
//	  settings = {
//	    base_url  = "https://www.webtoons.com"
//	    page_size = 10
//	  }
//	}
package hcl

import (
	"fmt"

	"github.com/fwojciec/manhwa"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Extensions are the file extensions handled by Decoder.
var Extensions = []string{".hcl"}

var _ manhwa.DescriptorDecoder = (*Decoder)(nil)

// Decoder implements manhwa.DescriptorDecoder for HCL files.
type Decoder struct{}

// NewDecoder returns a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

type descriptorFile struct {
	Extractors []*extractorBlock `hcl:"extractor,block"`
}

type extractorBlock struct {
	Name     string         `hcl:"name,label"`
	Kind     string         `hcl:"kind"`
	Default  bool           `hcl:"default,optional"`
	Identity *identityBlock `hcl:"identity,block"`
	Settings cty.Value      `hcl:"settings,optional"`
}

type identityBlock struct {
	SiteName        string `hcl:"site_name,optional"`
	SiteURL         string `hcl:"site_url,optional"`
	SiteLogo        string `hcl:"site_logo,optional"`
	SiteDescription string `hcl:"site_description,optional"`
	Developer       string `hcl:"developer,optional"`
}

// Decode parses src into a descriptor. Syntax and schema problems are
// reported as ELOAD with the parser diagnostics.
func (d *Decoder) Decode(filename string, src []byte) (*manhwa.Descriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, manhwa.Errorf(manhwa.ELOAD, "%s", diags.Error())
	}

	var parsed descriptorFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, manhwa.Errorf(manhwa.ELOAD, "%s", diags.Error())
	}

	desc := &manhwa.Descriptor{}
	seen := make(map[string]bool)
	for _, b := range parsed.Extractors {
		if seen[b.Name] {
			return nil, manhwa.Errorf(manhwa.ELOAD, "%s: duplicate extractor %q", filename, b.Name)
		}
		seen[b.Name] = true

		settings, err := stringSettings(b.Settings)
		if err != nil {
			return nil, manhwa.Errorf(manhwa.ELOAD, "%s: extractor %q: %v", filename, b.Name, err)
		}

		export := manhwa.Export{
			Name:     b.Name,
			Kind:     b.Kind,
			Default:  b.Default,
			Settings: settings,
		}
		if b.Identity != nil {
			export.Identity = manhwa.Identity{
				SiteName:        b.Identity.SiteName,
				SiteURL:         b.Identity.SiteURL,
				SiteLogo:        b.Identity.SiteLogo,
				SiteDescription: b.Identity.SiteDescription,
				Developer:       b.Identity.Developer,
			}
		}
		desc.Exports = append(desc.Exports, export)
	}
	return desc, nil
}

// stringSettings converts the settings object to strings so that numbers
// and booleans can be written without quotes.
func stringSettings(v cty.Value) (map[string]string, error) {
	settings := make(map[string]string)
	if v == cty.NilVal || v.IsNull() {
		return settings, nil
	}
	if ty := v.Type(); !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("settings must be an object, got %s", ty.FriendlyName())
	}
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		name := k.AsString()
		if val.IsNull() {
			continue
		}
		s, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", name, err)
		}
		settings[name] = s.AsString()
	}
	return settings, nil
}
