package hcl_test

import (
	"testing"

	"github.com/fwojciec/manhwa"
	"github.com/fwojciec/manhwa/hcl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	t.Run("decodes exports in declaration order", func(t *testing.T) {
		t.Parallel()

		src := []byte(`
extractor "legacy" {
  kind = "selector"
}

extractor "webtoon" {
  kind    = "webtoon"
  default = true

  identity {
    site_name        = "Webtoon"
    site_description = "Webtoon originals"
    developer        = "manhwa"
  }

  settings = {
    base_url  = "https://www.webtoons.com"
    page_size = 10
  }
}
`)

		desc, err := hcl.NewDecoder().Decode("webtoon.hcl", src)

		require.NoError(t, err)
		require.Len(t, desc.Exports, 2)
		assert.Equal(t, manhwa.Export{Name: "legacy", Kind: "selector", Settings: map[string]string{}}, desc.Exports[0])
		assert.Equal(t, manhwa.Export{
			Name:    "webtoon",
			Kind:    "webtoon",
			Default: true,
			Identity: manhwa.Identity{
				SiteName:        "Webtoon",
				SiteDescription: "Webtoon originals",
				Developer:       "manhwa",
			},
			Settings: map[string]string{
				"base_url":  "https://www.webtoons.com",
				"page_size": "10",
			},
		}, desc.Exports[1])
	})

	t.Run("decodes an empty file as a descriptor without exports", func(t *testing.T) {
		t.Parallel()

		desc, err := hcl.NewDecoder().Decode("empty.hcl", nil)

		require.NoError(t, err)
		assert.Empty(t, desc.Exports)
	})

	t.Run("reports syntax errors as load errors", func(t *testing.T) {
		t.Parallel()

		_, err := hcl.NewDecoder().Decode("broken.hcl", []byte(`extractor "webtoon" {`))

		require.Error(t, err)
		assert.Equal(t, manhwa.ELOAD, manhwa.ErrorCode(err))
		assert.Contains(t, manhwa.ErrorMessage(err), "broken.hcl")
	})

	t.Run("reports a missing kind as a load error", func(t *testing.T) {
		t.Parallel()

		_, err := hcl.NewDecoder().Decode("nokind.hcl", []byte(`extractor "webtoon" {}`))

		require.Error(t, err)
		assert.Equal(t, manhwa.ELOAD, manhwa.ErrorCode(err))
	})

	t.Run("rejects unknown arguments", func(t *testing.T) {
		t.Parallel()

		_, err := hcl.NewDecoder().Decode("typo.hcl", []byte(`
extractor "webtoon" {
  kind  = "webtoon"
  defualt = true
}
`))

		require.Error(t, err)
		assert.Equal(t, manhwa.ELOAD, manhwa.ErrorCode(err))
	})

	t.Run("rejects duplicate extractor names", func(t *testing.T) {
		t.Parallel()

		_, err := hcl.NewDecoder().Decode("dup.hcl", []byte(`
extractor "webtoon" { kind = "webtoon" }
extractor "webtoon" { kind = "selector" }
`))

		require.Error(t, err)
		assert.Equal(t, manhwa.ELOAD, manhwa.ErrorCode(err))
		assert.Contains(t, manhwa.ErrorMessage(err), "duplicate")
	})

	t.Run("rejects settings that are not scalar", func(t *testing.T) {
		t.Parallel()

		_, err := hcl.NewDecoder().Decode("nested.hcl", []byte(`
extractor "webtoon" {
  kind     = "webtoon"
  settings = { base_url = ["a", "b"] }
}
`))

		require.Error(t, err)
		assert.Equal(t, manhwa.ELOAD, manhwa.ErrorCode(err))
	})
}
