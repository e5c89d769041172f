package manhwa

// ThumbnailNotFound is stored in Metadata.Thumbnail when the source page
// does not expose a cover image.
const ThumbnailNotFound = "NOT FOUND"

// StatusUnknown is used by extractors for sites that do not publish a
// serialization status.
const StatusUnknown = "Unknown"

// Metadata describes a single webcomic title.
type Metadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Status      string `json:"status"`
	Rating      string `json:"rating"`
	Thumbnail   string `json:"thumbnail"`

	// URL is the canonical page for the title, after redirects.
	URL string `json:"url"`
}

// Validate returns an error if the metadata is missing mandatory fields.
func (m *Metadata) Validate() error {
	if m.Title == "" {
		return Errorf(EINVALID, "metadata title required")
	}
	if m.URL == "" {
		return Errorf(EINVALID, "metadata url required")
	}
	return nil
}

// Chapter is one entry of a title's chapter index.
type Chapter struct {
	Title string `json:"title"`
	URL   string `json:"url"`

	// ReleaseDate is display text copied from the source. It is not parsed.
	ReleaseDate string `json:"releaseDate"`

	// Number is the chapter ordinal parsed from a "#<n>" label.
	Number int `json:"chapterNumber"`
}

// Work is a title together with its chapter index.
//
// Works returned by Extractor.SearchByTitle carry no chapters. Works returned
// by Extractor.FetchWorkByID carry the full chapter sequence.
type Work struct {
	Metadata Metadata   `json:"metadata"`
	Chapters []*Chapter `json:"chapters"`
}

// NewSearchWork returns a metadata-only Work as produced by a search.
func NewSearchWork(m Metadata) *Work {
	return &Work{Metadata: m, Chapters: []*Chapter{}}
}
