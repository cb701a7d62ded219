// Package musicbrainz provides a read-only client for the MusicBrainz API
// and the Cover Art Archive.
package musicbrainz

// releaseSearchResponse represents a MusicBrainz release search response
type releaseSearchResponse struct {
	Releases []Release `json:"releases"`
	Count    int       `json:"count"`
	Offset   int       `json:"offset"`
}

// Release represents a MusicBrainz release
type Release struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Date       string         `json:"date,omitempty"`
	Country    string         `json:"country,omitempty"`
	Status     string         `json:"status,omitempty"`
	TrackCount int            `json:"track-count,omitempty"`
	Artists    []ArtistCredit `json:"artist-credit,omitempty"`
	LabelInfo  []LabelInfo    `json:"label-info,omitempty"`
	Media      []Medium       `json:"media,omitempty"`
	Relations  []Relation     `json:"relations,omitempty"`
	Score      int            `json:"score,omitempty"`
}

// ArtistCredit represents a MusicBrainz artist credit
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase,omitempty"`
	Artist     Artist `json:"artist"`
}

// Artist represents a MusicBrainz artist
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// LabelInfo represents a MusicBrainz label entry on a release
type LabelInfo struct {
	CatalogNumber string `json:"catalog-number,omitempty"`
	Label         *Label `json:"label,omitempty"`
}

// Label represents a MusicBrainz record label
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Medium represents a MusicBrainz medium (disc, vinyl, etc.)
type Medium struct {
	Position int     `json:"position"`
	Format   string  `json:"format,omitempty"`
	Tracks   []Track `json:"tracks,omitempty"`
}

// Track represents a MusicBrainz track
type Track struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Position  int        `json:"position"`
	Recording *Recording `json:"recording,omitempty"`
}

// Recording represents a MusicBrainz recording
type Recording struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Relation represents an artist relationship on a release (producer,
// engineer, instrument credits and so on)
type Relation struct {
	Type       string   `json:"type"`
	Artist     *Artist  `json:"artist,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
}

// ReleaseCandidate is the simplified search result exposed by the API.
type ReleaseCandidate struct {
	MBID       string `json:"mbid"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Year       *int   `json:"year"`
	Label      string `json:"label,omitempty"`
	Country    string `json:"country,omitempty"`
	TrackCount int    `json:"track_count"`
}

// ReleaseDetail is the simplified release view used to pre-populate the
// album form and to drive enrichment.
type ReleaseDetail struct {
	MBID      string           `json:"mbid"`
	Title     string           `json:"title"`
	Artist    string           `json:"artist"`
	Year      *int             `json:"year"`
	Label     string           `json:"label,omitempty"`
	Tracks    []string         `json:"tracks"`
	Credits   []ArtistCredit   `json:"-"`
	Relations []Relation       `json:"-"`
}
