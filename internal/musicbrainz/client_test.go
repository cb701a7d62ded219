package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "count": 2,
  "offset": 0,
  "releases": [
    {
      "id": "f5093c06-23e3-404f-aeaa-40f72885ee3a",
      "title": "Kind of Blue",
      "date": "1959-08-17",
      "country": "US",
      "track-count": 5,
      "artist-credit": [{"name": "Miles Davis", "artist": {"id": "a1", "name": "Miles Davis"}}],
      "label-info": [{"label": {"id": "l1", "name": "Columbia"}}]
    },
    {
      "id": "no-extras",
      "title": "Kind of Blue",
      "date": "",
      "artist-credit": [],
      "label-info": []
    }
  ]
}`

const releaseFixture = `{
  "id": "f5093c06-23e3-404f-aeaa-40f72885ee3a",
  "title": "Kind of Blue",
  "date": "1959-08-17",
  "artist-credit": [{"name": "Miles Davis", "artist": {"id": "a1", "name": "Miles Davis"}}],
  "label-info": [{"label": {"id": "l1", "name": "Columbia"}}],
  "media": [
    {
      "tracks": [
        {"title": "So What"},
        {"title": "", "recording": {"title": "Freddie Freeloader"}},
        {"title": "Blue in Green"}
      ]
    },
    {
      "tracks": [
        {"title": "All Blues"},
        {"title": "Flamenco Sketches"}
      ]
    }
  ],
  "relations": [
    {"type": "producer", "artist": {"id": "p1", "name": "Teo Macero"}},
    {"type": "instrument", "artist": {"id": "a2", "name": "Bill Evans"}, "attributes": ["piano"]}
  ]
}`

func newFixtureClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURLs(srv.URL, srv.URL), WithRateLimit(0))
}

func TestSearchReleases(t *testing.T) {
	var gotQuery string
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Contains(t, r.Header.Get("User-Agent"), "discobase")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	})

	candidates, err := client.SearchReleases(context.Background(), "Kind of Blue", "Miles Davis")
	require.NoError(t, err)
	assert.Equal(t, `release:"Kind of Blue" AND artist:"Miles Davis"`, gotQuery)

	require.Len(t, candidates, 2)
	first := candidates[0]
	assert.Equal(t, "f5093c06-23e3-404f-aeaa-40f72885ee3a", first.MBID)
	assert.Equal(t, "Kind of Blue", first.Title)
	assert.Equal(t, "Miles Davis", first.Artist)
	require.NotNil(t, first.Year)
	assert.Equal(t, 1959, *first.Year)
	assert.Equal(t, "Columbia", first.Label)
	assert.Equal(t, "US", first.Country)
	assert.Equal(t, 5, first.TrackCount)

	// Sparse entries come through with empty optional fields.
	second := candidates[1]
	assert.Nil(t, second.Year)
	assert.Empty(t, second.Label)
	assert.Empty(t, second.Artist)
}

func TestSearchReleasesAPIError(t *testing.T) {
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SearchReleases(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGetRelease(t *testing.T) {
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/release/f5093c06-23e3-404f-aeaa-40f72885ee3a", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "inc=recordings+artist-credits+labels+artist-rels")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(releaseFixture))
	})

	detail, err := client.GetRelease(context.Background(), "f5093c06-23e3-404f-aeaa-40f72885ee3a")
	require.NoError(t, err)

	assert.Equal(t, "Kind of Blue", detail.Title)
	assert.Equal(t, "Miles Davis", detail.Artist)
	require.NotNil(t, detail.Year)
	assert.Equal(t, 1959, *detail.Year)
	assert.Equal(t, "Columbia", detail.Label)
	// Tracks span both media; the empty title falls back to the recording.
	assert.Equal(t, []string{
		"So What", "Freddie Freeloader", "Blue in Green", "All Blues", "Flamenco Sketches",
	}, detail.Tracks)
	require.Len(t, detail.Relations, 2)
	assert.Equal(t, "producer", detail.Relations[0].Type)
	assert.Equal(t, "Teo Macero", detail.Relations[0].Artist.Name)
	assert.Equal(t, []string{"piano"}, detail.Relations[1].Attributes)
}

func TestDownloadCoverArt(t *testing.T) {
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release/has-art/front":
			w.Write([]byte("jpegbytes"))
		case "/release/no-art/front":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	data, err := client.DownloadCoverArt(context.Background(), "has-art")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), data)

	_, err = client.DownloadCoverArt(context.Background(), "no-art")
	assert.ErrorIs(t, err, ErrNoCoverArt)

	_, err = client.DownloadCoverArt(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCoverArt)
}

func TestJoinArtistCredits(t *testing.T) {
	credits := []ArtistCredit{
		{Name: "Miles Davis", JoinPhrase: " & ", Artist: Artist{Name: "Miles Davis"}},
		{Name: "", JoinPhrase: "", Artist: Artist{Name: "John Coltrane"}},
	}
	assert.Equal(t, "Miles Davis & John Coltrane", joinArtistCredits(credits))
	assert.Equal(t, "", joinArtistCredits(nil))
}

func TestYearFromDate(t *testing.T) {
	require.NotNil(t, yearFromDate("1959-08-17"))
	assert.Equal(t, 1959, *yearFromDate("1959-08-17"))
	assert.Equal(t, 1971, *yearFromDate("1971"))
	assert.Nil(t, yearFromDate(""))
	assert.Nil(t, yearFromDate("19"))
	assert.Nil(t, yearFromDate("abcd-01-01"))
}
