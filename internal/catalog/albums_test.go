package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pmills/discobase/internal/database"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return NewService(db, nil)
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func kindOfBlueInput() AlbumInput {
	return AlbumInput{
		Title:       "Kind of Blue",
		Artist:      "Miles Davis",
		ReleaseYear: intptr(1959),
		Producer:    strptr("Teo Macero"),
		RecordLabel: strptr("Columbia"),
		Tracks:      []string{"So What", "Freddie Freeloader", "Blue in Green", "All Blues", "Flamenco Sketches"},
		Musicians: []AlbumMusicianInput{
			{MusicianName: "Miles Davis", Instrument: "trumpet"},
			{MusicianName: "John Coltrane", Instrument: "tenor saxophone"},
			{MusicianName: "Bill Evans", Instrument: "piano"},
		},
		Personnel: []AlbumPersonnelInput{
			{PersonName: "Fred Plaut", Role: "Engineer"},
		},
		OtherDetails: []AlbumDetailInput{
			{DetailName: "30th Street Studio", DetailType: "Recording Studio"},
		},
	}
}

func TestCreateAndGetAlbum(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	album, err := svc.GetAlbum(created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Kind of Blue", album.Title)
	assert.Equal(t, "Miles Davis", album.Artist)
	assert.Equal(t, 1959, *album.ReleaseYear)
	assert.Equal(t, "Columbia", *album.RecordLabel)
	// Track order must round-trip exactly.
	assert.Equal(t, []string{"So What", "Freddie Freeloader", "Blue in Green", "All Blues", "Flamenco Sketches"}, album.Tracks)
	require.Len(t, album.Musicians, 3)
	assert.Equal(t, "Miles Davis", album.Musicians[0].Musician.Name)
	assert.Equal(t, "trumpet", album.Musicians[0].Instrument)
	require.Len(t, album.Personnel, 1)
	assert.Equal(t, "Engineer", album.Personnel[0].Role)
	require.Len(t, album.OtherDetails, 1)
	assert.Equal(t, "Recording Studio", album.OtherDetails[0].DetailType)
}

func TestGetAlbumNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetAlbum(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSharedEntitiesAreDeduplicated(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	second := AlbumInput{
		Title:       "Milestones",
		Artist:      "Miles Davis",
		RecordLabel: strptr("Columbia"),
		Musicians: []AlbumMusicianInput{
			{MusicianName: "Miles Davis", Instrument: "trumpet"},
		},
	}
	_, err = svc.CreateAlbum(second)
	require.NoError(t, err)

	var musicianCount, labelCount int64
	svc.DB().Model(&database.Musician{}).Where("name = ?", "Miles Davis").Count(&musicianCount)
	svc.DB().Model(&database.RecordLabel{}).Where("name = ?", "Columbia").Count(&labelCount)
	assert.Equal(t, int64(1), musicianCount)
	assert.Equal(t, int64(1), labelCount)
}

func TestUpdateAlbumPartial(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	year := 1960
	updated, err := svc.UpdateAlbum(created.ID, AlbumUpdate{ReleaseYear: &year})
	require.NoError(t, err)

	assert.Equal(t, 1960, *updated.ReleaseYear)
	// Untouched fields survive.
	assert.Equal(t, "Kind of Blue", updated.Title)
	assert.Len(t, updated.Musicians, 3)
}

func TestUpdateAlbumReplacesLinksWholesale(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	musicians := []AlbumMusicianInput{
		{MusicianName: "Cannonball Adderley", Instrument: "alto saxophone"},
	}
	updated, err := svc.UpdateAlbum(created.ID, AlbumUpdate{Musicians: &musicians})
	require.NoError(t, err)

	require.Len(t, updated.Musicians, 1)
	assert.Equal(t, "Cannonball Adderley", updated.Musicians[0].Musician.Name)
	// Personnel untouched.
	assert.Len(t, updated.Personnel, 1)
}

func TestListAlbumsFilters(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)
	_, err = svc.CreateAlbum(AlbumInput{
		Title:       "A Love Supreme",
		Artist:      "John Coltrane",
		RecordLabel: strptr("Impulse!"),
		Musicians: []AlbumMusicianInput{
			{MusicianName: "John Coltrane", Instrument: "tenor saxophone"},
		},
	})
	require.NoError(t, err)

	byArtist, err := svc.ListAlbums(AlbumFilter{Artist: "miles"})
	require.NoError(t, err)
	require.Len(t, byArtist, 1)
	assert.Equal(t, "Kind of Blue", byArtist[0].Title)

	byLabel, err := svc.ListAlbums(AlbumFilter{Label: "impulse"})
	require.NoError(t, err)
	require.Len(t, byLabel, 1)
	assert.Equal(t, "A Love Supreme", byLabel[0].Title)

	byInstrument, err := svc.ListAlbums(AlbumFilter{Instrument: "tenor"})
	require.NoError(t, err)
	assert.Len(t, byInstrument, 2)

	bySearch, err := svc.ListAlbums(AlbumFilter{Search: "supreme"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)

	// Filters are AND-combined.
	combined, err := svc.ListAlbums(AlbumFilter{Instrument: "tenor", Artist: "coltrane"})
	require.NoError(t, err)
	assert.Len(t, combined, 1)

	none, err := svc.ListAlbums(AlbumFilter{Artist: "miles", Label: "impulse"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListAlbumsByMusicianID(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	musician, err := svc.GetOrCreateMusician(svc.DB(), "Bill Evans")
	require.NoError(t, err)

	albums, err := svc.ListAlbums(AlbumFilter{MusicianID: &musician.ID})
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Kind of Blue", albums[0].Title)
}

func TestFindAlbumByTitleArtistCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	found, err := svc.FindAlbumByTitleArtist("KIND OF BLUE", "miles davis")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.FindAlbumByTitleArtist("Kind of Blue", "someone else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAlbumRemovesLinks(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAlbum(created.ID))

	_, err = svc.GetAlbum(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var linkCount int64
	svc.DB().Model(&database.AlbumMusician{}).Where("album_id = ?", created.ID).Count(&linkCount)
	assert.Zero(t, linkCount)

	// Shared entities survive album deletion.
	var musicianCount int64
	svc.DB().Model(&database.Musician{}).Count(&musicianCount)
	assert.Equal(t, int64(3), musicianCount)
}

func TestDeleteAllAlbums(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)
	_, err = svc.CreateAlbum(AlbumInput{Title: "Milestones", Artist: "Miles Davis"})
	require.NoError(t, err)

	count, err := svc.DeleteAllAlbums()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	albums, err := svc.ListAlbums(AlbumFilter{})
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestGetMusicianGroupsAlbums(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAlbum(AlbumInput{
		Title:  "Our Man in Paris",
		Artist: "Dexter Gordon",
		Musicians: []AlbumMusicianInput{
			{MusicianName: "Dexter Gordon", Instrument: "tenor saxophone"},
			{MusicianName: "Dexter Gordon", Instrument: "flute"},
		},
	})
	require.NoError(t, err)

	musician, err := svc.GetOrCreateMusician(svc.DB(), "Dexter Gordon")
	require.NoError(t, err)

	got, albums, err := svc.GetMusician(musician.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dexter Gordon", got.Name)
	require.Len(t, albums, 1)
	assert.ElementsMatch(t, []string{"tenor saxophone", "flute"}, albums[0].Instruments)
}
