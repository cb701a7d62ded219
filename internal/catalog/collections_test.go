package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmills/discobase/internal/database"
)

func newTestUser(t *testing.T, svc *Service, email string) *database.User {
	t.Helper()
	user := database.User{Email: email, PasswordHash: "x"}
	require.NoError(t, svc.DB().Create(&user).Error)
	return &user
}

func TestCreateCollectionDuplicateName(t *testing.T) {
	svc := newTestService(t)
	user := newTestUser(t, svc, "a@example.com")

	_, err := svc.CreateCollection(user.ID, CollectionInput{Name: "Jazz"})
	require.NoError(t, err)

	_, err = svc.CreateCollection(user.ID, CollectionInput{Name: "Jazz"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// The same name is fine for a different user.
	other := newTestUser(t, svc, "b@example.com")
	_, err = svc.CreateCollection(other.ID, CollectionInput{Name: "Jazz"})
	assert.NoError(t, err)
}

func TestCollectionsAreUserScoped(t *testing.T) {
	svc := newTestService(t)
	owner := newTestUser(t, svc, "owner@example.com")
	intruder := newTestUser(t, svc, "intruder@example.com")

	collection, err := svc.CreateCollection(owner.ID, CollectionInput{Name: "Mine"})
	require.NoError(t, err)

	_, err = svc.GetCollection(collection.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.DeleteCollection(collection.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAlbumToCollectionIdempotent(t *testing.T) {
	svc := newTestService(t)
	user := newTestUser(t, svc, "a@example.com")
	collection, err := svc.CreateCollection(user.ID, CollectionInput{Name: "Jazz"})
	require.NoError(t, err)
	album, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)

	require.NoError(t, svc.AddAlbumToCollection(collection.ID, album.ID, user.ID))
	require.NoError(t, svc.AddAlbumToCollection(collection.ID, album.ID, user.ID))

	view, err := svc.GetCollection(collection.ID, user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Albums, 1)
}

func TestRemoveAlbumFromCollectionKeepsAlbum(t *testing.T) {
	svc := newTestService(t)
	user := newTestUser(t, svc, "a@example.com")
	collection, err := svc.CreateCollection(user.ID, CollectionInput{Name: "Jazz"})
	require.NoError(t, err)
	album, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)
	require.NoError(t, svc.AddAlbumToCollection(collection.ID, album.ID, user.ID))

	require.NoError(t, svc.RemoveAlbumFromCollection(collection.ID, album.ID, user.ID))

	view, err := svc.GetCollection(collection.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Albums)

	// Only the membership row is gone.
	_, err = svc.GetAlbum(album.ID)
	assert.NoError(t, err)

	err = svc.RemoveAlbumFromCollection(collection.ID, album.ID, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCollectionKeepsAlbums(t *testing.T) {
	svc := newTestService(t)
	user := newTestUser(t, svc, "a@example.com")
	collection, err := svc.CreateCollection(user.ID, CollectionInput{Name: "Jazz"})
	require.NoError(t, err)
	album, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)
	require.NoError(t, svc.AddAlbumToCollection(collection.ID, album.ID, user.ID))

	require.NoError(t, svc.DeleteCollection(collection.ID, user.ID))

	_, err = svc.GetCollection(collection.ID, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetAlbum(album.ID)
	assert.NoError(t, err)

	var memberships int64
	svc.DB().Model(&database.CollectionAlbum{}).Count(&memberships)
	assert.Zero(t, memberships)
}

func TestDeleteAlbumsInCollectionDeletesAlbumRows(t *testing.T) {
	svc := newTestService(t)
	user := newTestUser(t, svc, "a@example.com")
	collection, err := svc.CreateCollection(user.ID, CollectionInput{Name: "Jazz"})
	require.NoError(t, err)

	inside, err := svc.CreateAlbum(kindOfBlueInput())
	require.NoError(t, err)
	outside, err := svc.CreateAlbum(AlbumInput{Title: "Milestones", Artist: "Miles Davis"})
	require.NoError(t, err)
	require.NoError(t, svc.AddAlbumToCollection(collection.ID, inside.ID, user.ID))

	count, err := svc.DeleteAlbumsInCollection(collection.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The member album is gone entirely; the collection and the
	// non-member album survive.
	_, err = svc.GetAlbum(inside.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetAlbum(outside.ID)
	assert.NoError(t, err)
	_, err = svc.GetCollection(collection.ID, user.ID)
	assert.NoError(t, err)
}

func TestLinkAlbumToCollectionUnscoped(t *testing.T) {
	svc := newTestService(t)
	user := newTestUser(t, svc, "a@example.com")
	collection, err := svc.CreateCollection(user.ID, CollectionInput{Name: "Imports"})
	require.NoError(t, err)
	album, err := svc.CreateAlbum(AlbumInput{Title: "Milestones", Artist: "Miles Davis"})
	require.NoError(t, err)

	require.NoError(t, svc.LinkAlbumToCollection(collection.ID, album.ID))
	require.NoError(t, svc.LinkAlbumToCollection(collection.ID, album.ID))

	view, err := svc.GetCollection(collection.ID, user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Albums, 1)
}
