package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "clipscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedArtist(t *testing.T, store *Store) *Artist {
	t.Helper()
	artist, err := store.UpsertArtist(context.Background(), Artist{
		Name:      "Suisei",
		ChannelID: "UC0000000000000000000001",
	})
	require.NoError(t, err)
	return artist
}

func seedVideo(t *testing.T, store *Store, artistID int64) *Video {
	t.Helper()
	video, err := store.UpsertVideo(context.Background(), Video{
		ArtistID: artistID,
		VideoID:  "dQw4w9WgXcQ",
		Title:    "Karaoke night",
	})
	require.NoError(t, err)
	return video
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "clipscout.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestUpsertArtist(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.UpsertArtist(ctx, Artist{
		Name:        "Suisei",
		DisplayName: "Hoshimachi Suisei",
		ChannelID:   "UC0000000000000000000001",
		Thumbnail:   "https://example.com/a.jpg",
		Tags:        []string{"VSinger", " music ", "vsinger"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, []string{"vsinger", "music"}, created.Tags)
	assert.False(t, created.CreatedAt.IsZero())

	// Upserting the same channel updates in place.
	updated, err := store.UpsertArtist(ctx, Artist{
		Name:      "Suisei Ch.",
		ChannelID: "UC0000000000000000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Suisei Ch.", updated.Name)

	// Empty display name and thumbnail do not clobber stored values.
	assert.Equal(t, "Hoshimachi Suisei", updated.DisplayName)
	assert.Equal(t, "https://example.com/a.jpg", updated.Thumbnail)

	all, err := store.ListArtists(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestArtistLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	artist := seedArtist(t, store)

	byChannel, err := store.ArtistByChannelID(ctx, artist.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, artist.ID, byChannel.ID)

	byID, err := store.ArtistByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, artist.ChannelID, byID.ChannelID)

	_, err = store.ArtistByChannelID(ctx, "UC0000000000000000000099")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ArtistByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListArtistsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"Zeta", "Ame", "Mumei"} {
		_, err := store.UpsertArtist(ctx, Artist{
			Name:      name,
			ChannelID: "UC000000000000000000000" + string(rune('1'+i)),
		})
		require.NoError(t, err)
	}

	artists, err := store.ListArtists(ctx)
	require.NoError(t, err)
	require.Len(t, artists, 3)
	assert.Equal(t, "Ame", artists[0].Name)
	assert.Equal(t, "Mumei", artists[1].Name)
	assert.Equal(t, "Zeta", artists[2].Name)
}

func TestUpsertVideo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	artist := seedArtist(t, store)

	created, err := store.UpsertVideo(ctx, Video{
		ArtistID:     artist.ID,
		VideoID:      "dQw4w9WgXcQ",
		Title:        "Karaoke night",
		Description:  "setlist inside",
		ChannelID:    artist.ChannelID,
		ThumbnailURL: "https://example.com/t.jpg",
		DurationSec:  3600,
		Category:     "live",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.Hidden)

	// A sparse re-registration keeps previously stored fields.
	updated, err := store.UpsertVideo(ctx, Video{
		ArtistID: artist.ID,
		VideoID:  "dQw4w9WgXcQ",
		Title:    "Karaoke night (retitled)",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Karaoke night (retitled)", updated.Title)
	assert.Equal(t, "setlist inside", updated.Description)
	assert.Equal(t, 3600, updated.DurationSec)
	assert.Equal(t, "live", updated.Category)
}

func TestVideoLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	artist := seedArtist(t, store)
	video := seedVideo(t, store, artist.ID)

	byYouTubeID, err := store.VideoByYouTubeID(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, video.ID, byYouTubeID.ID)

	byID, err := store.VideoByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", byID.VideoID)

	_, err = store.VideoByYouTubeID(ctx, "missing00000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVideosByArtistSkipsHidden(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	artist := seedArtist(t, store)
	video := seedVideo(t, store, artist.ID)

	other, err := store.UpsertVideo(ctx, Video{
		ArtistID: artist.ID,
		VideoID:  "abc12345678",
		Title:    "Second video",
	})
	require.NoError(t, err)

	require.NoError(t, store.SetVideoHidden(ctx, video.ID, true))

	videos, err := store.VideosByArtist(ctx, artist.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, other.ID, videos[0].ID)

	require.NoError(t, store.SetVideoHidden(ctx, video.ID, false))
	videos, err = store.VideosByArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 2)
}

func TestClipLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	artist := seedArtist(t, store)
	video := seedVideo(t, store, artist.ID)

	clip, err := store.InsertClip(ctx, Clip{
		VideoID:  video.ID,
		Title:    "Chorus",
		StartSec: 90,
		EndSec:   120,
		Tags:     []string{"Chorus", "BANGER", "chorus"},
	})
	require.NoError(t, err)
	assert.NotZero(t, clip.ID)
	assert.Equal(t, []string{"banger", "chorus"}, clip.Tags)

	later, err := store.InsertClip(ctx, Clip{VideoID: video.ID, Title: "Encore", StartSec: 300, EndSec: 330})
	require.NoError(t, err)
	earlier, err := store.InsertClip(ctx, Clip{VideoID: video.ID, Title: "Intro", StartSec: 0, EndSec: 30})
	require.NoError(t, err)

	clips, err := store.ClipsByVideo(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, clips, 3)
	assert.Equal(t, earlier.ID, clips[0].ID)
	assert.Equal(t, clip.ID, clips[1].ID)
	assert.Equal(t, later.ID, clips[2].ID)

	deleted, err := store.DeleteClip(ctx, clip.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteClip(ctx, clip.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.ClipByID(ctx, clip.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeTags([]string{" A ", "b", "a", ""}))
	assert.Nil(t, normalizeTags(nil))
	assert.Nil(t, normalizeTags([]string{"  "}))
}
