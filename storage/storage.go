// Package storage persists artists, videos, and clips in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// Store manages clip persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database at path and ensures the
// schema. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage: database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artists (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            display_name TEXT,
            youtube_channel_id TEXT NOT NULL UNIQUE,
            thumbnail_url TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS artist_tags (
            artist_id INTEGER NOT NULL,
            tag TEXT NOT NULL,
            PRIMARY KEY (artist_id, tag),
            FOREIGN KEY (artist_id) REFERENCES artists(id) ON DELETE CASCADE
        )`,
		`CREATE TABLE IF NOT EXISTS videos (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            artist_id INTEGER NOT NULL,
            youtube_video_id TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            description TEXT,
            channel_id TEXT,
            thumbnail_url TEXT,
            duration_sec INTEGER,
            captions_json TEXT,
            category TEXT,
            hidden INTEGER NOT NULL DEFAULT 0,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            FOREIGN KEY (artist_id) REFERENCES artists(id) ON DELETE CASCADE
        )`,
		`CREATE TABLE IF NOT EXISTS clips (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            video_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            start_sec INTEGER NOT NULL,
            end_sec INTEGER NOT NULL,
            created_at TEXT NOT NULL,
            FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
        )`,
		`CREATE TABLE IF NOT EXISTS clip_tags (
            clip_id INTEGER NOT NULL,
            tag TEXT NOT NULL,
            PRIMARY KEY (clip_id, tag),
            FOREIGN KEY (clip_id) REFERENCES clips(id) ON DELETE CASCADE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_videos_artist ON videos(artist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_video ON clips(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_artist_tags_tag ON artist_tags(tag)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// UpsertArtist inserts an artist or refreshes an existing one matched
// by channel ID, and returns the stored row.
func (s *Store) UpsertArtist(ctx context.Context, artist Artist) (*Artist, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO artists (name, display_name, youtube_channel_id, thumbnail_url, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(youtube_channel_id) DO UPDATE SET
             name = excluded.name,
             display_name = COALESCE(excluded.display_name, artists.display_name),
             thumbnail_url = COALESCE(excluded.thumbnail_url, artists.thumbnail_url),
             updated_at = excluded.updated_at`,
		artist.Name,
		nullableString(artist.DisplayName),
		artist.ChannelID,
		nullableString(artist.Thumbnail),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert artist: %w", err)
	}
	stored, err := s.ArtistByChannelID(ctx, artist.ChannelID)
	if err != nil {
		return nil, err
	}
	if len(artist.Tags) > 0 {
		if err := s.ReplaceArtistTags(ctx, stored.ID, artist.Tags); err != nil {
			return nil, err
		}
		stored.Tags = normalizeTags(artist.Tags)
	}
	return stored, nil
}

// ArtistByChannelID fetches an artist by its channel ID.
func (s *Store) ArtistByChannelID(ctx context.Context, channelID string) (*Artist, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+artistColumns+` FROM artists WHERE youtube_channel_id = ?`,
		channelID,
	)
	return s.scanArtistWithTags(ctx, row)
}

// ArtistByID fetches an artist by row identifier.
func (s *Store) ArtistByID(ctx context.Context, id int64) (*Artist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	return s.scanArtistWithTags(ctx, row)
}

// ListArtists returns all artists ordered by name.
func (s *Store) ListArtists(ctx context.Context) ([]*Artist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+artistColumns+` FROM artists ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, artist := range artists {
		tags, err := s.artistTags(ctx, artist.ID)
		if err != nil {
			return nil, err
		}
		artist.Tags = tags
	}
	return artists, nil
}

// ReplaceArtistTags replaces the tag set of an artist.
func (s *Store) ReplaceArtistTags(ctx context.Context, artistID int64, tags []string) error {
	return s.replaceTags(ctx, "artist_tags", "artist_id", artistID, tags)
}

// UpsertVideo inserts a video or refreshes an existing one matched by
// its site video ID, and returns the stored row.
func (s *Store) UpsertVideo(ctx context.Context, video Video) (*Video, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
            artist_id, youtube_video_id, title, description, channel_id,
            thumbnail_url, duration_sec, captions_json, category, hidden,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(youtube_video_id) DO UPDATE SET
            title = excluded.title,
            description = COALESCE(excluded.description, videos.description),
            channel_id = COALESCE(excluded.channel_id, videos.channel_id),
            thumbnail_url = COALESCE(excluded.thumbnail_url, videos.thumbnail_url),
            duration_sec = COALESCE(excluded.duration_sec, videos.duration_sec),
            captions_json = COALESCE(excluded.captions_json, videos.captions_json),
            category = COALESCE(excluded.category, videos.category),
            updated_at = excluded.updated_at`,
		video.ArtistID,
		video.VideoID,
		video.Title,
		nullableString(video.Description),
		nullableString(video.ChannelID),
		nullableString(video.ThumbnailURL),
		nullableInt(video.DurationSec),
		nullableString(video.CaptionsJSON),
		nullableString(video.Category),
		boolToInt(video.Hidden),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert video: %w", err)
	}
	return s.VideoByYouTubeID(ctx, video.VideoID)
}

// VideoByYouTubeID fetches a video by its site video ID.
func (s *Store) VideoByYouTubeID(ctx context.Context, videoID string) (*Video, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+videoColumns+` FROM videos WHERE youtube_video_id = ?`,
		videoID,
	)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// VideoByID fetches a video by row identifier.
func (s *Store) VideoByID(ctx context.Context, id int64) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// VideosByArtist returns an artist's visible videos, newest first.
func (s *Store) VideosByArtist(ctx context.Context, artistID int64) ([]*Video, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+videoColumns+` FROM videos WHERE artist_id = ? AND hidden = 0 ORDER BY created_at DESC, id DESC`,
		artistID,
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// SetVideoHidden flips a video's hidden flag.
func (s *Store) SetVideoHidden(ctx context.Context, id int64, hidden bool) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET hidden = ?, updated_at = ? WHERE id = ?`,
		boolToInt(hidden),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set video hidden: %w", err)
	}
	return nil
}

// InsertClip saves a clip and returns the stored row.
func (s *Store) InsertClip(ctx context.Context, clip Clip) (*Clip, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO clips (video_id, title, start_sec, end_sec, created_at) VALUES (?, ?, ?, ?, ?)`,
		clip.VideoID,
		clip.Title,
		clip.StartSec,
		clip.EndSec,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if len(clip.Tags) > 0 {
		if err := s.replaceTags(ctx, "clip_tags", "clip_id", id, clip.Tags); err != nil {
			return nil, err
		}
	}
	return s.ClipByID(ctx, id)
}

// ClipByID fetches a clip by row identifier.
func (s *Store) ClipByID(ctx context.Context, id int64) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	tags, err := s.clipTags(ctx, id)
	if err != nil {
		return nil, err
	}
	clip.Tags = tags
	return clip, nil
}

// ClipsByVideo returns a video's clips ordered by start time.
func (s *Store) ClipsByVideo(ctx context.Context, videoID int64) ([]*Clip, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+clipColumns+` FROM clips WHERE video_id = ? ORDER BY start_sec, id`,
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, clip := range clips {
		tags, err := s.clipTags(ctx, clip.ID)
		if err != nil {
			return nil, err
		}
		clip.Tags = tags
	}
	return clips, nil
}

// DeleteClip removes a clip, reporting whether a row was deleted.
func (s *Store) DeleteClip(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete clip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) replaceTags(ctx context.Context, table, column string, ownerID int64, tags []string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = ?`, ownerID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, tag := range normalizeTags(tags) {
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO `+table+` (`+column+`, tag) VALUES (?, ?)`,
			ownerID,
			tag,
		); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

func (s *Store) artistTags(ctx context.Context, artistID int64) ([]string, error) {
	return s.tags(ctx, `SELECT tag FROM artist_tags WHERE artist_id = ? ORDER BY tag`, artistID)
}

func (s *Store) clipTags(ctx context.Context, clipID int64) ([]string, error) {
	return s.tags(ctx, `SELECT tag FROM clip_tags WHERE clip_id = ? ORDER BY tag`, clipID)
}

func (s *Store) tags(ctx context.Context, query string, ownerID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *Store) scanArtistWithTags(ctx context.Context, row *sql.Row) (*Artist, error) {
	artist, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	tags, err := s.artistTags(ctx, artist.ID)
	if err != nil {
		return nil, err
	}
	artist.Tags = tags
	return artist, nil
}

const (
	artistColumns = "id, name, display_name, youtube_channel_id, thumbnail_url, created_at, updated_at"
	videoColumns  = "id, artist_id, youtube_video_id, title, description, channel_id, thumbnail_url, duration_sec, captions_json, category, hidden, created_at, updated_at"
	clipColumns   = "id, video_id, title, start_sec, end_sec, created_at"
)

func scanArtist(scanner interface{ Scan(dest ...any) error }) (*Artist, error) {
	var (
		id          int64
		name        string
		displayName sql.NullString
		channelID   string
		thumbnail   sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&id, &name, &displayName, &channelID, &thumbnail, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	artist := &Artist{
		ID:          id,
		Name:        name,
		DisplayName: displayName.String,
		ChannelID:   channelID,
		Thumbnail:   thumbnail.String,
	}
	artist.CreatedAt = parseTimeString(createdRaw)
	artist.UpdatedAt = parseTimeString(updatedRaw)
	return artist, nil
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		id         int64
		artistID   int64
		videoID    string
		title      string
		desc       sql.NullString
		channelID  sql.NullString
		thumbnail  sql.NullString
		duration   sql.NullInt64
		captions   sql.NullString
		category   sql.NullString
		hidden     sql.NullInt64
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &artistID, &videoID, &title, &desc, &channelID, &thumbnail, &duration, &captions, &category, &hidden, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	video := &Video{
		ID:           id,
		ArtistID:     artistID,
		VideoID:      videoID,
		Title:        title,
		Description:  desc.String,
		ChannelID:    channelID.String,
		ThumbnailURL: thumbnail.String,
		DurationSec:  int(duration.Int64),
		CaptionsJSON: captions.String,
		Category:     category.String,
		Hidden:       hidden.Int64 != 0,
	}
	video.CreatedAt = parseTimeString(createdRaw)
	video.UpdatedAt = parseTimeString(updatedRaw)
	return video, nil
}

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		id         int64
		videoID    int64
		title      string
		startSec   int
		endSec     int
		createdRaw string
	)
	if err := scanner.Scan(&id, &videoID, &title, &startSec, &endSec, &createdRaw); err != nil {
		return nil, err
	}
	clip := &Clip{
		ID:       id,
		VideoID:  videoID,
		Title:    title,
		StartSec: startSec,
		EndSec:   endSec,
	}
	clip.CreatedAt = parseTimeString(createdRaw)
	return clip, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var normalized []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value <= 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}
