package storage

import "time"

// Artist is a registered channel whose videos are scanned for clips.
type Artist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	ChannelID   string    `json:"channelId"`
	Thumbnail   string    `json:"thumbnailUrl,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Video is an ingested video belonging to an artist. DurationSec is
// zero when unknown. Category is empty until set or derived.
type Video struct {
	ID           int64     `json:"id"`
	ArtistID     int64     `json:"artistId"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ChannelID    string    `json:"channelId,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	DurationSec  int       `json:"durationSec,omitempty"`
	CaptionsJSON string    `json:"-"`
	Category     string    `json:"category,omitempty"`
	Hidden       bool      `json:"hidden"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clip is a saved clip within a video.
type Clip struct {
	ID        int64     `json:"id"`
	VideoID   int64     `json:"videoId"`
	Title     string    `json:"title"`
	StartSec  int       `json:"startSec"`
	EndSec    int       `json:"endSec"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
