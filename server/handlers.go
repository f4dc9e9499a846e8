package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"clipscout/storage"
	"clipscout/youtube"
)

const maxArtistNameLen = 255

type artistRequest struct {
	Name  string   `json:"name"`
	Input string   `json:"input"`
	Tags  []string `json:"tags"`
}

// previewArtist resolves a channel identifier without persisting
// anything, returning the metadata and the resolution trace.
func (s *Server) previewArtist(c fiber.Ctx) error {
	var req artistRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	if strings.TrimSpace(req.Input) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "input is required")
	}

	meta := s.resolver.Resolve(c.Context(), req.Input)
	return c.JSON(fiber.Map{
		"title":           meta.Title,
		"profileImageUrl": meta.ProfileImageURL,
		"channelId":       meta.ChannelID,
		"trace":           meta.Trace,
	})
}

// createArtist resolves a channel identifier and registers the artist.
func (s *Server) createArtist(c fiber.Ctx) error {
	var req artistRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "name is required")
	}
	if len([]rune(name)) > maxArtistNameLen {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "name is too long")
	}
	if strings.TrimSpace(req.Input) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "input is required")
	}

	meta := s.resolver.Resolve(c.Context(), req.Input)
	if meta.ChannelID == "" {
		return errorResponse(c, fiber.StatusUnprocessableEntity, "UNRESOLVED", "Could not resolve a channel id from input")
	}

	artist, err := s.store.UpsertArtist(c.Context(), storage.Artist{
		Name:        name,
		DisplayName: meta.Title,
		ChannelID:   meta.ChannelID,
		Thumbnail:   meta.ProfileImageURL,
		Tags:        req.Tags,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("artist upsert failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save artist")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"artist": artist,
		"trace":  meta.Trace,
	})
}

func (s *Server) listArtists(c fiber.Ctx) error {
	artists, err := s.store.ListArtists(c.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("artist list failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list artists")
	}
	if artists == nil {
		artists = []*storage.Artist{}
	}
	return c.JSON(fiber.Map{"artists": artists})
}

// artistLive returns an artist's live and upcoming broadcasts.
func (s *Server) artistLive(c fiber.Ctx) error {
	artist, err := s.artistFromParam(c)
	if err != nil {
		return err
	}

	var record youtube.FetchRecord
	broadcasts := s.finder.LiveBroadcasts(c.Context(), artist.ChannelID, &record)
	if broadcasts == nil {
		broadcasts = []youtube.LiveBroadcastVideo{}
	}
	return c.JSON(fiber.Map{
		"broadcasts": broadcasts,
		"fetch":      record,
	})
}

// artistUploads returns an artist's keyword-filtered uploads.
func (s *Server) artistUploads(c fiber.Ctx) error {
	artist, err := s.artistFromParam(c)
	if err != nil {
		return err
	}

	var record youtube.FetchRecord
	uploads := s.uploads.FilteredUploads(c.Context(), artist.ChannelID, &record)
	if uploads == nil {
		uploads = []youtube.ChannelUploadVideo{}
	}
	return c.JSON(fiber.Map{
		"videos": uploads,
		"fetch":  record,
	})
}

func (s *Server) artistFromParam(c fiber.Ctx) (*storage.Artist, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "artist id must be numeric")
	}
	artist, err := s.store.ArtistByID(c.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Artist not found")
	}
	if err != nil {
		s.log.Error().Err(err).Int64("artist_id", id).Msg("artist lookup failed")
		return nil, errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load artist")
	}
	return artist, nil
}

type videoRequest struct {
	ArtistID int64  `json:"artistId"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// registerVideo ingests a video by URL or ID under an artist,
// fetching metadata and deriving a category when none is given.
func (s *Server) registerVideo(c fiber.Ctx) error {
	var req videoRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	videoID := youtube.ExtractVideoID(req.URL)
	if videoID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "url must contain a video id")
	}
	if req.ArtistID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "artistId is required")
	}
	if _, err := s.store.ArtistByID(c.Context(), req.ArtistID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Artist not found")
		}
		s.log.Error().Err(err).Msg("artist lookup failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load artist")
	}

	summary := s.detector.VideoSummary(c.Context(), videoID)

	category := ""
	if normalized, ok := youtube.NormalizeVideoCategory(req.Category); ok {
		category = string(normalized)
	} else if derived, ok := youtube.DeriveVideoCategoryFromTitle(summary.Title); ok {
		category = string(derived)
	}

	video, err := s.store.UpsertVideo(c.Context(), storage.Video{
		ArtistID:     req.ArtistID,
		VideoID:      videoID,
		Title:        summary.Title,
		Description:  summary.Description,
		ChannelID:    summary.ChannelID,
		ThumbnailURL: summary.ThumbnailURL,
		DurationSec:  summary.DurationSec,
		Category:     category,
	})
	if err != nil {
		s.log.Error().Err(err).Str("video_id", videoID).Msg("video upsert failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save video")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"video": video})
}

func (s *Server) getVideo(c fiber.Ctx) error {
	video, err := s.store.VideoByYouTubeID(c.Context(), c.Params("videoId"))
	if errors.Is(err, storage.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("video lookup failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}
	return c.JSON(fiber.Map{"video": video})
}

type suggestionRequest struct {
	URL string `json:"url"`
}

// clipSuggestions runs the chapter-source cascade for a video named by
// URL or ID, without requiring the video to be registered first.
func (s *Server) clipSuggestions(c fiber.Ctx) error {
	var req suggestionRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	videoID := youtube.ExtractVideoID(req.URL)
	if videoID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "url must contain a video id")
	}

	summary := s.detector.VideoSummary(c.Context(), videoID)
	candidates := s.detector.DetectForVideo(c.Context(), youtube.DetectionInput{
		VideoID:     videoID,
		Description: summary.Description,
		DurationSec: summary.DurationSec,
	}, youtube.ModeChapters)
	if candidates == nil {
		candidates = []youtube.ClipCandidate{}
	}
	return c.JSON(fiber.Map{
		"videoId":    videoID,
		"title":      summary.Title,
		"candidates": candidates,
	})
}

type resolveRequest struct {
	Input string `json:"input"`
}

// resolveChannel exposes the resolution cascade directly.
func (s *Server) resolveChannel(c fiber.Ctx) error {
	var req resolveRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	if strings.TrimSpace(req.Input) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "input is required")
	}
	meta := s.resolver.Resolve(c.Context(), req.Input)
	return c.JSON(fiber.Map{
		"channelId": meta.ChannelID,
		"title":     meta.Title,
		"trace":     meta.Trace,
	})
}

type clipRequest struct {
	VideoID  string   `json:"videoId"`
	Title    string   `json:"title"`
	StartSec int      `json:"startSec"`
	EndSec   int      `json:"endSec"`
	Tags     []string `json:"tags"`
}

func (s *Server) createClip(c fiber.Ctx) error {
	var req clipRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	if strings.TrimSpace(req.Title) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "title is required")
	}
	if req.StartSec < 0 || req.EndSec <= req.StartSec {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "endSec must be greater than startSec")
	}

	video, err := s.store.VideoByYouTubeID(c.Context(), req.VideoID)
	if errors.Is(err, storage.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("video lookup failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}

	clip, err := s.store.InsertClip(c.Context(), storage.Clip{
		VideoID:  video.ID,
		Title:    strings.TrimSpace(req.Title),
		StartSec: req.StartSec,
		EndSec:   req.EndSec,
		Tags:     req.Tags,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("clip insert failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save clip")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"clip": clip})
}

func (s *Server) listClips(c fiber.Ctx) error {
	videoID := strings.TrimSpace(c.Query("videoId"))
	if videoID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "videoId query parameter is required")
	}
	video, err := s.store.VideoByYouTubeID(c.Context(), videoID)
	if errors.Is(err, storage.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("video lookup failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}

	clips, err := s.store.ClipsByVideo(c.Context(), video.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("clip list failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list clips")
	}
	if clips == nil {
		clips = []*storage.Clip{}
	}
	return c.JSON(fiber.Map{"clips": clips})
}

func (s *Server) deleteClip(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "clip id must be numeric")
	}
	deleted, err := s.store.DeleteClip(c.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int64("clip_id", id).Msg("clip delete failed")
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete clip")
	}
	if !deleted {
		return errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Clip not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type detectRequest struct {
	URL      string          `json:"url"`
	Mode     string          `json:"mode"`
	Captions json.RawMessage `json:"captions"`
}

// autoDetect runs detection in an explicit mode. Captions supplied in
// the request are stored alongside the video for later runs.
func (s *Server) autoDetect(c fiber.Ctx) error {
	var req detectRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	videoID := youtube.ExtractVideoID(req.URL)
	if videoID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "url must contain a video id")
	}
	mode := youtube.NormalizeDetectionMode(req.Mode)

	summary := s.detector.VideoSummary(c.Context(), videoID)

	captionsRaw := strings.TrimSpace(string(req.Captions))
	if captionsRaw == "" || captionsRaw == "null" {
		captionsRaw = ""
		if video, err := s.store.VideoByYouTubeID(c.Context(), videoID); err == nil {
			captionsRaw = video.CaptionsJSON
		}
	}

	candidates := s.detector.DetectForVideo(c.Context(), youtube.DetectionInput{
		VideoID:     videoID,
		Description: summary.Description,
		CaptionsRaw: captionsRaw,
		DurationSec: summary.DurationSec,
	}, mode)
	if candidates == nil {
		candidates = []youtube.ClipCandidate{}
	}
	return c.JSON(fiber.Map{
		"videoId":    videoID,
		"mode":       mode,
		"candidates": candidates,
	})
}
