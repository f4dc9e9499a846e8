package youtube

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(api DataAPI) (*Detector, *WarnState) {
	warn := NewWarnState()
	return NewDetector(api, nil, warn, zerolog.Nop()), warn
}

func TestChapterSections(t *testing.T) {
	api := &stubAPI{
		getChaptersFn: func(ctx context.Context, videoID string) ([]Chapter, error) {
			return []Chapter{
				{Title: "Intro", Start: 0.0, End: 75.0},
				{Title: "Song A", Start: 75.0, End: 190.0},
				{Title: "", Start: "3:10", End: nil},
				{Title: "Bad", Start: "whenever", End: 400.0},
			}, nil
		},
	}
	detector, _ := newTestDetector(api)

	sections := detector.ChapterSections(context.Background(), "vid123", 210)
	require.Len(t, sections, 3)

	assert.Equal(t, VideoSection{Title: "Intro", StartSec: 0, EndSec: 75, Source: SourceChapter}, sections[0])
	assert.Equal(t, VideoSection{Title: "Song A", StartSec: 75, EndSec: 190, Source: SourceChapter}, sections[1])

	// No end boundary: default length applied, then clamped to duration.
	assert.Equal(t, "Track", sections[2].Title)
	assert.Equal(t, 190, sections[2].StartSec)
	assert.Equal(t, 210, sections[2].EndSec)
}

func TestChapterSectionsEndBeforeStart(t *testing.T) {
	api := &stubAPI{
		getChaptersFn: func(ctx context.Context, videoID string) ([]Chapter, error) {
			return []Chapter{{Title: "Weird", Start: 100.0, End: 90.0}}, nil
		},
	}
	detector, _ := newTestDetector(api)

	sections := detector.ChapterSections(context.Background(), "vid123", 0)
	require.Len(t, sections, 1)
	assert.Equal(t, 100+defaultSectionLength, sections[0].EndSec)
}

func TestChapterSectionsAPIError(t *testing.T) {
	api := &stubAPI{
		getChaptersFn: func(ctx context.Context, videoID string) ([]Chapter, error) {
			return nil, fmt.Errorf("quota exceeded")
		},
	}
	detector, _ := newTestDetector(api)
	assert.Nil(t, detector.ChapterSections(context.Background(), "vid123", 0))
}

func TestChapterSectionsNoAPIKey(t *testing.T) {
	detector, warn := newTestDetector(nil)
	assert.Nil(t, detector.ChapterSections(context.Background(), "vid123", 0))
	assert.True(t, warn.warnedMissingKey)
}

func TestCommentSectionsFirstQualifyingCommentWins(t *testing.T) {
	api := &stubAPI{
		listCommentsFn: func(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error) {
			return &CommentPage{
				Comments: []string{
					"great stream!",
					"0:00 lone timestamp in prose",
					"0:00 Intro\n2:00 Song A\n5:00 Song B",
					"0:30 Rival tracklist\n3:30 Other song",
				},
			}, nil
		},
	}
	detector, _ := newTestDetector(api)

	sections := detector.CommentSections(context.Background(), "vid123", 0)
	require.Len(t, sections, 3)
	assert.Equal(t, "Intro", sections[0].Title)
	assert.Equal(t, SourceComment, sections[0].Source)
	assert.Equal(t, 1, api.listCommentsCalls)
}

func TestCommentSectionsPaging(t *testing.T) {
	pagesServed := 0
	api := &stubAPI{}
	api.listCommentsFn = func(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error) {
		pagesServed++
		assert.Equal(t, int64(commentsPerPage), maxResults)
		if pagesServed == 1 {
			assert.Equal(t, "", pageToken)
			return &CommentPage{Comments: []string{"nothing useful"}, NextPageToken: "page2"}, nil
		}
		assert.Equal(t, "page2", pageToken)
		return &CommentPage{Comments: []string{"0:00 Intro\n1:00 Song"}}, nil
	}
	detector, _ := newTestDetector(api)

	sections := detector.CommentSections(context.Background(), "vid123", 0)
	require.Len(t, sections, 2)
	assert.Equal(t, 2, pagesServed)
}

func TestCommentSectionsPageCap(t *testing.T) {
	api := &stubAPI{
		listCommentsFn: func(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error) {
			return &CommentPage{Comments: []string{"no tracklist here"}, NextPageToken: "more"}, nil
		},
	}
	detector, _ := newTestDetector(api)

	assert.Nil(t, detector.CommentSections(context.Background(), "vid123", 0))
	assert.Equal(t, maxCommentPages, api.listCommentsCalls)
}

func TestDetectFromChapterSourcesChaptersWin(t *testing.T) {
	api := &stubAPI{
		getChaptersFn: func(ctx context.Context, videoID string) ([]Chapter, error) {
			return []Chapter{{Title: "Full song", Start: 0.0, End: 180.0}}, nil
		},
	}
	detector, _ := newTestDetector(api)

	candidates := detector.DetectFromChapterSources(context.Background(), "vid123", 0)
	require.Len(t, candidates, 1)
	assert.Equal(t, scoreChapter, candidates[0].Score)
	assert.Equal(t, "Full song", candidates[0].Label)

	// Comment mining never runs when official chapters exist.
	assert.Equal(t, 0, api.listCommentsCalls)
}

func TestDetectFromChapterSourcesFallsBackToComments(t *testing.T) {
	api := &stubAPI{
		getChaptersFn: func(ctx context.Context, videoID string) ([]Chapter, error) {
			return nil, nil
		},
		listCommentsFn: func(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error) {
			return &CommentPage{Comments: []string{"0:00 Intro\n1:30 Song"}}, nil
		},
	}
	detector, _ := newTestDetector(api)

	candidates := detector.DetectFromChapterSources(context.Background(), "vid123", 0)
	require.Len(t, candidates, 2)
	assert.Equal(t, scoreComment, candidates[0].Score)
	assert.Equal(t, 1, api.getChaptersCalls)
	assert.Equal(t, 1, api.listCommentsCalls)
}

func TestDetectFromChapterSourcesEmptyVideoID(t *testing.T) {
	api := &stubAPI{}
	detector, _ := newTestDetector(api)

	assert.Nil(t, detector.DetectFromChapterSources(context.Background(), "   ", 0))
	assert.Equal(t, 0, api.getChaptersCalls)
	assert.Equal(t, 0, api.listCommentsCalls)
}
