package youtube

import (
	"context"
	"errors"
)

// stubAPI implements DataAPI with injectable behavior and call counts.
type stubAPI struct {
	lookupFn        func(ctx context.Context, lookup ChannelLookup) (*ChannelResult, error)
	searchChannelFn func(ctx context.Context, query string) (*ChannelResult, error)
	searchVideosFn  func(ctx context.Context, search VideoSearch) ([]SearchItem, error)
	getVideosFn     func(ctx context.Context, ids []string, parts []string) ([]VideoItem, error)
	getChaptersFn   func(ctx context.Context, videoID string) ([]Chapter, error)
	listCommentsFn  func(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error)

	lookupCalls        int
	searchChannelCalls int
	searchVideosCalls  int
	getVideosCalls     int
	getChaptersCalls   int
	listCommentsCalls  int
}

var errStubUnset = errors.New("stub method not configured")

func (s *stubAPI) LookupChannel(ctx context.Context, lookup ChannelLookup) (*ChannelResult, error) {
	s.lookupCalls++
	if s.lookupFn == nil {
		return nil, errStubUnset
	}
	return s.lookupFn(ctx, lookup)
}

func (s *stubAPI) SearchChannel(ctx context.Context, query string) (*ChannelResult, error) {
	s.searchChannelCalls++
	if s.searchChannelFn == nil {
		return nil, errStubUnset
	}
	return s.searchChannelFn(ctx, query)
}

func (s *stubAPI) SearchVideos(ctx context.Context, search VideoSearch) ([]SearchItem, error) {
	s.searchVideosCalls++
	if s.searchVideosFn == nil {
		return nil, errStubUnset
	}
	return s.searchVideosFn(ctx, search)
}

func (s *stubAPI) GetVideos(ctx context.Context, ids []string, parts []string) ([]VideoItem, error) {
	s.getVideosCalls++
	if s.getVideosFn == nil {
		return nil, errStubUnset
	}
	return s.getVideosFn(ctx, ids, parts)
}

func (s *stubAPI) GetChapters(ctx context.Context, videoID string) ([]Chapter, error) {
	s.getChaptersCalls++
	if s.getChaptersFn == nil {
		return nil, errStubUnset
	}
	return s.getChaptersFn(ctx, videoID)
}

func (s *stubAPI) ListCommentThreads(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error) {
	s.listCommentsCalls++
	if s.listCommentsFn == nil {
		return nil, errStubUnset
	}
	return s.listCommentsFn(ctx, videoID, pageToken, maxResults)
}

// stubFetcher implements PageFetcher from a URL-keyed page map.
type stubFetcher struct {
	pages map[string]string
	calls int
}

func (f *stubFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	f.calls++
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("page not found")
	}
	return page, nil
}
