package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"clipscout/config"
	clipscouthttp "clipscout/http"
	"clipscout/internal/retry"
	"clipscout/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "resolve":
		cmdResolve(args)
	case "suggest":
		cmdSuggest(args)
	case "detect":
		cmdDetect(args)
	case "live":
		cmdLive(args)
	case "uploads":
		cmdUploads(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `clipscout - channel resolution and clip detection

Usage:
  clipscout resolve <channel-input>       Resolve a channel identifier
  clipscout suggest <video-url>           Suggest clips from chapters and comments
  clipscout detect [flags] <video-url>    Detect clips in an explicit mode
  clipscout live <channel-id>             List live and upcoming broadcasts
  clipscout uploads <channel-id>          List keyword-filtered uploads
  clipscout help                          Show this help message

Examples:
  clipscout resolve @somehandle                               # Handle input
  clipscout resolve https://www.youtube.com/channel/UCxxxxx   # URL input
  clipscout suggest https://youtu.be/dQw4w9WgXcQ              # Chapter cascade
  clipscout detect --mode combined <url>                      # Description + captions
  clipscout detect --captions-file cues.json <url>            # Supply captions

For help on specific command: clipscout <command> -h
`)
}

type toolkit struct {
	resolver *youtube.Resolver
	detector *youtube.Detector
	finder   *youtube.BroadcastFinder
	uploads  *youtube.UploadFilter
}

func buildToolkit(ctx context.Context) *toolkit {
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	httpClient := clipscouthttp.New(&clipscouthttp.Config{
		Timeout: cfg.HTTPTimeout,
		Retry: retry.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
			Multiplier:     cfg.BackoffMultiplier,
		},
	})

	warn := youtube.NewWarnState()

	var api youtube.DataAPI
	if cfg.APIKey != "" {
		client, err := youtube.NewAPIClient(ctx, cfg.APIKey, httpClient, log)
		if err != nil {
			fatalf("create data api client: %v", err)
		}
		api = client
	}

	scraper := youtube.NewHTMLScraper(youtube.NewPageFetcher(httpClient), log)
	feed := youtube.NewFeedClient(httpClient, log)
	captions := youtube.NewCaptionClient(httpClient, log)
	return &toolkit{
		resolver: youtube.NewResolver(api, scraper, warn, log),
		detector: youtube.NewDetector(api, captions, warn, log),
		finder:   youtube.NewBroadcastFinder(api, warn, log),
		uploads:  youtube.NewUploadFilter(api, feed, warn, log),
	}
}

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the full result including the trace as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipscout resolve [flags] <channel-input>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel-input\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	meta := buildToolkit(ctx).resolver.Resolve(ctx, argv[0])
	if *asJSON {
		printJSON(meta)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Channel ID:\t%s\n", orDash(meta.ChannelID))
	fmt.Fprintf(w, "Title:\t%s\n", orDash(meta.Title))
	fmt.Fprintf(w, "Thumbnail:\t%s\n", orDash(meta.ProfileImageURL))
	if meta.Trace != nil {
		for _, warning := range meta.Trace.Warnings {
			fmt.Fprintf(w, "Warning:\t%s\n", warning)
		}
	}
	w.Flush()
}

func cmdSuggest(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print candidates as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipscout suggest [flags] <video-url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-url\n")
		fs.Usage()
		os.Exit(1)
	}

	videoID := youtube.ExtractVideoID(argv[0])
	if videoID == "" {
		fatalf("no video id in %q", argv[0])
	}

	ctx, cancel := commandContext()
	defer cancel()

	tk := buildToolkit(ctx)
	summary := tk.detector.VideoSummary(ctx, videoID)
	candidates := tk.detector.DetectForVideo(ctx, youtube.DetectionInput{
		VideoID:     videoID,
		Description: summary.Description,
		DurationSec: summary.DurationSec,
	}, youtube.ModeChapters)

	printCandidates(candidates, *asJSON)
}

func cmdDetect(args []string) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	mode := fs.String("mode", "chapters", "Detection mode: chapters, captions, or combined")
	captionsFile := fs.String("captions-file", "", "File containing a caption track (JSON cues or start|text lines)")
	asJSON := fs.Bool("json", false, "Print candidates as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipscout detect [flags] <video-url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-url\n")
		fs.Usage()
		os.Exit(1)
	}

	videoID := youtube.ExtractVideoID(argv[0])
	if videoID == "" {
		fatalf("no video id in %q", argv[0])
	}

	captionsRaw := ""
	if *captionsFile != "" {
		data, err := os.ReadFile(*captionsFile)
		if err != nil {
			fatalf("read captions file: %v", err)
		}
		captionsRaw = string(data)
	}

	ctx, cancel := commandContext()
	defer cancel()

	tk := buildToolkit(ctx)
	summary := tk.detector.VideoSummary(ctx, videoID)
	candidates := tk.detector.DetectForVideo(ctx, youtube.DetectionInput{
		VideoID:     videoID,
		Description: summary.Description,
		CaptionsRaw: captionsRaw,
		DurationSec: summary.DurationSec,
	}, youtube.NormalizeDetectionMode(*mode))

	printCandidates(candidates, *asJSON)
}

func cmdLive(args []string) {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipscout live <channel-id>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel-id\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	var record youtube.FetchRecord
	broadcasts := buildToolkit(ctx).finder.LiveBroadcasts(ctx, argv[0], &record)
	if record.Error != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", record.Error)
	}
	if len(broadcasts) == 0 {
		fmt.Println("No live or upcoming broadcasts.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tSTARTED\tSCHEDULED\tTITLE")
	for _, b := range broadcasts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.VideoID, orDash(b.StartedAt), orDash(b.ScheduledStartAt), b.Title)
	}
	w.Flush()
}

func cmdUploads(args []string) {
	fs := flag.NewFlagSet("uploads", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipscout uploads <channel-id>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel-id\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	var record youtube.FetchRecord
	uploads := buildToolkit(ctx).uploads.FilteredUploads(ctx, argv[0], &record)
	if record.Error != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", record.Error)
	}
	if len(uploads) == 0 {
		fmt.Println("No matching uploads.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tPUBLISHED\tTITLE")
	for _, u := range uploads {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.VideoID, orDash(u.PublishedAt), u.Title)
	}
	w.Flush()
}

func printCandidates(candidates []youtube.ClipCandidate, asJSON bool) {
	if asJSON {
		printJSON(candidates)
		return
	}
	if len(candidates) == 0 {
		fmt.Println("No clip candidates found.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tSCORE\tLABEL")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", formatOffset(c.StartSec), formatOffset(c.EndSec), c.Score, c.Label)
	}
	w.Flush()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("encode output: %v", err)
	}
}

func formatOffset(sec int) string {
	if sec >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
