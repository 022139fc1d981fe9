package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"fieldsync/calibration"
	"fieldsync/overlay"
	"fieldsync/tracking"
	"fieldsync/video"

	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

var (
	// Command-line flags
	sessionPath = flag.String("session", "", "Play session YAML file (required)\n\t\tHolds video path, tracking CSV, game/play IDs, calibration points and sync anchors")
	videoPath   = flag.String("video", "", "Override the session's video path")
	jpgPath     = flag.String("jpg-path", "", "Override the session's output directory for rendered JPEG frames")
	targetFPS   = flag.Float64("fps", 0, "Resample the tracking feed to this rate (default: the video's own fps)")
	trailLen    = flag.Int("trail", 0, "Trail length in positions per entity (default: 10)")
	showTrails  = flag.Bool("trails", true, "Draw per-entity movement trails")
	showSpeed   = flag.Bool("velocity", false, "Draw per-entity velocity arrows (speed-scaled, capped length)")
	showBall    = flag.Bool("ball-path", true, "Draw the persistent ball trajectory polyline")
	separation  = flag.String("separation", "", "Draw the separation line between two entity IDs\n\t\tExample: -separation=44930,47862")

	debugMode    = flag.Bool("debug", false, "Enable debug output")
	debugVerbose = flag.Bool("debug-verbose", false, "Enable verbose debug output (per-frame sync and transform detail)")
)

// debugMsg is the unified debug logging entry point for the pipeline.
func debugMsg(component, message string) {
	if !*debugMode && !*debugVerbose {
		return
	}
	fmt.Printf("[%s][%s] %s\n", time.Now().Format("15:04:05.000"), component, message)
}

// debugMsgVerbose only outputs when -debug-verbose is enabled.
func debugMsgVerbose(component, message string) {
	if !*debugVerbose {
		return
	}
	debugMsg(component, message)
}

// SessionConfig is the per-play session file: where the footage lives, how
// the field maps into it, and how the two streams line up. Calibration
// points and anchors come from an operator, not from any automated process.
type SessionConfig struct {
	Video       string              `yaml:"video"`
	TrackingCSV string              `yaml:"tracking_csv"`
	GameID      int                 `yaml:"game_id"`
	PlayID      int                 `yaml:"play_id"`
	FieldPoints []calibration.Point `yaml:"field_points"`
	VideoPoints []calibration.Point `yaml:"video_points"`
	Anchors     map[int]int         `yaml:"anchors"` // tracking frame -> video frame
	TrailLength int                 `yaml:"trail_length"`
	OutputDir   string              `yaml:"output_dir"`
}

func loadSessionConfig(path string) (*SessionConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var cfg SessionConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	if cfg.Video == "" || cfg.TrackingCSV == "" {
		return nil, fmt.Errorf("session file %s must set video and tracking_csv", path)
	}
	if len(cfg.Anchors) == 0 {
		return nil, fmt.Errorf("session file %s has no sync anchors", path)
	}
	return &cfg, nil
}

// parseSeparationPair parses the -separation flag into two entity IDs.
func parseSeparationPair(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma-separated entity IDs, got %q", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad entity ID %q: %w", parts[0], err)
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad entity ID %q: %w", parts[1], err)
	}
	return a, b, nil
}

func main() {
	flag.Parse()

	if *sessionPath == "" {
		fmt.Printf("❌ -session is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadSessionConfig(*sessionPath)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if *videoPath != "" {
		cfg.Video = *videoPath
	}
	if *jpgPath != "" {
		cfg.OutputDir = *jpgPath
	}
	if *trailLen > 0 {
		cfg.TrailLength = *trailLen
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "frames"
	}

	overlay.SetDebugFunction(debugMsgVerbose)

	if err := run(cfg); err != nil {
		fmt.Printf("❌ Render failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *SessionConfig) error {
	// Tracking feed, narrowed to the ball-in-air window when the play has
	// clean pass markers.
	samples, err := tracking.LoadPlayCSV(cfg.TrackingCSV, cfg.GameID, cfg.PlayID)
	if err != nil {
		return err
	}
	windowed, win := tracking.BallInAirWindow(samples)
	if win.Found {
		debugMsg("TRACKING", fmt.Sprintf("ball-in-air window: frames %d-%d", win.PassForwardFrame, win.OutcomeFrame))
	} else {
		debugMsg("TRACKING", "no pass markers found, rendering the full play")
	}

	src, err := video.Open(cfg.Video)
	if err != nil {
		return err
	}
	defer src.Close()
	fmt.Printf("🎬 Video: %.2f fps, %d frames, %dx%d\n", src.FPS, src.FrameCount, src.Width, src.Height)

	// Field-to-pixel calibration from operator-marked point pairs.
	transformer := calibration.NewTransformer()
	if err := transformer.Calibrate(cfg.FieldPoints, cfg.VideoPoints); err != nil {
		return err
	}
	fmt.Printf("📐 Field calibration set with %d point pairs\n", len(cfg.FieldPoints))

	mapper := video.NewSyncMapper(src.FrameCount)
	if err := mapper.SetAnchors(cfg.Anchors); err != nil {
		return err
	}
	fmt.Printf("🔗 Sync anchors set: %v\n", cfg.Anchors)

	fps := src.FPS
	if *targetFPS > 0 {
		fps = *targetFPS
	}
	resampled, report, err := tracking.Resample(windowed, fps)
	if err != nil {
		return err
	}
	fmt.Printf("📊 Resampled tracking to %.2f fps: %d timeline points\n", fps, report.TimelinePoints)
	if report.DroppedEntities > 0 {
		fmt.Printf("⚠️  %d entities dropped (fewer than 2 native samples): %v\n",
			report.DroppedEntities, report.DroppedIDs)
	}

	renderer, err := overlay.NewRenderer(transformer, overlay.Config{TrailLength: cfg.TrailLength})
	if err != nil {
		return err
	}

	outDir := filepath.Join(cfg.OutputDir, fmt.Sprintf("session_%s", renderer.SessionID()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := calibration.SaveSession(filepath.Join(outDir, "field-cal.json"),
		cfg.FieldPoints, cfg.VideoPoints, transformer); err != nil {
		return err
	}

	var sepA, sepB int
	drawSeparation := false
	if *separation != "" {
		sepA, sepB, err = parseSeparationPair(*separation)
		if err != nil {
			return err
		}
		drawSeparation = true
	}

	byIndex := make(map[int][]tracking.ResampledSample)
	for _, s := range resampled {
		byIndex[s.Index] = append(byIndex[s.Index], s)
	}

	frame := gocv.NewMat()
	defer frame.Close()

	var failedReads []int
	rendered := 0
	for i := 0; i < report.TimelinePoints; i++ {
		entities := byIndex[i]
		if len(entities) == 0 {
			continue
		}
		nativeFrame := int(math.Round(entities[0].NativeFrame))
		if err := renderer.BeginFrame(nativeFrame); err != nil {
			return err
		}

		videoFrame, err := src.SyncedFrame(mapper, nativeFrame, &frame)
		if err != nil {
			if _, ok := err.(*video.FrameReadError); ok {
				// Per-frame soft failure: record it and keep going. The
				// aggregate is reported below, never swallowed.
				failedReads = append(failedReads, videoFrame)
				debugMsg("VIDEO", fmt.Sprintf("frame read failed at video frame %d (timeline %d)", videoFrame, i))
				continue
			}
			return err
		}
		debugMsgVerbose("SYNC", fmt.Sprintf("timeline %d: tracking %.2f -> video %d", i, entities[0].NativeFrame, videoFrame))

		canvas := overlay.NewMatCanvas(&frame)
		sort.Slice(entities, func(a, b int) bool { return entities[a].EntityID < entities[b].EntityID })
		for _, e := range entities {
			if err := renderer.DrawMarker(canvas, e.EntityID, e.X, e.Y, e.Team, e.Jersey); err != nil {
				return err
			}
			if *showTrails {
				renderer.DrawTrail(canvas, e.EntityID, e.Team)
			}
			if *showSpeed && !e.IsBall() {
				if err := renderer.DrawVelocityVector(canvas, e.X, e.Y, e.Speed, e.Dir, e.Team); err != nil {
					return err
				}
			}
		}
		if *showBall {
			renderer.DrawBallPath(canvas)
		}
		if drawSeparation {
			if err := drawSeparationLine(renderer, canvas, entities, sepA, sepB); err != nil {
				return err
			}
		}

		info := map[string]string{
			"Play":  fmt.Sprintf("%d / %d", cfg.GameID, cfg.PlayID),
			"Frame": fmt.Sprintf("%d (video %d)", i, videoFrame),
			"Time":  fmt.Sprintf("%.2fs", float64(i)/fps),
		}
		renderer.DrawInfoPanel(canvas, []string{"Play", "Frame", "Time"}, info, overlay.TopLeft)

		outPath := filepath.Join(outDir, fmt.Sprintf("frame_%05d.jpg", i))
		if ok := gocv.IMWrite(outPath, frame); !ok {
			return fmt.Errorf("failed to write %s", outPath)
		}
		rendered++
	}

	fmt.Printf("✅ Rendered %d/%d frames to %s\n", rendered, report.TimelinePoints, outDir)
	if len(failedReads) > 0 {
		fmt.Printf("⚠️  %d frame reads failed: %v\n", len(failedReads), failedReads)
	}
	return nil
}

// drawSeparationLine draws the separation indicator between two entities when
// both are present on this timeline point. Distance is measured in field
// space, not pixels, so the tier thresholds stay in yards.
func drawSeparationLine(r *overlay.Renderer, c overlay.Canvas, entities []tracking.ResampledSample, idA, idB int) error {
	var a, b *tracking.ResampledSample
	for i := range entities {
		switch entities[i].EntityID {
		case idA:
			a = &entities[i]
		case idB:
			b = &entities[i]
		}
	}
	if a == nil || b == nil {
		return nil
	}
	distance := math.Hypot(a.X-b.X, a.Y-b.Y)
	return r.DrawSeparation(c, a.X, a.Y, b.X, b.Y, distance)
}
