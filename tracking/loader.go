package tracking

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// LoadPlayCSV reads the tracking feed at path and returns the samples for one
// play, keyed by (gameId, playId). The feed is a header-led CSV with columns
// {gameId, playId, nflId, frameId, event, x, y, s, dir, o, club,
// jerseyNumber}; rows with an empty or NA nflId are ball rows. Column order
// is taken from the header, not assumed.
func LoadPlayCSV(path string, gameID, playID int) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"gameId", "playId", "frameId", "x", "y", "club"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("tracking file %s missing column %q", path, required)
		}
	}

	var samples []Sample
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read tracking row %d: %w", line, err)
		}
		if intField(rec, col, "gameId") != gameID || intField(rec, col, "playId") != playID {
			continue
		}
		samples = append(samples, Sample{
			EntityID:    intField(rec, col, "nflId"), // empty/NA parses to BallEntityID
			FrameID:     intField(rec, col, "frameId"),
			X:           floatField(rec, col, "x"),
			Y:           floatField(rec, col, "y"),
			Speed:       floatField(rec, col, "s"),
			Dir:         floatField(rec, col, "dir"),
			Orientation: floatField(rec, col, "o"),
			Team:        stringField(rec, col, "club"),
			Jersey:      intField(rec, col, "jerseyNumber"),
			Event:       stringField(rec, col, "event"),
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no tracking rows for game %d play %d in %s", gameID, playID, path)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].FrameID != samples[j].FrameID {
			return samples[i].FrameID < samples[j].FrameID
		}
		return samples[i].EntityID < samples[j].EntityID
	})
	return samples, nil
}

// Window describes the ball-in-air span of a pass play.
type Window struct {
	PassForwardFrame int
	OutcomeFrame     int
	Found            bool // false when either marker is missing and the play was kept whole
}

// BallInAirWindow narrows a play to the frames between the pass_forward event
// and the first outcome event (arrival, catch, incompletion or interception).
// When either marker is missing the full play is returned unchanged, with
// Found false.
func BallInAirWindow(samples []Sample) ([]Sample, Window) {
	passForward := -1
	outcome := -1
	for _, s := range samples {
		switch s.Event {
		case EventPassForward:
			if passForward < 0 || s.FrameID < passForward {
				passForward = s.FrameID
			}
		case EventPassArrived, EventPassOutcomeCaught, EventPassOutcomeIncomplete, EventPassOutcomeInterception:
			if outcome < 0 || s.FrameID < outcome {
				outcome = s.FrameID
			}
		}
	}
	if passForward < 0 || outcome < 0 || outcome < passForward {
		return samples, Window{Found: false}
	}

	windowed := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.FrameID >= passForward && s.FrameID <= outcome {
			windowed = append(windowed, s)
		}
	}
	return windowed, Window{PassForwardFrame: passForward, OutcomeFrame: outcome, Found: true}
}

func stringField(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	v := rec[i]
	if v == "NA" {
		return ""
	}
	return v
}

func intField(rec []string, col map[string]int, name string) int {
	v, err := strconv.ParseFloat(stringField(rec, col, name), 64)
	if err != nil {
		return 0
	}
	return int(v)
}

func floatField(rec []string, col map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(stringField(rec, col, name), 64)
	if err != nil {
		return 0
	}
	return v
}
