// gaze-replay streams recorded landmark frames to a running gazed and prints
// the gaze it reports for each one.
//
// Input is JSON lines, one frame per line: either a bare landmarks payload
// ({"frame_id":1,"faces":[[...]]}) or a full landmarks message.
//
//	gaze-replay -addr localhost:8090 -fps 30 session.jsonl
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-gaze/pkg/protocol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLine bounds one recorded frame.
const maxLine = 1 << 20

func main() {
	addr := flag.String("addr", "localhost:8090", "gazed host:port")
	fps := flag.Float64("fps", 30, "Frames per second (0 sends as fast as replies arrive)")
	calibrate := flag.Bool("calibrate", false, "Start calibration before replaying")
	quiet := flag.Bool("quiet", false, "Only print the summary")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: gaze-replay [flags] frames.jsonl")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	frames, err := readFrames(f)
	f.Close()
	if err != nil {
		fmt.Printf("❌ Reading frames: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📼 Loaded %d frames\n", len(frames))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+*addr+"/ws/landmarks", nil)
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if *calibrate {
		msg, _ := protocol.NewCalibrateMessage(protocol.ActionStart)
		if err := send(conn, msg); err != nil {
			fmt.Printf("❌ Calibrate: %v\n", err)
			os.Exit(1)
		}
	}

	var interval time.Duration
	if *fps > 0 {
		interval = time.Duration(float64(time.Second) / *fps)
	}

	out := io.Writer(os.Stdout)
	if *quiet {
		out = io.Discard
	}
	counts, err := replay(ctx, conn, frames, interval, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Printf("❌ Replay stopped: %v\n", err)
	}
	printSummary(os.Stdout, counts)
}

// readFrames parses JSON lines into landmark frames. Blank lines are skipped.
// Frames without an id are numbered by position.
func readFrames(r io.Reader) ([]protocol.LandmarksData, error) {
	var frames []protocol.LandmarksData

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var data protocol.LandmarksData
		if msg, err := protocol.ParseMessage(raw); err == nil && msg.Type == protocol.TypeLandmarks {
			if err := msg.ParseData(&data); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		} else if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if data.FrameID == 0 {
			data.FrameID = uint64(len(frames) + 1)
		}
		frames = append(frames, data)
	}
	return frames, sc.Err()
}

// replay sends frames one at a time, waiting for each gaze reply before the
// next. It returns how often each "H / V" label was reported.
func replay(ctx context.Context, conn *websocket.Conn, frames []protocol.LandmarksData, interval time.Duration, out io.Writer) (map[string]int, error) {
	counts := make(map[string]int)

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for _, frame := range frames {
		if tick != nil {
			select {
			case <-ctx.Done():
				return counts, ctx.Err()
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return counts, ctx.Err()
		}

		msg, err := protocol.NewMessage(protocol.TypeLandmarks, frame)
		if err != nil {
			return counts, err
		}
		if err := send(conn, msg); err != nil {
			return counts, err
		}

		gaze, err := awaitGaze(conn, out)
		if err != nil {
			return counts, err
		}
		label := gaze.Horizontal + " / " + gaze.Vertical
		counts[label]++
		fmt.Fprintf(out, "frame %5d  %-9s  %-18s x=%.3f y=%.3f  %s\n",
			gaze.FrameID, gaze.Status, label, gaze.SmoothedX, gaze.SmoothedY, gaze.Step)
	}
	return counts, nil
}

// awaitGaze reads until the next gaze reply, echoing anything else.
func awaitGaze(conn *websocket.Conn, out io.Writer) (*protocol.GazeData, error) {
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			return nil, err
		}
		switch msg.Type {
		case protocol.TypeGaze:
			return msg.GetGazeData()
		case protocol.TypeError:
			var e protocol.ErrorData
			msg.ParseData(&e)
			fmt.Fprintf(out, "⚠️  server: %s\n", e.Message)
		}
	}
}

func send(conn *websocket.Conn, msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func printSummary(w io.Writer, counts map[string]int) {
	labels := make([]string, 0, len(counts))
	total := 0
	for l, n := range counts {
		labels = append(labels, l)
		total += n
	}
	sort.Slice(labels, func(i, j int) bool { return counts[labels[i]] > counts[labels[j]] })

	fmt.Fprintf(w, "\n📊 %d frames\n", total)
	for _, l := range labels {
		fmt.Fprintf(w, "   %-18s %5d  (%.1f%%)\n", l, counts[l], 100*float64(counts[l])/float64(total))
	}
}
