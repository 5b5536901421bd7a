package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarting(p meeting.Params) {
	fmt.Fprintf(f.w, "🎙️  Joining %s as %q\n", p.MeetingURL, p.DisplayName)
	fmt.Fprintf(f.w, "   Audio will be written to %s\n", p.OutputPath)
}

func (f *Formatter) RecordingStopped(reason meeting.StopReason, duration time.Duration, bytes int64) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped: %s (%s, %s)\n", describeReason(reason), formatDuration(duration), humanize.Bytes(uint64(bytes)))
}

func (f *Formatter) RecordingSaved(path string) {
	fmt.Fprintf(f.w, "✅ Recording saved: %s\n", path)
}

func (f *Formatter) Uploaded(url string) {
	fmt.Fprintf(f.w, "☁️  Uploaded: %s\n", url)
}

func (f *Formatter) StopRequested(state *meeting.RecordingState) {
	fmt.Fprintf(f.w, "⏹️  Stop requested for %s (pid %d)\n", state.Key, state.PID)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) JobListHeader() {
	fmt.Fprintf(f.w, "🎙️  Running recordings:\n\n")
}

func (f *Formatter) JobListItem(st meeting.RecordingState) {
	fmt.Fprintf(f.w, "  %s  %-5s pid %-7d started %s\n    %s -> %s\n",
		st.Key, st.Platform, st.PID, humanize.Time(st.StartedAt), st.MeetingURL, st.OutputPath)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func describeReason(r meeting.StopReason) string {
	switch r {
	case meeting.StopMeetingEnded:
		return "meeting ended"
	case meeting.StopPageGone:
		return "meeting page closed"
	case meeting.StopSignal:
		return "stopped on request"
	case meeting.StopCaptureFailed:
		return "capture failed"
	}
	return "finished"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
