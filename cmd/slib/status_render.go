package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"slib/internal/daemonctl"
	"slib/internal/preflight"
	"slib/internal/protocol"
)

// tone picks the marker and colour of a status row.
type tone int

const (
	toneNote tone = iota
	toneGood
	toneWarn
	toneBad
)

var toneStyles = map[tone]struct{ mark, color string }{
	toneNote: {"INFO", "\x1b[34m"},
	toneGood: {"OK", "\x1b[32m"},
	toneWarn: {"WARN", "\x1b[33m"},
	toneBad:  {"ERROR", "\x1b[31m"},
}

const (
	ansiReset  = "\x1b[0m"
	labelWidth = 12
)

// statusReport writes the sections of `slib status`.
type statusReport struct {
	w     io.Writer
	color bool
	wrote bool
}

func newStatusReport(w io.Writer) *statusReport {
	return &statusReport{w: w, color: isTerminal(w)}
}

func (r *statusReport) paint(code, text string) string {
	if !r.color {
		return text
	}
	return code + text + ansiReset
}

func (r *statusReport) section(title string) {
	if r.wrote {
		fmt.Fprintln(r.w)
	}
	r.wrote = true
	header := "== " + title + " =="
	fmt.Fprintln(r.w, r.paint(toneStyles[toneNote].color, header))
}

func (r *statusReport) row(label string, t tone, detail string) {
	style := toneStyles[t]
	text := fmt.Sprintf("  %-*s [%s]", labelWidth, label+":", style.mark)
	if detail != "" {
		text += " " + detail
	}
	fmt.Fprintln(r.w, r.paint(style.color, text))
}

func (r *statusReport) daemon(snap *daemonctl.StatusSnapshot) {
	r.section("Daemon")
	switch {
	case snap.Mismatch:
		r.row("slib", toneWarn, "Running an incompatible build (run `slib restart`)")
	case snap.Running && snap.PID > 0:
		r.row("slib", toneGood, fmt.Sprintf("Running (pid %d)", snap.PID))
	case snap.Running:
		r.row("slib", toneGood, "Running")
	default:
		r.row("slib", toneWarn, "Not running (run `slib start`)")
	}
	r.row("Socket", toneNote, snap.Socket)
	if identity := strings.TrimSpace(snap.Identity); identity != "" {
		r.row("Identity", toneNote, identity)
	}
}

func (r *statusReport) checks(results []preflight.Result) {
	r.section("Paths")
	for _, check := range results {
		t := toneGood
		if !check.Passed {
			t = toneBad
		}
		r.row(check.Name, t, check.Detail)
	}
}

func (r *statusReport) playback(status protocol.Status) {
	r.section("Playback")
	switch {
	case status.Playing:
		r.row("State", toneGood, "Playing")
	case status.CurrentSong != nil:
		r.row("State", toneWarn, "Paused")
	default:
		r.row("State", toneNote, "Stopped")
	}
	if song := status.CurrentSong; song != nil {
		r.row("Current", toneNote, fmt.Sprintf("%s (%s)", song.Name, song.ID))
	}
	r.row("Queue", toneNote, fmt.Sprintf("%d queued", len(status.Queue)))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
