package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"artd/internal/render"
	"artd/pkg/types"
)

// printer writes command results either as styled text or as indented JSON.
// Colors are only emitted when out is a terminal.
type printer struct {
	out   io.Writer
	json  bool
	ok    lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
	label lipgloss.Style
}

func newPrinter(out io.Writer, jsonOut bool) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:   out,
		json:  jsonOut,
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		muted: r.NewStyle().Faint(true),
		label: r.NewStyle().Bold(true).Width(11),
	}
}

func (p *printer) emitJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) field(name, value string) {
	fmt.Fprintf(p.out, "%s %s\n", p.label.Render(name+":"), value)
}

func (p *printer) state(s string) string {
	if s == "running" {
		return p.ok.Render(s)
	}
	return p.warn.Render(s)
}

func (p *printer) sourceLine(src types.PromptSourceInfo) string {
	if !src.Loaded() {
		return p.warn.Render("no prompt file loaded")
	}
	repeat := "off"
	if src.Repeat {
		repeat = "on"
	}
	return fmt.Sprintf("%s  %d of %d completed | loops done: %d | repeat: %s",
		src.Name, src.Completed, src.Total, src.LoopsDone, repeat)
}

func (p *printer) Status(s types.StatusResponse) error {
	if p.json {
		return p.emitJSON(s)
	}
	p.field("state", p.state(s.State))
	p.field("uptime", render.Uptime(s.UptimeSeconds))
	p.field("jobs done", render.Thousands(s.TotalJobsDone))
	p.field("workers", fmt.Sprintf("%d busy, %d idle", s.BusyWorkers, s.IdleWorkers))
	p.field("prompts", p.sourceLine(s.Source))
	p.field("log", fmt.Sprintf("%d/%d lines", s.LogEntries, s.LogCapacity))
	return nil
}

func (p *printer) Workers(ws []types.WorkerStatus) error {
	if p.json {
		return p.emitJSON(types.WorkersResponse{Workers: ws})
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "NAME", "STATE", "ELAPSED", "DONE", "PROMPT", "OPTIONS")
	for _, w := range ws {
		state, elapsed := p.warn.Render("idle"), ""
		if !w.Idle {
			state, elapsed = p.ok.Render("working"), render.Uptime(w.ElapsedSeconds)
		}
		t.Row(strconv.Itoa(w.ID), w.Name, state, elapsed,
			strconv.FormatUint(w.JobsDone, 10), w.PromptInfo, p.muted.Render(w.PromptOptions))
	}
	fmt.Fprintln(p.out, t.String())
	return nil
}

func (p *printer) Log(l types.LogResponse) error {
	if p.json {
		return p.emitJSON(l)
	}
	for _, line := range l.Lines {
		fmt.Fprintln(p.out, line)
	}
	return nil
}

func (p *printer) Control(op string, c types.ControlResponse) error {
	if p.json {
		return p.emitJSON(c)
	}
	if !c.Changed {
		fmt.Fprintf(p.out, "%s: no change, server is %s\n", op, p.state(c.State))
		return nil
	}
	fmt.Fprintf(p.out, "%s: server is %s\n", op, p.state(c.State))
	return nil
}

func (p *printer) PromptFiles(files []types.PromptFile, active string) error {
	if p.json {
		return p.emitJSON(types.PromptFilesResponse{Files: files})
	}
	if len(files) == 0 {
		fmt.Fprintln(p.out, p.muted.Render("no prompt files found"))
		return nil
	}
	for _, f := range files {
		mark := " "
		if f.Path == active {
			mark = p.ok.Render("*")
		}
		fmt.Fprintf(p.out, "%s %s  %s\n", mark, f.Name, p.muted.Render(f.Path))
	}
	return nil
}

func (p *printer) Source(src types.PromptSourceInfo) error {
	if p.json {
		return p.emitJSON(src)
	}
	p.field("prompts", p.sourceLine(src))
	if src.Loaded() {
		p.field("path", src.Path)
		p.field("pending", strconv.Itoa(src.Pending))
	}
	return nil
}

func (p *printer) Event(e StreamEvent) error {
	if p.json {
		_, err := fmt.Fprintln(p.out, e.Data)
		return err
	}
	fmt.Fprintf(p.out, "%s %s\n", p.label.Render(e.Name), p.muted.Render(e.Data))
	return nil
}
