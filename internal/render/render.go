// Package render turns status snapshots into the HTML fragments polled by the
// web console. Every function is pure: it reads only its arguments.
package render

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"artd/pkg/types"
)

var funcs = template.FuncMap{
	"clock": clock,
	"base":  filepath.Base,
}

var workersTmpl = template.Must(template.New("workers").Funcs(funcs).Parse(
	`{{range $i, $w := .}}{{if $i}}
{{end}}<div id="worker-{{$w.ID}}" class="worker-info">
	<div class="worker-info-header">
		<div>{{$w.Name}} ({{$w.ID}})</div>
		<div class="small">{{$w.JobsDone}} jobs completed</div>
	</div>
	<div class="worker-info-prompt">
		<div class="left">
{{- if $w.Idle}}
			<div style="color: yellow;">[idle]</div>
			<div class="clock"></div>
{{- else}}
			<div>[working]</div>
			<div class="clock">{{clock $w.ElapsedSeconds}}</div>
{{- end}}
		</div>
		<div class="right">
			<div class="right-top">{{$w.PromptInfo}}</div>
			<div class="right-bottom">{{$w.PromptOptions}}</div>
		</div>
	</div>
</div>
{{end}}`))

var promptTmpl = template.Must(template.New("prompt").Funcs(funcs).Parse(
	`{{if .Loaded -}}
<div id="prompt-status-header" class="prompt-status-header">
	<div>
		{{.Name}}
	</div>
	<div style="font-size: 12px; font-weight: normal;">
		{{.Completed}} of {{.Total}} prompt combinations completed | loops done: {{.LoopsDone}} | repeat: {{if .Repeat}}on{{else}}off{{end}}
	</div>
</div>
<div id="prompt-status" class="prompt-status">
	'{{base .Path}}' loaded from {{.Dir}}
</div>
{{else -}}
<div id="prompt-status" class="prompt-status" style="color: yellow;">
	No prompt file loaded; choose one below
</div>
{{end}}`))

var dropdownTmpl = template.Must(template.New("dropdown").Parse(
	`<label for="prompt-file">Choose a new prompt file:</label>
<select name="prompt-file" id="prompt-file" class="prompt-dropdown" onchange="new_prompt_file()">
	<option value="">select</option>
{{- range .}}
	<option value="{{.Path}}">{{.Name}}</option>
{{- end}}
</select>
`))

// Workers writes one worker-info block per worker, in the given order.
func Workers(w io.Writer, workers []types.WorkerStatus) error {
	return workersTmpl.Execute(w, workers)
}

// Prompt writes the active prompt file header, or a notice when none is loaded.
func Prompt(w io.Writer, info types.PromptSourceInfo) error {
	return promptTmpl.Execute(w, info)
}

// PromptDropdown writes the prompt file selector.
func PromptDropdown(w io.Writer, files []types.PromptFile) error {
	return dropdownTmpl.Execute(w, files)
}

// Status writes the server status block. The first byte is 'y' when the
// server is paused and 'n' otherwise; the console strips it to toggle its
// pause button.
func Status(w io.Writer, s types.StatusResponse) error {
	var b strings.Builder
	if s.Paused {
		b.WriteString(`y<div style="color: yellow;">Server is paused</div>`)
	} else if s.State == "shutting_down" {
		b.WriteString(`n<div style="color: yellow;">Server is shutting down</div>`)
	} else {
		b.WriteString(`n<div>Server is running</div>`)
	}
	b.WriteString("<div>Server uptime: ")
	b.WriteString(Uptime(s.UptimeSeconds))
	b.WriteString("</div><div>Total jobs done: ")
	b.WriteString(Thousands(s.TotalJobsDone))
	b.WriteString("</div>")
	_, err := io.WriteString(w, b.String())
	return err
}

// Buffer writes the output log, oldest line first, HTML-escaped.
func Buffer(w io.Writer, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		template.HTMLEscape(&b, []byte(l))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Uptime formats whole seconds as H:MM:SS, prefixed by a day count once
// past 24 hours ("1 day, 2:03:04").
func Uptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	rest := seconds % 86400
	hms := fmt.Sprintf("%d:%02d:%02d", rest/3600, rest%3600/60, rest%60)
	switch days {
	case 0:
		return hms
	case 1:
		return "1 day, " + hms
	default:
		return fmt.Sprintf("%d days, %s", days, hms)
	}
}

// Thousands formats n with comma separators.
func Thousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// clock renders a job's elapsed time as MM:SS; minutes wrap at one hour.
func clock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60%60, seconds%60)
}
