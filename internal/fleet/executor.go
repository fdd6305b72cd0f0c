package fleet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"artd/internal/controller"
)

// SimExecutor pretends to render: it reports the prompt and waits Duration.
type SimExecutor struct {
	Duration time.Duration
	// Fail, when set, decides whether a job fails after its wait.
	Fail func(controller.Job) error
}

func (s SimExecutor) Execute(ctx context.Context, job controller.Job, out io.Writer) error {
	fmt.Fprintf(out, "rendering %q\n", job.Prompt)
	timer := time.NewTimer(s.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if s.Fail != nil {
		if err := s.Fail(job); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "finished job %d\n", job.Index)
	return nil
}

// CommandExecutor runs an external program per job. Argv elements may use
// the placeholders {prompt}, {options}, {job_id} and {index}; the same values
// are exported as ARTD_PROMPT, ARTD_OPTIONS, ARTD_JOB_ID and ARTD_JOB_INDEX.
type CommandExecutor struct {
	Argv []string
	Dir  string
}

// ErrNoCommand is returned when CommandExecutor has an empty Argv.
var ErrNoCommand = errors.New("command executor: empty argv")

func (c CommandExecutor) Execute(ctx context.Context, job controller.Job, out io.Writer) error {
	if len(c.Argv) == 0 {
		return ErrNoCommand
	}
	r := strings.NewReplacer(
		"{prompt}", job.Prompt,
		"{options}", job.Options,
		"{job_id}", job.ID,
		"{index}", strconv.Itoa(job.Index),
	)
	argv := make([]string, len(c.Argv))
	for i, a := range c.Argv {
		argv[i] = r.Replace(a)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(),
		"ARTD_PROMPT="+job.Prompt,
		"ARTD_OPTIONS="+job.Options,
		"ARTD_JOB_ID="+job.ID,
		"ARTD_JOB_INDEX="+strconv.Itoa(job.Index),
	)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
