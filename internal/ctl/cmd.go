package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"artd/pkg/types"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

// errStop ends an event stream once enough events were printed.
var errStop = errors.New("stop")

// NewRootCmd builds the artctl command tree. Settings resolve in the order
// flag, ARTCTL_* environment variable, config file, default.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "artctl",
		Short:         "Inspect and control a running artd",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(v)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default $HOME/.config/artctl/config.yaml)")
	pf.String("server", defaultServer, "artd base URL (env ARTCTL_SERVER)")
	pf.Duration("timeout", defaultTimeout, "Request timeout (env ARTCTL_TIMEOUT)")
	pf.Bool("json", false, "Print raw JSON responses")
	for _, name := range []string{"config", "server", "timeout", "json"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}

	client := func() *Client { return NewClient(v.GetString("server"), v.GetDuration("timeout")) }
	printer := func(cmd *cobra.Command) *printer { return newPrinter(cmd.OutOrStdout(), v.GetBool("json")) }

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show server state, uptime and job totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := client().Status(cmd.Context())
			if err != nil {
				return err
			}
			return printer(cmd).Status(s)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "workers",
		Short: "List workers and their current jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := client().Workers(cmd.Context())
			if err != nil {
				return err
			}
			return printer(cmd).Workers(ws)
		},
	})

	logCmd := &cobra.Command{
		Use:     "log",
		Short:   "Print the output log; resize or clear it",
		Example: "  artctl log\n  artctl log --length 500\n  artctl log --clear",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			if clear, _ := cmd.Flags().GetBool("clear"); clear {
				if err := c.ClearLog(cmd.Context()); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("length") {
				n, _ := cmd.Flags().GetInt("length")
				if n < 0 {
					return fmt.Errorf("--length must be >= 0")
				}
				l, err := c.ResizeLog(cmd.Context(), n)
				if err != nil {
					return err
				}
				if !v.GetBool("json") {
					fmt.Fprintf(cmd.OutOrStdout(), "log length set to %d\n", l.Capacity)
					return nil
				}
				return printer(cmd).Log(l)
			}
			l, err := c.Log(cmd.Context())
			if err != nil {
				return err
			}
			if tail, _ := cmd.Flags().GetInt("tail"); tail > 0 && tail < len(l.Lines) {
				l.Lines = l.Lines[len(l.Lines)-tail:]
			}
			return printer(cmd).Log(l)
		},
	}
	logCmd.Flags().Int("length", 0, "Set the log capacity in lines")
	logCmd.Flags().Bool("clear", false, "Clear the log first")
	logCmd.Flags().Int("tail", 0, "Only print the last N lines")
	root.AddCommand(logCmd)

	for _, op := range []struct {
		use, short string
		call       func(*Client, context.Context) (types.ControlResponse, error)
	}{
		{"pause", "Stop assigning new jobs; running jobs finish", (*Client).Pause},
		{"unpause", "Resume assigning jobs", (*Client).Unpause},
		{"shutdown", "Stop the server once running jobs finish", (*Client).Shutdown},
	} {
		op := op
		root.AddCommand(&cobra.Command{
			Use:   op.use,
			Short: op.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := op.call(client(), cmd.Context())
				if err != nil {
					return err
				}
				return printer(cmd).Control(op.use, res)
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "prompts",
		Short: "List prompt files available to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			files, err := c.PromptFiles(cmd.Context())
			if err != nil {
				return err
			}
			src, err := c.PromptSource(cmd.Context())
			if err != nil {
				return err
			}
			return printer(cmd).PromptFiles(files, src.Path)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "source",
		Short: "Show the active prompt file and its progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := client().PromptSource(cmd.Context())
			if err != nil {
				return err
			}
			return printer(cmd).Source(src)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "load <name|path>",
		Short:   "Switch the server to another prompt file",
		Example: "  artctl load landscapes\n  artctl load /srv/prompts/portraits.prompts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			path, err := resolvePromptArg(cmd, c, args[0])
			if err != nil {
				return err
			}
			src, err := c.LoadPromptFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			return printer(cmd).Source(src)
		},
	})

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Follow controller events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("count")
			p := printer(cmd)
			seen := 0
			err := client().Events(cmd.Context(), func(e StreamEvent) error {
				if err := p.Event(e); err != nil {
					return err
				}
				seen++
				if limit > 0 && seen >= limit {
					return errStop
				}
				return nil
			})
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		},
	}
	eventsCmd.Flags().Int("count", 0, "Exit after N events")
	root.AddCommand(eventsCmd)

	return root
}

// resolvePromptArg maps a bare prompt file name to its path on the server;
// anything else is sent unchanged.
func resolvePromptArg(cmd *cobra.Command, c *Client, arg string) (string, error) {
	if strings.ContainsRune(arg, filepath.Separator) || strings.ContainsRune(arg, '/') || filepath.Ext(arg) != "" {
		return arg, nil
	}
	files, err := c.PromptFiles(cmd.Context())
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.Name == arg {
			return f.Path, nil
		}
	}
	return arg, nil
}

func loadSettings(v *viper.Viper) error {
	v.SetEnvPrefix("ARTCTL")
	v.AutomaticEnv()
	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		return v.ReadInConfig()
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "artctl"))
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return err
		}
	}
	return nil
}
