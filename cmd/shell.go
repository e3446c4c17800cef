package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/search"
)

const shellHelp = `Type a query and press enter. Commands:
  :launch N            record a launch of the Nth app result
  :allow <provider>    grant the permission a provider needs
  :deny <provider>     revoke it again
  :refresh             re-run the current query
  :quit                exit`

// ShellCommand creates the shell command
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive search session",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Maximum time to wait for a query to settle",
				Value: 10 * time.Second,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runShell(ctx, c.String("config"), os.Stdin, os.Stdout, c.Duration("timeout"))
		},
	}
}

func runShell(ctx context.Context, configPath string, in io.Reader, out io.Writer, timeout time.Duration) error {
	rt, err := openRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher := config.NewWatcher(configPath, rt.cfg)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.ForService("shell").Warnf("config reload disabled: %v", err)
		}
	}()

	sess := search.NewSession(rt.dispatcher, rt.opts)
	states, unsubscribe := sess.Subscribe()
	defer unsubscribe()
	sess.Open(ctx)
	defer sess.Close()
	go sess.FollowSettings(ctx, watcher)

	sh := &shell{rt: rt, sess: sess, states: states, out: out, timeout: timeout}
	fmt.Fprintln(out, shellHelp)
	sh.print(sh.wait(""))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.HasPrefix(line, ":") {
			if quit := sh.command(ctx, line); quit {
				return nil
			}
			continue
		}
		if st := sess.Current(); st.Query == line && !st.Loading {
			sh.print(st)
			continue
		}
		sess.OnQueryChanged(line)
		sh.print(sh.wait(line))
	}
}

type shell struct {
	rt      *runtime
	sess    *search.Session
	states  <-chan search.State
	out     io.Writer
	timeout time.Duration
	last    search.State
}

// wait returns the first settled state for query.
func (sh *shell) wait(query string) search.State {
	deadline := time.NewTimer(sh.timeout)
	defer deadline.Stop()
	for {
		select {
		case st := <-sh.states:
			if st.Query == query && !st.Loading {
				return st
			}
		case <-deadline.C:
			return sh.sess.Current()
		}
	}
}

// waitNext returns the first settled state newer than gen.
func (sh *shell) waitNext(gen uint64) search.State {
	deadline := time.NewTimer(sh.timeout)
	defer deadline.Stop()
	for {
		select {
		case st := <-sh.states:
			if st.Generation > gen && !st.Loading {
				return st
			}
		case <-deadline.C:
			return sh.sess.Current()
		}
	}
}

func (sh *shell) print(st search.State) {
	sh.last = st
	fmt.Fprintln(sh.out, formatHeader(st.Query, st.Provider))
	fmt.Fprint(sh.out, formatResults(st.Results))
}

func (sh *shell) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":refresh":
		gen := sh.sess.Current().Generation
		sh.sess.Refresh()
		sh.print(sh.waitNext(gen))
	case ":launch":
		if len(fields) != 2 {
			fmt.Fprintln(sh.out, "usage: :launch N")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(sh.last.Results) {
			fmt.Fprintln(sh.out, "no such result")
			return false
		}
		app, ok := sh.last.Results[n-1].(core.AppResult)
		if !ok {
			fmt.Fprintln(sh.out, "result is not an app")
			return false
		}
		if _, err := sh.rt.apps.Launch(ctx, app.App.ID); err != nil {
			fmt.Fprintf(sh.out, "launch failed: %v\n", err)
			return false
		}
		fmt.Fprintf(sh.out, "launched %s\n", app.App.Name)
	case ":allow", ":deny":
		if len(fields) != 2 {
			fmt.Fprintf(sh.out, "usage: %s <provider>\n", fields[0])
			return false
		}
		gen := sh.sess.Current().Generation
		sh.sess.OnPermissionStateChanged(fields[1], fields[0] == ":allow")
		if st := sh.sess.Current(); st.Provider != nil && st.Provider.ID == fields[1] {
			sh.print(sh.waitNext(gen))
		}
	case ":help":
		fmt.Fprintln(sh.out, shellHelp)
	default:
		fmt.Fprintf(sh.out, "unknown command %s\n", fields[0])
	}
	return false
}
