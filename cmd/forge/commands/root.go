// Package commands implements forge's single flat CLI command (spec §6):
// forge [flags] TASK [:ARG]*. Grounded on the teacher's cmd/same/commands
// cobra wiring, flattened from the teacher's run/version/clean/daemon
// subcommands into one root command, since spec §6 names no subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"forge/internal/app"
	"forge/internal/build"
	"forge/internal/core/ports"
	"forge/internal/engine/resolver"
	"forge/internal/ui/tasks"
)

// Application is the subset of *app.App the CLI depends on.
type Application interface {
	Run(ctx context.Context, targetArgs []string, opts app.RunOptions) error
	Graph() (*resolver.Graph, error)
}

// CLI wraps the forge root command.
type CLI struct {
	app     Application
	logger  ports.Logger
	rootCmd *cobra.Command

	showTasks     bool
	showTaskGraph bool
	forceTasks    bool
	disableCache  bool
	resetCache    bool
	noParallel    bool
	noColor       bool
	logLevel      string
}

// New creates a CLI driving a, logging through logger.
func New(a Application, logger ports.Logger) *CLI {
	c := &CLI{app: a, logger: logger}

	c.rootCmd = &cobra.Command{
		Use:           "forge [flags] TASK [:ARG]*",
		Short:         "A content-addressed, incremental build task runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		Args:          cobra.ArbitraryArgs,
		RunE:          c.run,
	}
	c.rootCmd.SetVersionTemplate(fmt.Sprintf(
		"forge version {{.Version}} (commit: %s, date: %s)\n", build.Commit, build.Date,
	))

	flags := c.rootCmd.Flags()
	flags.StringVarP(&c.logLevel, "log-level", "l", "info", "Minimum log level: trace, fine, debug, info, warn, error, profile")
	flags.BoolP("color", "c", true, "Enable colored output")
	flags.Bool("no-color", false, "Disable colored output")
	flags.BoolVarP(&c.forceTasks, "force-tasks", "f", false, "Run every task regardless of its run condition")
	flags.BoolP("parallel-tasks", "p", true, "Run parallelizable tasks concurrently")
	flags.Bool("no-parallel-tasks", false, "Disable concurrent execution of parallelizable tasks")
	flags.BoolVarP(&c.showTasks, "show-tasks", "s", false, "List known tasks and exit")
	flags.BoolVarP(&c.showTaskGraph, "show-task-graph", "g", false, "Show each task's dependencies and exit")
	flags.BoolVarP(&c.resetCache, "reset-cache", "z", false, "Wipe the build cache before running")
	flags.BoolVarP(&c.disableCache, "disable-cache", "d", false, "Bypass the build cache entirely (implies --force-tasks)")
	flags.BoolP("version", "v", false, "Print the application version")
	flags.BoolP("help", "h", false, "Show help for forge")

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) { c.rootCmd.SetArgs(args) }

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) run(cmd *cobra.Command, args []string) error {
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor || os.Getenv("NO_COLOR") != "" {
		c.noColor = true
	}
	parallel, _ := cmd.Flags().GetBool("parallel-tasks")
	noParallel, _ := cmd.Flags().GetBool("no-parallel-tasks")
	c.noParallel = noParallel || !parallel

	if err := c.logger.SetLevel(c.logLevel); err != nil {
		return err
	}

	if c.showTasks || c.showTaskGraph {
		graph, err := c.app.Graph()
		if err != nil {
			return err
		}
		if c.showTasks {
			tasks.RenderList(cmd.OutOrStdout(), graph)
		}
		if c.showTaskGraph {
			tasks.RenderGraph(cmd.OutOrStdout(), graph)
		}
		return nil
	}

	force := c.forceTasks || c.disableCache
	return c.app.Run(cmd.Context(), args, app.RunOptions{
		Force:        force,
		Parallel:     !c.noParallel,
		DisableCache: c.disableCache,
		ResetCache:   c.resetCache,
	})
}
