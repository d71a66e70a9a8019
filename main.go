// Package main is the scaffoldr server and command line.
//
// Every dependency is built in the init_*.go files and wired together in
// runServe; there are no package-level singletons.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akinalp/scaffoldr/config"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/templates"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scaffoldr",
		Short: "Project scaffolding server",
		Long: `scaffoldr creates projects from templates: it copies a template
directory, fills in its {{PLACEHOLDER}} variables and serves the result
for download and simulated deployment.

Without a subcommand it runs the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(),
		newTemplatesCmd(),
		newRenderCmd(),
		newVersionCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scaffoldr version %s\n", version)
		},
	}
}

// openTemplateStore returns the on-disk store when TEMPLATES_DIR is set and
// the templates compiled into the binary otherwise.
func openTemplateStore(cfg *config.Config) (*scaffold.Store, error) {
	if cfg.Templates.Dir != "" {
		return scaffold.NewDirStore(cfg.Templates.Dir)
	}
	return scaffold.NewStore(templates.FS), nil
}
