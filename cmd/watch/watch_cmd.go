package watch

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docmodelhq/corpus/internal/cliutil"
	"github.com/docmodelhq/corpus/storage"
)

type watchOptions struct {
	mounts    []string
	namespace string
	rootDir   string
	port      int
}

// Cmd represents the watch command.
var Cmd = NewCommand()

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	opts := &watchOptions{
		port: 4900,
	}

	cmd := &cobra.Command{
		Use:   "watch <object-path>",
		Short: "Watch mounted directories and serve a live import graph",
		Long: `Watch the mounted directories for changes, refetch the document's import
graph on every change, and serve a live-updating visualization at localhost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.mounts, "mount", "m", nil, "Mount a namespace (namespace=directory, repeatable)")
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "", "Default namespace for unscoped paths")
	cmd.Flags().StringVarP(&opts.rootDir, "root", "r", "", "Directory to mount when no --mount is given (default: current directory)")
	cmd.Flags().IntVarP(&opts.port, "port", "P", opts.port, "HTTP server port")

	return cmd
}

func runWatch(cmd *cobra.Command, objectPath string, opts *watchOptions) error {
	// Validate the mount flags up front; each rebuild mounts a fresh corpus.
	roots, err := cliutil.MountLocalRoots(storage.NewManager(), opts.mounts, opts.rootDir, opts.namespace)
	if err != nil {
		return err
	}

	b := newBroker()
	srv := newServer(b, opts.port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", opts.port, err)
	}

	go srv.Serve(ln)

	rb := newRebuilder(objectPath, opts)
	rb.publish(ctx, b)

	for namespace, root := range roots {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%s:)\n", root, namespace)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving at http://localhost:%d\n", opts.port)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	err = watchAndRebuild(ctx, roots, rb, b)

	srv.Close()
	return err
}
