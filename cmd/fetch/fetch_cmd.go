package fetch

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docmodelhq/corpus/corpus"
	"github.com/docmodelhq/corpus/importgraph"
	"github.com/docmodelhq/corpus/internal/cliutil"
	"github.com/docmodelhq/corpus/internal/logd"
)

type fetchOptions struct {
	mounts      []string
	namespace   string
	rootDir     string
	forceReload bool
	quiet       bool
}

// Cmd represents the fetch command.
var Cmd = NewCommand()

// NewCommand returns a new fetch command instance.
func NewCommand() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <object-path>",
		Short: "Fetch a document and its transitive imports",
		Long: `Fetch a document from mounted storage, resolve its import graph, and print
the resolution result for every document reached.

Object paths are namespace-scoped ("local:/main.cdm.json"). Paths without a
namespace resolve against the default namespace.

Examples:
  corpus fetch main.cdm.json
  corpus fetch -r ./schemas local:/main.cdm.json
  corpus fetch -m contoso=./contoso -m core=./core -n contoso /main.cdm.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.mounts, "mount", "m", nil, "Mount a namespace (namespace=directory, repeatable)")
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "", "Default namespace for unscoped paths")
	cmd.Flags().StringVarP(&opts.rootDir, "root", "r", "", "Directory to mount when no --mount is given (default: current directory)")
	cmd.Flags().BoolVar(&opts.forceReload, "force", false, "Bypass the document cache and reload from storage")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress resolution warnings on stderr")

	return cmd
}

func runFetch(cmd *cobra.Command, objectPath string, opts *fetchOptions) error {
	c, err := newCorpus(cmd, opts)
	if err != nil {
		return err
	}

	doc, err := c.FetchObjectWithOptions(cmd.Context(), objectPath, corpus.FetchOptions{
		ForceReload: opts.forceReload,
	})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("failed to fetch %s", objectPath)
	}

	printResolution(cmd, doc)
	printCycles(cmd, doc)
	logd.Info("fetch completed", map[string]any{
		"root":      doc.CorpusPath,
		"documents": len(c.Library().Documents()),
	})
	return nil
}

// printCycles reports import cycles reachable from the root. Cycles resolve
// fine, but they usually mean a document took on two roles and are worth
// surfacing.
func printCycles(cmd *cobra.Command, root *corpus.Document) {
	cycles, err := importgraph.NewDocumentGraph(root).Graph.Cycles()
	if err != nil || len(cycles) == 0 {
		return
	}
	for _, cycle := range cycles {
		fmt.Fprintf(cmd.OutOrStdout(), "cycle: %s\n", strings.Join(cycle, " <-> "))
	}
}

// newCorpus builds a corpus from the command's mount flags and wires
// resolution events to stderr and the dev logger.
func newCorpus(cmd *cobra.Command, opts *fetchOptions) (*corpus.Corpus, error) {
	c := corpus.New(nil)
	if _, err := cliutil.MountLocalRoots(c.Storage(), opts.mounts, opts.rootDir, opts.namespace); err != nil {
		return nil, err
	}

	c.SetEventCallback(func(level corpus.StatusLevel, message string) {
		logd.Warn(message, map[string]any{"level": level.String()})
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", message)
		}
	}, corpus.StatusWarning)

	return c, nil
}

// printResolution walks the import graph from the root and prints each
// document once with the state of its imports. Cycles are cut by the
// visited set.
func printResolution(cmd *cobra.Command, root *corpus.Document) {
	visited := make(map[string]bool)
	var walk func(doc *corpus.Document)
	walk = func(doc *corpus.Document) {
		if visited[doc.CorpusPath] {
			return
		}
		visited[doc.CorpusPath] = true

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", doc.CorpusPath, doc.Name)
		for _, imp := range doc.Imports() {
			target := imp.TargetPath()
			if target == "" {
				target = imp.CorpusPath()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  -> %s [%s]\n", target, imp.State())
		}
		for _, imp := range doc.Imports() {
			if child := imp.Doc(); child != nil {
				walk(child)
			}
		}
	}
	walk(root)

	resolved := len(visited)
	failed := countFailed(root, make(map[string]bool))
	summary := fmt.Sprintf("%d document%s resolved", resolved, plural(resolved))
	if failed > 0 {
		summary += fmt.Sprintf(", %d import%s failed", failed, plural(failed))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), summary)
}

func countFailed(doc *corpus.Document, visited map[string]bool) int {
	if visited[doc.CorpusPath] {
		return 0
	}
	visited[doc.CorpusPath] = true

	failed := 0
	for _, imp := range doc.Imports() {
		if imp.State() == corpus.ImportFailed {
			failed++
		}
		if child := imp.Doc(); child != nil {
			failed += countFailed(child, visited)
		}
	}
	return failed
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
