package graph

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/docmodelhq/corpus/cmd/graph/formatters"
	"github.com/docmodelhq/corpus/corpus"
	"github.com/docmodelhq/corpus/importgraph"
	"github.com/docmodelhq/corpus/internal/cliutil"
)

type graphOptions struct {
	mounts          []string
	namespace       string
	rootDir         string
	outputFormat    string
	label           string
	copyToClipboard bool
}

// Cmd represents the graph command.
var Cmd = NewCommand()

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	opts := &graphOptions{}

	cmd := &cobra.Command{
		Use:   "graph <object-path>",
		Short: "Generate an import graph for a document",
		Long: `Fetch a document with its transitive imports and render the import graph.

Unresolvable imports stay in the graph as dashed leaf nodes, so a broken
reference is visible instead of silently dropped.

Output formats:
  - dot: Graphviz DOT format for visualization (default)
  - mermaid: Mermaid.js flowchart format
  - json: JSON format

Examples:
  corpus graph main.cdm.json
  corpus graph -r ./schemas -f mermaid local:/main.cdm.json
  corpus graph -m contoso=./contoso -m core=./core -n contoso /main.cdm.json -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.mounts, "mount", "m", nil, "Mount a namespace (namespace=directory, repeatable)")
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "", "Default namespace for unscoped paths")
	cmd.Flags().StringVarP(&opts.rootDir, "root", "r", "", "Directory to mount when no --mount is given (default: current directory)")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", formatters.OutputFormatDOT.String(),
		fmt.Sprintf("Output format (%s, %s, %s)", formatters.OutputFormatDOT, formatters.OutputFormatMermaid, formatters.OutputFormatJSON))
	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "Graph title (default: the root document's path)")
	cmd.Flags().BoolVarP(&opts.copyToClipboard, "clipboard", "b", false, "Automatically copy output to clipboard")

	return cmd
}

func runGraph(cmd *cobra.Command, objectPath string, opts *graphOptions) error {
	formatter, err := formatters.NewFormatter(opts.outputFormat)
	if err != nil {
		return err
	}

	c := corpus.New(nil)
	if _, err := cliutil.MountLocalRoots(c.Storage(), opts.mounts, opts.rootDir, opts.namespace); err != nil {
		return err
	}
	c.SetEventCallback(func(_ corpus.StatusLevel, message string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", message)
	}, corpus.StatusWarning)

	doc, err := c.FetchObject(cmd.Context(), objectPath)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("failed to fetch %s", objectPath)
	}

	label := opts.label
	if label == "" {
		label = doc.CorpusPath
	}

	output, err := formatter.Format(importgraph.NewDocumentGraph(doc), formatters.RenderOptions{Label: label})
	if err != nil {
		return fmt.Errorf("failed to format graph: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), output)

	if opts.copyToClipboard {
		if err := clipboard.WriteAll(output); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\n✅ Content copied to your clipboard.")
	}

	return nil
}
