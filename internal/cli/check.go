package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/document"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/pipeline"
)

func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Load a diagram document and report problems",
		Long: `Check applies every entry of a diagram document the way render does and
reports entries that were rejected, edges that do not connect two nodes, and
hidden items. It fails when an entry was rejected or the model is
inconsistent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runCheck(ctx context.Context, input string) error {
	doc, err := document.ReadFile(input)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, loggerFrom(ctx))
	var res pipeline.Result
	g, err := runner.Build(ctx, doc, c.pipelineOptions(), &res)
	if err != nil {
		return err
	}

	var unresolved, hidden []string
	for _, e := range g.Edges() {
		if !e.Resolved() {
			unresolved = append(unresolved, fmt.Sprintf("%s (%s → %s)", e.ID(), e.Source(), e.Target()))
		}
	}
	for id, it := range g.ItemMap() {
		if it.Kind() != model.KindEdge && !g.IsVisible(it) {
			hidden = append(hidden, id)
		}
	}

	printTitle(c.out, input)
	printKeyValue(c.out, "nodes", res.Stats.Nodes)
	printKeyValue(c.out, "edges", res.Stats.Edges)
	printKeyValue(c.out, "groups", res.Stats.Groups)
	printKeyValue(c.out, "unresolved", len(unresolved))
	printKeyValue(c.out, "hidden", len(hidden))
	for _, u := range unresolved {
		printDetail(c.out, "unresolved edge %s", u)
	}

	auditErr := g.Check()
	switch {
	case res.LoadErr != nil:
		printError(c.out, "%d entries rejected", res.Rejected)
		for _, line := range strings.Split(res.LoadErr.Error(), "\n") {
			printDetail(c.out, "%s", line)
		}
		return fmt.Errorf("%s: %d entries rejected", input, res.Rejected)
	case auditErr != nil:
		printError(c.out, "model check failed: %v", auditErr)
		return auditErr
	}
	printSuccess(c.out, "%s is consistent", input)
	return nil
}
