// ABOUTME: Graphviz rendering of the sales pipeline
// ABOUTME: Stages as nodes with task counts and values, flowing left to right
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/salesdesk/models"
)

// stageFlow is the forward path through the pipeline; won and lost both
// branch off the final open stage.
var stageFlow = []string{
	models.StageNew, models.StageContacted, models.StageDemo, models.StageOfferSent,
	models.StageNegotiation, models.StageFinalizing,
}

func stageColor(stage string) string {
	switch stage {
	case models.StageWon:
		return "palegreen"
	case models.StageLost:
		return "mistyrose"
	}
	return "lightyellow"
}

// PipelineGraph renders the pipeline as DOT source.
func PipelineGraph(ctx context.Context, b models.DashboardBundle) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel("Sales Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	counts := map[string]models.PipelineStage{}
	for _, st := range b.Pipeline {
		counts[st.Stage] = st
	}

	nodes := make(map[string]*cgraph.Node)
	for _, stage := range models.TaskStages {
		node, err := graph.CreateNodeByName(stage)
		if err != nil {
			return "", fmt.Errorf("failed to create node %s: %w", stage, err)
		}
		st := counts[stage]
		node.SetLabel(fmt.Sprintf("%s\n%d tasks\n%s", models.StageLabel(stage), st.Count, Thousands(st.Value)))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(stageColor(stage))
		nodes[stage] = node
	}

	link := func(from, to string) (*cgraph.Edge, error) {
		edge, err := graph.CreateEdgeByName(from+"->"+to, nodes[from], nodes[to])
		if err != nil {
			return nil, fmt.Errorf("failed to link %s to %s: %w", from, to, err)
		}
		return edge, nil
	}
	for i := 0; i+1 < len(stageFlow); i++ {
		if _, err := link(stageFlow[i], stageFlow[i+1]); err != nil {
			return "", err
		}
	}
	last := stageFlow[len(stageFlow)-1]
	if _, err := link(last, models.StageWon); err != nil {
		return "", err
	}
	lost, err := link(last, models.StageLost)
	if err != nil {
		return "", err
	}
	lost.SetStyle("dashed")

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
