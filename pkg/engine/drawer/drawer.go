// Package drawer renders a pipeline's dependency graph to a Graphviz DOT
// file. The debug executor uses it to visualise the execution plan, with
// per-stage durations as labels and a duration heat gradient as fill colour.
package drawer

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	colors "gopkg.in/go-playground/colors.v1"
)

// PlanDrawer accumulates stages and dependencies, then writes one DOT file.
type PlanDrawer struct {
	graph     graph.Graph[string, string]
	durations map[string]time.Duration
	fileName  string
}

// StageLabel builds the vertex name for a stage: index-prefixed so duplicate
// plugin names stay distinct.
func StageLabel(index int, pluginName string) string {
	return fmt.Sprintf("%d:%s", index, pluginName)
}

// NewPlanDrawer creates a drawer that writes to fileName.
func NewPlanDrawer(fileName string) *PlanDrawer {
	return &PlanDrawer{
		graph:     graph.New(graph.StringHash, graph.Directed()),
		durations: make(map[string]time.Duration),
		fileName:  fileName,
	}
}

// AddStage adds a stage vertex to the plan.
func (d *PlanDrawer) AddStage(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"), graph.VertexAttribute("style", "filled"))
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	return nil
}

// AddDependency links a producing stage to a consuming one.
func (d *PlanDrawer) AddDependency(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// SetDuration records a stage's measured duration for labelling and heat
// colouring.
func (d *PlanDrawer) SetDuration(name string, elapsed time.Duration) {
	d.durations[name] = elapsed
}

// Draw writes the accumulated plan as a DOT file.
func (d *PlanDrawer) Draw() error {
	if err := d.applyDurations(); err != nil {
		return err
	}

	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	return dot(d.graph, file)
}

const maxRGB = 240

// applyDurations labels every stage with its duration and colours it on a
// blue-to-red gradient, red being the slowest stage of the run.
func (d *PlanDrawer) applyDurations() error {
	var minD, maxD time.Duration
	first := true
	for _, elapsed := range d.durations {
		if first || elapsed < minD {
			minD = elapsed
		}
		if first || elapsed > maxD {
			maxD = elapsed
		}
		first = false
	}

	for name, elapsed := range d.durations {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex %s", name)
		}

		properties.Attributes["xlabel"] = elapsed.String()

		fraction := 0.0
		if maxD > minD {
			fraction = float64(elapsed-minD) / float64(maxD-minD)
		}

		heat, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB*(1-fraction)))
		if err != nil {
			return errors.Wrap(err, "unable to build colour")
		}
		properties.Attributes["fillcolor"] = heat.ToHEX().String()
		properties.Attributes["fontcolor"] = "white"
	}

	return nil
}

const dotTemplate = `strict {{.GraphType}} {
{{range $s := .Statements}}	"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}"{{else}}[ {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} ]{{end}};
{{end}}}
`

type description struct {
	GraphType    string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
}

func dot(g graph.Graph[string, string], wrt io.Writer) error {
	desc := description{
		GraphType:    "digraph",
		EdgeOperator: "->",
	}

	adjacencyMap, err := g.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	for vertex, adjacencies := range adjacencyMap {
		_, properties, err := g.VertexWithProperties(vertex)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex %s", vertex)
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceAttributes: properties.Attributes,
		})

		for adjacency := range adjacencies {
			desc.Statements = append(desc.Statements, statement{
				Source: vertex,
				Target: adjacency,
			})
		}
	}

	tpl, err := template.New("plan").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "unable to parse dot template")
	}

	return errors.Wrap(tpl.Execute(wrt, desc), "unable to render dot template")
}
