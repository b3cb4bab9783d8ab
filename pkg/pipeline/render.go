package pipeline

import (
	"fmt"

	"github.com/matzehuels/crewviz/pkg/render"
	"github.com/matzehuels/crewviz/pkg/render/nodelink"
	"github.com/matzehuels/crewviz/pkg/render/sink"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// Render generates output artifacts for a positioned graph in the requested
// formats. The SVG is drawn at most once and reused for PNG and PDF.
func Render(g workflow.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = renderSVG(g, opts)
		return svg, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = workflow.MarshalGraph(g)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(g, dotOptions(opts)))
		case FormatSVG:
			data, err = svgOnce()
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(data, opts.Scale)
			}
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(data)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderSVG(g workflow.Graph, opts Options) ([]byte, error) {
	if opts.Renderer == RendererGraphviz {
		return nodelink.RenderSVG(nodelink.ToDOT(g, dotOptions(opts)))
	}
	svgOpts := []sink.SVGOption{sink.WithSizes(opts.Sizes())}
	if opts.Detailed {
		svgOpts = append(svgOpts, sink.WithDetails())
	}
	return sink.RenderSVG(g, svgOpts...), nil
}

func dotOptions(opts Options) nodelink.Options {
	return nodelink.Options{Detailed: opts.Detailed, Sizes: opts.Sizes()}
}
