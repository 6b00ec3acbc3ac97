package app

import (
	"docgen/internal/core/config"
	"docgen/internal/core/errors"
	"docgen/internal/core/ports"
	"docgen/internal/engine/callgraph"
	"docgen/internal/engine/routes"
	"docgen/internal/output"
	"docgen/internal/shared/util"
	"fmt"
	"log/slog"
	"strings"
)

// Formats lists the renderings accepted by Render.
var Formats = []string{"tree", "dot", "mermaid", "plantuml", "tsv", "json"}

func (a *App) generatorFor(format string, cg *callgraph.CallGraph) (ports.DiagramGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "tree":
		return output.NewTreeGenerator(cg, a.filter), nil
	case "dot":
		return output.NewDOTGenerator(cg, a.filter), nil
	case "mermaid":
		return output.NewMermaidGenerator(cg, a.filter), nil
	case "plantuml":
		return output.NewPlantUMLGenerator(cg, a.filter), nil
	case "tsv":
		return output.NewTSVGenerator(cg, a.filter), nil
	case "json":
		return output.NewJSONGenerator(cg, a.filter), nil
	default:
		return nil, errors.New(errors.CodeValidationError,
			fmt.Sprintf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", ")))
	}
}

// Render produces cg in the named format with the configured external filter.
func (a *App) Render(format string, cg *callgraph.CallGraph) (string, error) {
	g, err := a.generatorFor(format, cg)
	if err != nil {
		return "", err
	}
	return g.Generate()
}

// GenerateOutputs writes each configured artifact and refreshes markdown
// injections.
func (a *App) GenerateOutputs(cg *callgraph.CallGraph, ir *routes.IR) error {
	artifacts := []struct {
		format string
		path   string
	}{
		{"dot", a.Config.Output.DOT},
		{"mermaid", a.Config.Output.Mermaid},
		{"plantuml", a.Config.Output.PlantUML},
		{"tsv", a.Config.Output.TSV},
		{"json", a.Config.Output.JSON},
	}
	for _, art := range artifacts {
		if strings.TrimSpace(art.path) == "" {
			continue
		}
		content, err := a.Render(art.format, cg)
		if err != nil {
			return err
		}
		if err := a.writeArtifact(art.path, content); err != nil {
			return err
		}
	}

	if path := strings.TrimSpace(a.Config.Output.OpenAPI); path != "" && ir != nil {
		doc, err := output.BuildOpenAPI(ir, output.OpenAPIInfo{
			Title:       a.Config.OpenAPI.Title,
			Version:     a.Config.OpenAPI.Version,
			Description: a.Config.OpenAPI.Description,
		})
		if err != nil {
			return err
		}
		data, err := output.MarshalOpenAPIYAML(doc)
		if err != nil {
			return err
		}
		if err := a.writeArtifact(path, string(data)); err != nil {
			return err
		}
	}

	for _, injection := range a.Config.Output.UpdateMarkdown {
		diagram, err := a.Render(injection.Format, cg)
		if err != nil {
			return err
		}
		target := config.ResolveRelative(a.Paths.ProjectRoot, injection.File)
		if err := output.InjectDiagram(target, injection.Marker, output.MarkdownBlock(injection.Format, diagram)); err != nil {
			return err
		}
		slog.Debug("markdown updated", "file", target, "marker", injection.Marker)
	}
	return nil
}

func (a *App) writeArtifact(path, content string) error {
	target := config.ResolveRelative(a.Paths.OutputDir, path)
	if err := util.WriteStringWithDirs(target, content, 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write output"), errors.CtxPath, target)
	}
	slog.Debug("output written", "path", target)
	return nil
}
