package output

import (
	"context"
	"docgen/internal/core/errors"
	"docgen/internal/engine/routes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

const openAPIVersion = "3.0.3"

type OpenAPIInfo struct {
	Title       string
	Version     string
	Description string
}

func (i OpenAPIInfo) withDefaults() OpenAPIInfo {
	if strings.TrimSpace(i.Title) == "" {
		i.Title = "Generated API"
	}
	if strings.TrimSpace(i.Version) == "" {
		i.Version = "1.0.0"
	}
	return i
}

var colonParam = regexp.MustCompile(`/:(\w+)`)

// ToOpenAPIPath rewrites axum "/:id" segments to OpenAPI "/{id}" templates.
func ToOpenAPIPath(path string) string {
	return colonParam.ReplaceAllString(path, "/{$1}")
}

// BuildOpenAPI turns extracted routes into a validated OpenAPI document.
func BuildOpenAPI(ir *routes.IR, info OpenAPIInfo) (*openapi3.T, error) {
	info = info.withDefaults()
	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
	}

	usedIDs := make(map[string]bool)
	for _, r := range ir.Routes {
		path := ToOpenAPIPath(r.Path)
		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}

		op := openapi3.NewOperation()
		op.OperationID = operationID(r, usedIDs)
		op.Responses = openapi3.NewResponses(openapi3.WithStatus(200, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Successful operation"),
		}))
		for _, p := range r.Parameters {
			param := openapi3.NewPathParameter(p.Name).WithSchema(openapi3.NewStringSchema())
			if p.In == routes.InQuery {
				param = openapi3.NewQueryParameter(p.Name).WithSchema(openapi3.NewStringSchema())
			}
			op.AddParameter(param)
		}
		item.SetOperation(string(r.Method), op)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "generated openapi document is invalid"), errors.CtxOperation, "build openapi")
	}
	return doc, nil
}

// operationID derives a unique id from the handler's last path segment.
func operationID(r routes.Route, used map[string]bool) string {
	id := r.Handler
	if i := strings.LastIndex(id, "::"); i >= 0 {
		id = id[i+2:]
	}
	id = sanitizeMermaidID(strings.TrimSpace(id))
	if used[id] {
		id = fmt.Sprintf("%s_%s", id, strings.ToLower(string(r.Method)))
	}
	for base, n := id, 2; used[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	used[id] = true
	return id
}

// MarshalOpenAPIYAML renders doc as block-style YAML, keeping the field order
// of the JSON encoding.
func MarshalOpenAPIYAML(doc *openapi3.T) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal openapi document")
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "convert openapi document to yaml")
	}
	clearStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode openapi yaml")
	}
	return out, nil
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
