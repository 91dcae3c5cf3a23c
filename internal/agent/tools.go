package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	"github.com/kiranshivaraju/nichescout/internal/connector"
)

// Tools the agent must never be offered.
const (
	RemoteBashTool      = "COMPOSIO_REMOTE_BASH_TOOL"
	RemoteWorkbenchTool = "COMPOSIO_REMOTE_WORKBENCH"
)

var deniedTools = map[string]bool{
	RemoteBashTool:      true,
	RemoteWorkbenchTool: true,
}

// FilterTools returns a copy of tools without the denied tools.
func FilterTools(tools map[string]connector.ToolSpec) map[string]connector.ToolSpec {
	out := make(map[string]connector.ToolSpec, len(tools))
	for name, spec := range tools {
		if deniedTools[name] {
			continue
		}
		out[name] = spec
	}
	return out
}

// toolInfos converts tool specs to model tool definitions, sorted by name.
// A schema that does not decode is replaced by an open object schema.
func toolInfos(tools map[string]connector.ToolSpec, logger *slog.Logger) []*schema.ToolInfo {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		spec := tools[name]
		params, err := paramsSchema(spec.Parameters)
		if err != nil {
			logger.Warn("tool schema not usable, binding open schema", "tool", name, "error", err)
			params = &jsonschema.Schema{Type: "object"}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        name,
			Desc:        spec.Description,
			ParamsOneOf: schema.NewParamsOneOfByJSONSchema(params),
		})
	}
	return infos
}

func paramsSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToolSchema, err)
	}
	if s.Type == "" {
		s.Type = "object"
	}
	return &s, nil
}
