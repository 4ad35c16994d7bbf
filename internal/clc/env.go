package clc

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

const envTemplateText = `{{range .Entries}}{{.Name | upper}}={{.Value}}
{{end}}`

var envTemplate = template.Must(
	template.New("clc-env").Funcs(sprig.TxtFuncMap()).Parse(envTemplateText),
)

// BuildEnv assembles the environment passed to a CLC command:
// SA_AMF_COMPONENT_NAME, NCS_ENV_NODE_ID, OSAF_COMPONENT_ERROR_SOURCE
// (CLEANUP only), the component's configured env list, and — for NPI
// components with exactly one CSI assigned — each CSI attribute as
// name=value with duplicate names rejected (first value wins, logged).
func BuildEnv(comp *model.Component, nodeID string, cmd model.CLCCommand, errSrc model.ComponentErrorSource, csis []*model.CSI) []string {
	seen := make(map[string]bool)
	var entries []model.Attribute

	add := func(name, value string) {
		if seen[name] {
			logging.Warn("CLC", "duplicate environment entry %q for component %s, first value wins", name, comp.Name)
			return
		}
		seen[name] = true
		entries = append(entries, model.Attribute{Name: name, Value: value})
	}

	add("SA_AMF_COMPONENT_NAME", comp.Name)
	add("NCS_ENV_NODE_ID", nodeID)

	if cmd == model.CLCCleanup {
		add("OSAF_COMPONENT_ERROR_SOURCE", strconv.Itoa(int(errSrc)))
	}

	for _, e := range comp.EnvList {
		add(e.Name, e.Value)
	}

	if comp.IsNPI() && len(csis) == 1 {
		for _, attr := range csis[0].Attributes {
			add(attr.Name, attr.Value)
		}
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s=%s", e.Name, e.Value))
	}
	return out
}

// RenderEnvBlock produces a human-readable dump of the computed environment
// for audit logging before a CLC command is launched, rendered through a
// text/template + sprig funcmap (uppercasing the key column) rather than
// hand-built string concatenation.
func RenderEnvBlock(entries []model.Attribute) (string, error) {
	var buf bytes.Buffer
	data := struct{ Entries []model.Attribute }{Entries: entries}
	if err := envTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render clc env block: %w", err)
	}
	return buf.String(), nil
}
