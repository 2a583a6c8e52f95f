// Package gmailctl reads compiled gmailctl filter exports so existing
// declarative Gmail filters can seed a cleanup policy.
package gmailctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Export mirrors the JSON payload of `gmailctl compile --format=json`.
type Export struct {
	Filters []Filter `json:"filters"`
	Labels  []Label  `json:"labels"`
}

// Filter is a single compiled Gmail filter.
type Filter struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Criteria Criteria `json:"criteria"`
	Action   Action   `json:"action"`
}

// Criteria is the subset of Gmail search predicates we translate into
// cleanup rule conditions.
type Criteria struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Query   string `json:"query,omitempty"`
	List    string `json:"list,omitempty"`
}

// Action holds the label mutations a filter performs.
type Action struct {
	AddLabelIDs    []string `json:"addLabelIds,omitempty"`
	RemoveLabelIDs []string `json:"removeLabelIds,omitempty"`
	Forward        string   `json:"forward,omitempty"`
}

// Label is Gmail label metadata from the compile output.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Exporter shells out to the gmailctl binary for a compiled filter export.
type Exporter struct {
	Binary    string // defaults to "gmailctl" on PATH
	ConfigDir string
}

// Export invokes gmailctl and decodes the JSON it prints.
func (e Exporter) Export(ctx context.Context) (Export, error) {
	bin := e.Binary
	if bin == "" {
		bin = "gmailctl"
	}
	args := []string{"compile", "--format=json"}
	if strings.TrimSpace(e.ConfigDir) != "" {
		args = append(args, "--config", e.ConfigDir)
	}
	cmd := exec.CommandContext(ctx, bin, args...) // #nosec G204 - binary chosen by the operator
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Export{}, fmt.Errorf("run gmailctl: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	var export Export
	if decodeErr := json.Unmarshal(out, &export); decodeErr != nil {
		return Export{}, fmt.Errorf("decode gmailctl output: %w", decodeErr)
	}
	if len(export.Filters) == 0 && len(export.Labels) == 0 {
		return Export{}, errors.New("gmailctl returned no filters or labels")
	}
	return export, nil
}
