package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"bqm/internal/tool"
)

// NewUserScript returns the Custom-group tool that runs an external
// command against the item's current bytes on disk, the escape hatch
// digiKam's "User Shell Script" batch tool provides for anything the
// built-in tools don't cover. The command receives the working file path
// as its final argument and may rewrite it in place; stderr is captured
// into the returned error when the command fails, stdout is discarded.
func NewUserScript() tool.Instance {
	return &userScriptTool{base: base{
		name:    "UserScript",
		version: 1,
		group:   tool.GroupCustom,
		settings: tool.Settings{
			"command": tool.StringValue(""),
			"args":    tool.MapValue(tool.Settings{}),
		},
	}}
}

type userScriptTool struct{ base }

func (t *userScriptTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	if s.String("command", "") == "" {
		return nil, &tool.SettingsError{Tool: t.name, Key: "command", Reason: "must not be empty"}
	}
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

func (t *userScriptTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *userScriptTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	command := t.settings.String("command", "")
	if command == "" {
		return ac, &tool.SettingsError{Tool: t.name, Key: "command", Reason: "must not be empty"}
	}

	scratch := filepath.Join(ac.WorkDir, "userscript-input"+filepath.Ext(ac.SrcPath))
	if err := os.WriteFile(scratch, ac.Image.Data, 0o644); err != nil {
		return ac, fmt.Errorf("userscript: write scratch file: %w", err)
	}
	defer os.Remove(scratch)

	args := settingsStrings(t.settings["args"])
	args = append(args, scratch)

	cmd := exec.CommandContext(ctx, command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return ac, fmt.Errorf("userscript: %s: %w: %s", command, err, stderr.String())
	}

	out, err := os.ReadFile(scratch)
	if err != nil {
		return ac, fmt.Errorf("userscript: read scratch file: %w", err)
	}
	ac.Image.Data = out
	return ac, nil
}

func settingsStrings(v tool.Value) []string {
	if v.Kind != tool.KindMap {
		return nil
	}
	out := make([]string, 0, len(v.Map))
	for _, arg := range v.Map {
		if arg.Kind == tool.KindString {
			out = append(out, arg.Str)
		}
	}
	return out
}
