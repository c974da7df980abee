package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryankumar/node-upgrader/pkg/version"
)

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "human readable",
			args:     []string{"version"},
			contains: []string{"Node Upgrader", "Version:", version.Version},
		},
		{
			name:     "yaml",
			args:     []string{"version", "-o", "yaml"},
			contains: []string{"version: " + version.Version, "platform:"},
		},
		{
			name:     "table",
			args:     []string{"version", "-o", "table"},
			contains: []string{"COMPONENT", "Go Version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd(newApp())
			out := &bytes.Buffer{}
			cmd.SetOut(out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestVersionCommandJSON(t *testing.T) {
	cmd := newRootCmd(newApp())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version", "-o", "json"})

	require.NoError(t, cmd.Execute())

	var info version.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, version.Get(), info)
}

func TestVersionCommandUnknownFormat(t *testing.T) {
	cmd := newRootCmd(newApp())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"version", "-o", "xml"})

	assert.Error(t, cmd.Execute())
}
