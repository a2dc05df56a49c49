package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INSANE0777/AIS-GARDEN/internal/garden"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

func TestPromptName_SkipsBlankLines(t *testing.T) {
	var out bytes.Buffer
	name, err := promptName(strings.NewReader("\n   \n  Ada  \n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
	assert.Equal(t, 3, strings.Count(out.String(), "What should we call you?"))
}

func TestPromptName_EOF(t *testing.T) {
	_, err := promptName(strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, garden.ErrEmptyName)
}

func TestPrintGallery(t *testing.T) {
	var out bytes.Buffer
	err := printGallery(&out, []state.Flower{
		{ID: "f-2", Author: "Ada", Color: state.Pink, Position: state.Position{X: 10, Y: 20}, CreatedAt: time.Unix(200, 0)},
		{ID: "f-1", Author: garden.AnonymousAuthor, Color: state.Green, Position: state.Position{X: 55.5, Y: 90}, CreatedAt: time.Unix(100, 0)},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PLANTED"))
	assert.Contains(t, lines[1], "Ada")
	assert.Contains(t, lines[1], "(10, 20)")
	assert.Contains(t, lines[2], "Anonymous")
	assert.Contains(t, lines[2], "f-1")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "secretgarden dev\n", out.String())
}
