package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/internal/storage"
	"github.com/galaxygst/galaxygst/internal/storage/websocket"
	"github.com/galaxygst/galaxygst/pkg/core"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_NoArgs(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "record")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "record"`)
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, Version)
}

func TestDolphin_InvalidAddress(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "dolphin", "--config", dir, "--address", "0xZZZZ", filepath.Join(dir, "out"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "invalid recorder address")
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestDolphin_InvalidAddressFromConfig(t *testing.T) {
	dir := t.TempDir()
	body := `{ "capture": { "address": "80003FF8h" } }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "galaxygst.cfg.json"), []byte(body), 0o644))

	code, _, stderr := runCLI(t, "dolphin", "--config", dir, filepath.Join(dir, "out"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "80003FF8h")
}

func TestDolphin_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "dolphin", "--config", dir, "--format", "v9", filepath.Join(dir, "out"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown GST format "v9"`)
}

func TestDolphin_MissingOutput(t *testing.T) {
	code, _, stderr := runCLI(t, "dolphin", "--config", t.TempDir())
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "expected exactly one output folder")
}

func writeTrace(t *testing.T, snaps ...core.Snapshot) string {
	t.Helper()
	var buf bytes.Buffer
	w := gst.NewWriter(&buf)
	enc := gst.NewEncoder(gst.ProfileV2, core.GhostTypePichanRacer)
	for i := range snaps {
		require.NoError(t, w.WritePacket(enc.Encode(&snaps[i])))
	}
	path := filepath.Join(t.TempDir(), "PichanRacerRaceData001.gst")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestInspect(t *testing.T) {
	path := writeTrace(t,
		core.Snapshot{Type: core.GhostTypePichanRacer, ActionName: "Run"},
		core.Snapshot{Type: core.GhostTypePichanRacer, ActionName: "Run", Position: core.Vec3i{X: 30, Z: 40}},
		core.Snapshot{Type: core.GhostTypePichanRacer, ActionName: "Run", Position: core.Vec3i{X: 30, Y: 10, Z: 40}},
	)

	code, stdout, stderr := runCLI(t, "inspect", path)
	require.Equal(t, exitOK, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "action=Run")
	assert.Contains(t, lines[1], "pos=(30.0, 0.0, 40.0)")
	assert.Contains(t, lines[2], "pos=(30.0, 10.0, 40.0)")
	assert.Contains(t, lines[3], "3 frames")
	assert.Contains(t, lines[3], "path length 50.0, climb 10.0")
}

func TestInspect_Quiet(t *testing.T) {
	path := writeTrace(t, core.Snapshot{Type: core.GhostTypePichanRacer, ActionName: "Wait"})

	code, stdout, _ := runCLI(t, "inspect", "-q", path)
	require.Equal(t, exitOK, code)
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
	assert.Contains(t, stdout, "1 frames")
}

func TestInspect_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gst")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x08, 0x00}, 0o644))

	code, _, stderr := runCLI(t, "inspect", path)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "truncated frame")
}

func TestInspect_MissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "inspect", filepath.Join(t.TempDir(), "nope.gst"))
	assert.Equal(t, exitFailure, code)
	assert.NotEmpty(t, stderr)
}

func TestDroppedCounter(t *testing.T) {
	assert.Nil(t, droppedCounter(storage.Nop{}))

	ws := websocket.New(websocket.Config{URL: "ws://127.0.0.1:1/ws"}, nil)
	counter := droppedCounter(storage.Multi{storage.Nop{}, ws})
	require.NotNil(t, counter)
	assert.Equal(t, uint64(0), counter())
}
