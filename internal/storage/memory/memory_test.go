package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxygst/galaxygst/internal/config"
	v1 "github.com/galaxygst/galaxygst/internal/storage/memory/export/v1"
	"github.com/galaxygst/galaxygst/pkg/core"
)

func newSession(t *testing.T) *core.Session {
	t.Helper()
	return &core.Session{
		StageName:  "KoopaJrShipStage",
		DataIndex:  4,
		GhostType:  core.GhostTypePichanRacer,
		GameID:     "SB4P",
		Format:     "v2",
		OutputPath: filepath.Join(t.TempDir(), "PichanRacerRaceData004.gst"),
		StartTime:  time.Now().UTC(),
	}
}

func record(t *testing.T, b *Backend, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, b.RecordFrame(&core.FrameRecord{
			PacketIndex: uint32(i),
			UpdateFrame: uint32(100 + i),
			Flags:       0x0001,
			PayloadSize: 6,
			Position:    core.Vec3f{X: float32(i), Y: 0, Z: 0},
			Payload:     []byte{1, 2, 3, 4, 5, 6},
		}))
	}
}

func summaryOf(s *core.Session, frames uint32) *core.SessionSummary {
	return &core.SessionSummary{
		Session:  *s,
		Frames:   frames,
		Duration: core.ApproxDuration(frames),
		Outcome:  core.OutcomeStopped,
		EndTime:  time.Now().UTC(),
	}
}

func TestBackend_ExportJSON(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())
	defer b.Close()

	s := newSession(t)
	require.NoError(t, b.StartSession(s))
	record(t, b, 3)
	require.NoError(t, b.EndSession(summaryOf(s, 3)))

	path := b.ExportedFilePath()
	assert.Equal(t, s.OutputPath+".json", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var m v1.Manifest
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, v1.Version, m.Version)
	assert.Equal(t, "KoopaJrShipStage", m.Session.StageName)
	assert.Equal(t, core.OutcomeStopped, m.Outcome)
	require.Len(t, m.Packets, 3)
	assert.Equal(t, uint32(102), m.Packets[2].UpdateFrame)
	assert.Equal(t, 18, m.PayloadBytes)
	assert.InDelta(t, 2.0, m.Path.Length, 1e-6)
}

func TestBackend_ExportGzip(t *testing.T) {
	b := New(config.MemoryConfig{CompressOutput: true})

	s := newSession(t)
	require.NoError(t, b.StartSession(s))
	record(t, b, 2)
	require.NoError(t, b.EndSession(summaryOf(s, 2)))

	path := b.ExportedFilePath()
	assert.Equal(t, s.OutputPath+".json.gz", path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var m v1.Manifest
	require.NoError(t, json.NewDecoder(gz).Decode(&m))
	assert.Equal(t, uint32(2), m.Frames)
	assert.Len(t, m.Packets, 2)
}

func TestBackend_NoSession(t *testing.T) {
	b := New(config.MemoryConfig{})

	assert.ErrorIs(t, b.RecordFrame(&core.FrameRecord{}), errNoSession)
	assert.ErrorIs(t, b.EndSession(&core.SessionSummary{}), errNoSession)
	assert.Empty(t, b.ExportedFilePath())
}

func TestBackend_ManifestOfRunningSession(t *testing.T) {
	b := New(config.MemoryConfig{})

	_, ok := b.Manifest()
	assert.False(t, ok)

	s := newSession(t)
	require.NoError(t, b.StartSession(s))
	record(t, b, 60)

	m, ok := b.Manifest()
	require.True(t, ok)
	assert.Equal(t, uint32(60), m.Frames)
	assert.InDelta(t, 1.0, m.DurationSeconds, 1e-9)
}

func TestBackend_SessionIsForgottenAfterEnd(t *testing.T) {
	b := New(config.MemoryConfig{})

	s := newSession(t)
	require.NoError(t, b.StartSession(s))
	record(t, b, 1)
	require.NoError(t, b.EndSession(summaryOf(s, 1)))

	_, ok := b.Manifest()
	assert.False(t, ok)
	assert.ErrorIs(t, b.RecordFrame(&core.FrameRecord{}), errNoSession)
}

func TestBackend_ExportError(t *testing.T) {
	b := New(config.MemoryConfig{})

	s := newSession(t)
	s.OutputPath = filepath.Join(t.TempDir(), "missing", "ghost.gst")
	require.NoError(t, b.StartSession(s))

	err := b.EndSession(summaryOf(s, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exporting session manifest")
}
