package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

const probeJSON = `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {"codec_type": "video", "codec_name": "h264", "width": 512, "height": 512,
     "avg_frame_rate": "25/1", "nb_frames": "78"}
  ],
  "format": {"duration": "3.120000"}
}`

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

// fakeBinaries writes shell scripts standing in for ffmpeg and ffprobe
func fakeBinaries(t *testing.T, probeOutput string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	dir := t.TempDir()
	ffmpeg := "#!/bin/sh\nexit 0\n"
	// PATH only holds the fakes, so stick to shell builtins
	ffprobe := "#!/bin/sh\nprintf '%s\\n' '" + probeOutput + "'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(ffmpeg), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffprobe"), []byte(ffprobe), 0o755))
	return dir
}

func TestCheckFFmpeg_AppendsDir(t *testing.T) {
	dir := fakeBinaries(t, probeJSON)
	t.Setenv("PATH", t.TempDir())

	require.NoError(t, CheckFFmpeg(dir))
	assert.Contains(t, os.Getenv("PATH"), dir)
}

func TestCheckFFmpeg_RelativeDir(t *testing.T) {
	bundled := fakeBinaries(t, probeJSON)
	work := t.TempDir()
	require.NoError(t, os.Rename(bundled, filepath.Join(work, "ffmpeg")))

	t.Chdir(work)
	t.Setenv("PATH", t.TempDir())

	require.NoError(t, CheckFFmpeg("./ffmpeg"))

	abs, err := filepath.Abs("ffmpeg")
	require.NoError(t, err)
	assert.Contains(t, filepath.SplitList(os.Getenv("PATH")), abs)
}

func TestCheckFFmpeg_AppendsOnce(t *testing.T) {
	dir := fakeBinaries(t, probeJSON)
	t.Setenv("PATH", t.TempDir())

	require.NoError(t, CheckFFmpeg(dir))
	require.NoError(t, CheckFFmpeg(dir))

	count := 0
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if entry == dir {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestOnPath(t *testing.T) {
	sep := string(os.PathListSeparator)

	assert.True(t, onPath("/usr/bin"+sep+"/opt/ffmpeg/", "/opt/ffmpeg"))
	assert.False(t, onPath("/opt/ffmpeg-old"+sep+"/usr/bin", "/opt/ffmpeg"))
	assert.False(t, onPath("", "/opt/ffmpeg"))
}

func TestCheckFFmpeg_Missing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	err := CheckFFmpeg(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.ErrorIs(t, err, portrait.ErrEnvironment)

	var envErr *portrait.EnvironmentError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, "ffmpeg", envErr.Binary)
}

func TestProbeVideo(t *testing.T) {
	t.Setenv("PATH", fakeBinaries(t, probeJSON))

	info, err := ProbeVideo(context.Background(), "d0.mp4")
	require.NoError(t, err)
	assert.Equal(t, 512, info.Width)
	assert.Equal(t, 512, info.Height)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, 78, info.Frames)
	assert.InDelta(t, 3.12, info.Duration, 1e-9)
	assert.Equal(t, "h264", info.Codec)
}

func TestProbeVideo_NoVideoStream(t *testing.T) {
	t.Setenv("PATH", fakeBinaries(t, `{"streams": [{"codec_type": "audio"}], "format": {}}`))

	_, err := ProbeVideo(context.Background(), "song.mp4")
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.001)
	assert.Equal(t, 25.0, parseRate("25"))
	assert.Equal(t, 0.0, parseRate("0/0"))
	assert.Equal(t, 0.0, parseRate("abc/1"))
}
