package sprites

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Toolchain shells out to ffmpeg/ffprobe for frame probing and spritesheet
// rendering.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
}

func NewToolchain() *Toolchain {
	return &Toolchain{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}
}

// Check verifies both binaries are on PATH. Called before any conversion so a
// missing tool fails the deployment up front instead of halfway through.
func (t *Toolchain) Check() error {
	for _, tool := range []string{t.FFmpeg, t.FFprobe} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("required tool '%s' not found: %w", tool, err)
		}
	}
	return nil
}

// PreciseFrames decodes the first video stream and counts its frames.
func (t *Toolchain) PreciseFrames(path string) (int, error) {
	return t.probe(path, "-count_frames", "stream=nb_read_frames")
}

// DeclaredFrames reads the frame count the container claims, without decoding.
func (t *Toolchain) DeclaredFrames(path string) (int, error) {
	return t.probe(path, "", "stream=nb_frames")
}

func (t *Toolchain) probe(path, extraFlag, entries string) (int, error) {
	args := []string{"-v", "error", "-select_streams", "v:0"}
	if extraFlag != "" {
		args = append(args, extraFlag)
	}
	args = append(args,
		"-show_entries", entries,
		"-of", "default=nokey=1:noprint_wrappers=1",
		path,
	)
	out, err := exec.Command(t.FFprobe, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("could not probe '%s': %w", path, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("unparsable frame count for '%s': %w", path, err)
	}
	return n, nil
}

// Convert scales the animation onto a size x size canvas (aspect preserved,
// padded) and tiles all frames into a single-row BMP spritesheet.
func (t *Toolchain) Convert(src, dst string, size, frames int) error {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,tile=%dx1",
		size, size, size, size, frames,
	)
	cmd := exec.Command(t.FFmpeg,
		"-v", "error",
		"-y",
		"-i", src,
		"-vf", filter,
		"-frames:v", "1",
		dst,
	)
	err := withSpinner(fmt.Sprintf("rendering %s", dst), func() error {
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("ffmpeg failed for '%s': %w: %s", src, err, strings.TrimSpace(string(out)))
		}
		return nil
	})
	return err
}
