// Package frames models a clip as a directory of numbered image files
// (PNG or JPEG), providing the frame access boundary for analysis and the
// sink for corrected frames.
package frames

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/steadyframe/stabilize/internal/warp"
)

// Clip reads the frames of one clip in index order. Frame order is the
// lexical order of the file names, so zero-padded numbering is expected
// (frame_0001.png, frame_0002.png, ...).
type Clip struct {
	dir   string
	names []string
}

// OpenClip scans dir for image frames. It fails if the directory holds no
// decodable frame files.
func OpenClip(dir string) (*Clip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("opening clip directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no frame images found in %s", dir)
	}
	sort.Strings(names)

	return &Clip{dir: dir, names: names}, nil
}

// Len returns the number of frames in the clip.
func (c *Clip) Len() int {
	return len(c.names)
}

// Name returns the file name of frame i.
func (c *Clip) Name(i int) string {
	return c.names[i]
}

// Image decodes the color buffer of frame i.
func (c *Clip) Image(i int) (image.Image, error) {
	if i < 0 || i >= len(c.names) {
		return nil, fmt.Errorf("frame %d out of range (clip has %d frames)", i, len(c.names))
	}
	path := filepath.Join(c.dir, c.names[i])
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame %d: %w", i, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame %s: %w", path, err)
	}
	return img, nil
}

// Gray returns the grayscale view of frame i, the input the motion
// estimator consumes.
func (c *Clip) Gray(i int) (*image.Gray, error) {
	img, err := c.Image(i)
	if err != nil {
		return nil, err
	}
	return warp.Grayscale(img), nil
}

// Sink writes corrected frames into an output directory, preserving the
// source frame names so applied clips stay aligned with their originals.
type Sink struct {
	dir string
}

// NewSink creates the output directory if needed.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// WritePNG encodes img to name (extension replaced with .png) in the sink
// directory.
func (s *Sink) WritePNG(name string, img image.Image) error {
	base := strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	path := filepath.Join(s.dir, base)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output frame: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding output frame %s: %w", path, err)
	}
	return f.Close()
}
