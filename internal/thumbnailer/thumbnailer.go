package thumbnailer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"

	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// Generator produces JPEG previews bounded by a maximum dimension. Images and
// gifs are decoded in-process; videos go through ffmpeg to extract the first
// frame.
type Generator struct {
	maxDimension int
}

// compile-time check
var _ port.Thumbnailer = (*Generator)(nil)

func New(maxDimension int) *Generator {
	return &Generator{maxDimension: maxDimension}
}

func (g *Generator) Supported(mt model.MediaType) bool {
	switch mt {
	case model.MediaTypeImage, model.MediaTypeGif, model.MediaTypeVideo:
		return true
	default:
		return false
	}
}

func (g *Generator) Generate(ctx context.Context, mt model.MediaType, src []byte) ([]byte, error) {
	switch mt {
	case model.MediaTypeImage, model.MediaTypeGif:
		return g.fromImageBytes(src)
	case model.MediaTypeVideo:
		frame, err := extractFirstFrame(ctx, src)
		if err != nil {
			return nil, err
		}
		return g.fromImageBytes(frame)
	default:
		return nil, fmt.Errorf("no thumbnail support for media type %q", mt)
	}
}

func (g *Generator) fromImageBytes(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	thumb := imaging.Fit(img, g.maxDimension, g.maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func extractFirstFrame(ctx context.Context, src []byte) ([]byte, error) {
	dir, err := os.MkdirTemp(os.TempDir(), "mcache-video")
	if err != nil {
		return nil, fmt.Errorf("error creating temporary directory: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "i.mp4")
	out := filepath.Join(dir, "o.png")

	if err := os.WriteFile(in, src, 0o640); err != nil {
		return nil, fmt.Errorf("error writing temp video file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", in, "-vf", `select=eq(n\,0)`, "-frames:v", "1", out)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("error extracting video frame: %w", err)
	}

	frame, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("error reading extracted frame: %w", err)
	}
	return frame, nil
}
