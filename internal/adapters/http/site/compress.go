package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner. Command output is included in the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Compressor writes a resized "_compressed.webp" next to every .webp image.
type Compressor struct {
	dir     string
	binary  string
	quality int
	width   int
	height  int
	force   bool
	runner  Runner
	logger  logger.Logger
}

// CompressorOption applies a configuration option to the Compressor.
type CompressorOption func(*Compressor)

// WithQuality sets the cwebp -q value.
func WithQuality(q int) CompressorOption {
	return func(c *Compressor) {
		if q > 0 && q <= 100 {
			c.quality = q
		}
	}
}

// WithSize sets the cwebp -resize box.
func WithSize(width, height int) CompressorOption {
	return func(c *Compressor) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// WithForce recompresses even when the variant is newer than its source.
func WithForce(force bool) CompressorOption {
	return func(c *Compressor) {
		c.force = force
	}
}

// WithRunner replaces the command runner.
func WithRunner(r Runner) CompressorOption {
	return func(c *Compressor) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithBinary sets the cwebp executable.
func WithBinary(path string) CompressorOption {
	return func(c *Compressor) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithCompressorLogger sets a custom logger.
func WithCompressorLogger(l logger.Logger) CompressorOption {
	return func(c *Compressor) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCompressor creates a compressor for the images directly under dir.
func NewCompressor(dir string, opts ...CompressorOption) *Compressor {
	c := &Compressor{
		dir:     dir,
		binary:  "cwebp",
		quality: 80,
		width:   500,
		height:  500,
		runner:  ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("assets")
	}
	return c
}

// Compress processes every source image and returns how many variants were
// written. Failures do not stop the run; they are joined into the error.
func (c *Compressor) Compress(ctx context.Context) (int, error) {
	sources, err := filepath.Glob(filepath.Join(c.dir, "*"+webpExt))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCompress, err)
	}

	written := 0
	var errs []error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		dst, ok := CompressedName(src)
		if !ok {
			continue
		}
		if !c.force && upToDate(src, dst) {
			continue
		}

		args := []string{
			"-q", strconv.Itoa(c.quality),
			"-resize", strconv.Itoa(c.width), strconv.Itoa(c.height),
			src, "-o", dst,
		}
		if err := c.runner.Run(ctx, c.binary, args...); err != nil {
			metrics.RecordAssetCompressError()
			c.logger.Warn(ctx, "image compression failed", logger.String("src", src), logger.Error(err))
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrCompress, src, err))
			continue
		}
		metrics.RecordAssetCompressed()
		written++
		c.logger.Debug(ctx, "image compressed", logger.String("src", src), logger.String("dst", dst))
	}

	return written, errors.Join(errs...)
}

func upToDate(src, dst string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return !di.ModTime().Before(si.ModTime())
}
