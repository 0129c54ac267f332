// Package site serves recipe images and prepares compressed variants of them.
package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/okian/smoothiebar/pkg/metrics"
)

// ErrCompress wraps every cwebp failure returned by Compressor.Compress.
var ErrCompress = errors.New("asset compression failed")

// AssetsPrefix is the URL prefix images are served under.
const AssetsPrefix = "/assets/"

const (
	webpExt          = ".webp"
	compressedSuffix = "_compressed" + webpExt
)

// CompressedName returns the compressed variant name for a .webp file.
// ok is false for other files and for names that already are variants.
func CompressedName(name string) (string, bool) {
	if !strings.HasSuffix(name, webpExt) || strings.HasSuffix(name, compressedSuffix) {
		return "", false
	}
	return strings.TrimSuffix(name, webpExt) + compressedSuffix, true
}

// AssetsHandler serves files from a directory, preferring compressed variants.
type AssetsHandler struct {
	root fs.FS
}

// NewAssetsHandler creates a handler rooted at dir.
func NewAssetsHandler(dir string) *AssetsHandler {
	return &AssetsHandler{root: os.DirFS(dir)}
}

// Register attaches the assets route to mux.
func Register(_ context.Context, mux *http.ServeMux, dir string) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle(AssetsPrefix, NewAssetsHandler(dir))
}

// ServeHTTP handles GET /assets/{name}.
func (h *AssetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(r.URL.Path, AssetsPrefix)), "/")
	if name == "" || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	variant := metrics.AssetVariantOriginal
	if compressed, ok := CompressedName(name); ok && h.isFile(compressed) {
		name = compressed
		variant = metrics.AssetVariantCompressed
	}
	if !h.isFile(name) {
		http.NotFound(w, r)
		return
	}

	metrics.RecordAssetRequest(variant)
	http.ServeFileFS(w, r, h.root, name)
}

func (h *AssetsHandler) isFile(name string) bool {
	info, err := fs.Stat(h.root, name)
	return err == nil && info.Mode().IsRegular()
}
