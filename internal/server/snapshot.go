package server

import (
	"image"
	"net/http"
	"strconv"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/ayusman/abhinaya/internal/capture"
)

// SnapshotHandler captures a single camera frame and returns it as lossless
// WebP. An optional width query parameter downscales the frame, preserving
// aspect ratio.
type SnapshotHandler struct {
	camera capture.Camera
}

// NewSnapshotHandler creates a new SnapshotHandler with the given camera.
func NewSnapshotHandler(camera capture.Camera) *SnapshotHandler {
	return &SnapshotHandler{camera: camera}
}

// ServeHTTP handles GET /api/snapshot.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frame, err := h.camera.ReadFrame()
	if err != nil {
		http.Error(w, "Failed to read frame", http.StatusServiceUnavailable)
		return
	}

	img, err := frame.ToImage()
	frame.Close()
	if err != nil {
		http.Error(w, "Failed to convert frame", http.StatusInternalServerError)
		return
	}

	if widthParam := r.URL.Query().Get("width"); widthParam != "" {
		width, err := strconv.Atoi(widthParam)
		if err != nil || width <= 0 {
			http.Error(w, "Invalid width", http.StatusBadRequest)
			return
		}
		img = resize(img, width)
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-cache")
	if err := nativewebp.Encode(w, img, nil); err != nil {
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
	}
}

// resize scales img to the given width, keeping aspect ratio.
func resize(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dx() == width {
		return img
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
