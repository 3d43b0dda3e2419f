package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/trellislab/trellis/backend-go/internal/session"
)

// Handler serves sketch downloads. Exports are read-only, so no edit
// token is required.
type Handler struct {
	sketches  *session.Service
	svgMargin float64
	exportDir string
}

// NewHandler builds the export handler. exportDir is where DXF scratch
// files land; empty means the system temp directory.
func NewHandler(sketches *session.Service, svgMargin float64, exportDir string) *Handler {
	return &Handler{sketches: sketches, svgMargin: svgMargin, exportDir: exportDir}
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sketchID := vars["sketchId"]
	format := vars["format"]

	sess, err := h.sketches.Get(sketchID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "sketch not found", http.StatusNotFound)
			return
		}
		slog.Error("resolve sketch", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	name := sanitizeFilename(sess.Name)

	switch format {
	case "svg":
		var buf bytes.Buffer
		if err := WriteSVG(&buf, sess.Engine.Scene(), h.svgMargin); err != nil {
			slog.Error("render svg", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		serveBlob(w, &buf, "image/svg+xml", name, format)

	case "obj":
		sk, _ := sess.Engine.Snapshot()
		var buf bytes.Buffer
		if err := WriteOBJ(&buf, name, sk.LiveFaces()); err != nil {
			slog.Error("render obj", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		serveBlob(w, &buf, "model/obj", name, format)

	case "dxf":
		h.serveDXF(w, sess, name)

	default:
		http.Error(w, "invalid format: must be svg, obj, or dxf", http.StatusBadRequest)
		return
	}

	slog.Info("export complete", "sketch", sketchID, "format", format)
}

func (h *Handler) serveDXF(w http.ResponseWriter, sess *session.Session, name string) {
	tempDir, err := os.MkdirTemp(h.exportDir, "trellis-export-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tempDir)

	outPath := filepath.Join(tempDir, "sketch.dxf")
	if err := WriteDXF(outPath, sess.Engine.Scene()); err != nil {
		slog.Error("render dxf", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outFile, err := os.Open(outPath)
	if err != nil {
		slog.Error("open output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer outFile.Close()

	stat, err := outFile.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/vnd.dxf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.dxf"`, name))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, outFile)
}

func serveBlob(w http.ResponseWriter, buf *bytes.Buffer, contentType, name, ext string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, ext))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func sanitizeFilename(name string) string {
	if name == "" {
		return "sketch"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
