package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/ski-resort/internal/world"
)

// ErrNoSave is returned by LoadMap when no snapshot exists at the path.
var ErrNoSave = errors.New("no saved map")

// MapSave is the on-disk form of a grid: dimensions plus row-major tiles.
type MapSave struct {
	Width  int32        `json:"width"`
	Height int32        `json:"height"`
	Tiles  []world.Tile `json:"tiles"`
}

// NewMapSave captures a grid.
func NewMapSave(g *world.Grid) MapSave {
	return MapSave{
		Width:  int32(g.Width()),
		Height: int32(g.Height()),
		Tiles:  g.Tiles(),
	}
}

// Grid rebuilds the grid a save describes.
func (m MapSave) Grid() (*world.Grid, error) {
	return world.LoadTiles(int(m.Width), int(m.Height), m.Tiles)
}

// EncodeMap writes g as zstd-compressed JSON.
func EncodeMap(w io.Writer, g *world.Grid) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(NewMapSave(g)); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// DecodeMap reads a grid written by EncodeMap.
func DecodeMap(r io.Reader) (*world.Grid, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var save MapSave
	if err := json.NewDecoder(bufio.NewReaderSize(dec, 64*1024)).Decode(&save); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return save.Grid()
}

// SaveMap writes a snapshot of g to path, creating parent directories. The
// file is written beside the target and renamed into place.
func SaveMap(path string, g *world.Grid) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := EncodeMap(f, g); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode map: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	slog.Info("map saved", "path", path, "width", g.Width(), "height", g.Height())
	return nil
}

// LoadMap reads the snapshot at path.
func LoadMap(path string) (*world.Grid, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSave)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := DecodeMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// SaveExists reports whether a snapshot file is present at path.
func SaveExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
