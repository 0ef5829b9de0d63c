// Package seedclient hands .torrent files to a download client and reads
// the metadata they carry.
package seedclient

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// Loader accepts a torrent for seeding from dir. It returns false when the
// client already has the torrent.
type Loader interface {
	Load(ctx context.Context, torrent []byte, dir string) (bool, error)
}

// Meta is the identifying data of a .torrent file.
type Meta struct {
	InfoHash string
	Name     string
	// Files maps slash-separated paths, including the top-level folder of
	// multi-file torrents, to sizes in bytes.
	Files map[string]int64
}

// Size is the total payload size.
func (m Meta) Size() int64 {
	var total int64
	for _, n := range m.Files {
		total += n
	}
	return total
}

// Inspect decodes a .torrent file.
func Inspect(torrent []byte) (Meta, error) {
	mi, err := metainfo.Load(bytes.NewReader(torrent))
	if err != nil {
		return Meta{}, fmt.Errorf("decode torrent: %w", err)
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return Meta{}, fmt.Errorf("decode torrent info: %w", err)
	}
	meta := Meta{
		InfoHash: mi.HashInfoBytes().HexString(),
		Name:     info.Name,
		Files:    make(map[string]int64),
	}
	if len(info.Files) == 0 {
		meta.Files[info.Name] = info.Length
		return meta, nil
	}
	for _, f := range info.Files {
		parts := f.Path
		if len(f.PathUtf8) > 0 {
			parts = f.PathUtf8
		}
		meta.Files[path.Join(info.Name, strings.Join(parts, "/"))] = f.Length
	}
	return meta, nil
}

// Missing returns the manifest paths absent from m.Files, such as matched
// paths the downloaded torrent does not declare.
func (m Meta) Missing(paths []string) []string {
	var missing []string
	for _, p := range paths {
		if _, ok := m.Files[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
