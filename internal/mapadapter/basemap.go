package mapadapter

import (
	"fmt"
	"os"
	"path/filepath"
)

// BasemapFile is a tiled base map available under the data directory.
type BasemapFile struct {
	Name string `json:"name" doc:"Basemap file name" example:"satellite.pmtiles"`
	Size string `json:"size" doc:"Human-readable file size" example:"5.4 MB"`
}

// Basemaps lists the tile files the viewer can use as its base map.
func (a *Adapter) Basemaps() ([]BasemapFile, error) {
	entries, err := os.ReadDir(a.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BasemapFile{}, nil
		}
		return nil, err
	}

	var files []BasemapFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".pmtiles" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, BasemapFile{
			Name: entry.Name(),
			Size: formatSize(info.Size()),
		})
	}

	return files, nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
