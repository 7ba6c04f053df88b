package orchestrators

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"goaliegen/internal/adapters/analytics"
	domainAnalytics "goaliegen/internal/domain/analytics"
	"goaliegen/internal/domain/material"
)

// DownloadMaterialInput names a catalogue file.
type DownloadMaterialInput struct {
	FileName string
}

// DownloadMaterialResult is a material and its bytes.
type DownloadMaterialResult struct {
	Material material.Material
	Data     []byte
}

// DownloadMaterialDeps holds dependencies for ExecuteDownloadMaterial.
type DownloadMaterialDeps struct {
	Files    fs.FS
	Recorder domainAnalytics.Recorder
	Observer Observer // optional
}

// ExecuteDownloadMaterial reads a pre-made material from Files.
// PRE: input.FileName is a catalogue file name
// POST: returns material.ErrUnknownMaterial for names outside the catalogue
// and an error matching fs.ErrNotExist when the file is missing on disk
func ExecuteDownloadMaterial(ctx context.Context, input DownloadMaterialInput, deps DownloadMaterialDeps) (DownloadMaterialResult, error) {
	m, err := material.Find(input.FileName)
	if err != nil {
		return DownloadMaterialResult{}, err
	}
	data, err := fs.ReadFile(deps.Files, m.FileName)
	if err != nil {
		slog.Error("material_read_failed", "file_name", m.FileName, "error", err)
		return DownloadMaterialResult{}, fmt.Errorf("read material %s: %w", m.FileName, err)
	}

	if deps.Observer != nil {
		deps.Observer.Downloaded("material")
	}
	analytics.Track(ctx, deps.Recorder, domainAnalytics.EventDownloadMaterial, map[string]string{
		"file_name": m.FileName,
		"title":     m.Title,
	})
	return DownloadMaterialResult{Material: m, Data: data}, nil
}
