package core

import (
	"path"
	"time"

	"github.com/JonMunkholm/entityexport/internal/history"
	"github.com/JonMunkholm/entityexport/internal/producer"
)

// ConvertRequest is one uploaded spreadsheet.
type ConvertRequest struct {
	FileName  string
	SheetName string // empty selects the configured default sheet
	Data      []byte
}

// EntityResult is the output of one entity pass.
type EntityResult struct {
	Entity  producer.EntityType `json:"entity"`
	Label   string              `json:"label"`
	File    string              `json:"file"` // archive file name inside the run
	Path    string              `json:"-"`    // archive path on disk
	Records int                 `json:"records"`
	Written int                 `json:"written"`
	Skipped int                 `json:"skipped"`
}

// ConvertResult describes a finished run.
type ConvertResult struct {
	RunID      string         `json:"runId"`
	FileName   string         `json:"fileName"`
	SheetName  string         `json:"sheetName"`
	FolderName string         `json:"folderName"`
	Entities   []EntityResult `json:"archives"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// DownloadPaths returns "<run id>/<archive>" for each archive, the form the
// download endpoint accepts.
func (r *ConvertResult) DownloadPaths() []string {
	paths := make([]string, len(r.Entities))
	for i, e := range r.Entities {
		paths[i] = path.Join(r.RunID, e.File)
	}
	return paths
}

// Records returns the number of records produced across passes.
func (r *ConvertResult) Records() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Records
	}
	return n
}

// Skipped returns the number of records that failed to write.
func (r *ConvertResult) Skipped() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Skipped
	}
	return n
}

func (r *ConvertResult) archiveSummaries() []history.ArchiveSummary {
	out := make([]history.ArchiveSummary, len(r.Entities))
	for i, e := range r.Entities {
		out[i] = history.ArchiveSummary{
			Entity:  string(e.Entity),
			Label:   e.Label,
			File:    e.File,
			Records: e.Records,
			Written: e.Written,
			Skipped: e.Skipped,
		}
	}
	return out
}
