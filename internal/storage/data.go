package storage

import "github.com/rohmanhakim/result-finder/internal/metadata"

// Artifact is one serialized report ready to be persisted.
type Artifact struct {
	// Source identifies the analysed page (URL or file path); its hash names the file
	Source    string
	Kind      metadata.ArtifactKind
	Extension string
	Content   []byte
}

type WriteResult struct {
	sourceHash  string // identity (filename without extension)
	path        string
	contentHash string
}

func NewWriteResult(
	sourceHash string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		sourceHash:  sourceHash,
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) SourceHash() string {
	return w.sourceHash
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
