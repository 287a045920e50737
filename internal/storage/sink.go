package storage

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/rohmanhakim/result-finder/pkg/fileutil"
	"github.com/rohmanhakim/result-finder/pkg/hashutil"
	"github.com/rohmanhakim/result-finder/pkg/urlutil"
)

/*
Responsibilities
- Persist reports
- Ensure deterministic filenames

Output Characteristics
- Stable directory layout: <outputDir>/<hash12>.<ext>
- Idempotent writes
- Overwrite-safe reruns
*/

const sourceHashLength = 12

type Sink interface {
	Write(
		outputDir string,
		artifact Artifact,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	artifact Artifact,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, artifact, hashAlgo)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, artifact.Source),
				metadata.NewAttr(metadata.AttrWritePath, err.Path),
			},
		)
		return WriteResult{}, err
	}

	s.metadataSink.RecordArtifact(
		artifact.Kind,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrURL, artifact.Source),
			metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

// CanonicalSource is the string a source is identified by: the canonical
// form of an http(s) URL, or the cleaned absolute path of a file.
func CanonicalSource(source string) string {
	if urlutil.IsHTTP(source) {
		if u, err := url.Parse(source); err == nil {
			canonical := urlutil.Canonicalize(*u)
			return canonical.String()
		}
		return source
	}
	path := strings.TrimPrefix(source, "file://")
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(filepath.Clean(path))
}

func write(
	outputDir string,
	artifact Artifact,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, *StorageError) {
	sourceHash, err := hashutil.ShortHash([]byte(CanonicalSource(artifact.Source)), hashAlgo, sourceHashLength)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}
	contentHash, err := hashutil.HashBytes(artifact.Content, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}

	if dirErr := fileutil.EnsureDir(outputDir); dirErr != nil {
		return WriteResult{}, &StorageError{
			Message:   dirErr.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      outputDir,
		}
	}

	ext := strings.TrimPrefix(artifact.Extension, ".")
	fullPath := filepath.Join(outputDir, sourceHash+"."+ext)

	if err := fileutil.WriteFileAtomic(fullPath, artifact.Content); err != nil {
		cause := StorageErrorCause(ErrCauseWriteFailure)
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(sourceHash, fullPath, contentHash), nil
}
