package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/storage"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/rohmanhakim/result-finder/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_Write_Success(t *testing.T) {
	tests := []struct {
		name     string
		hashAlgo hashutil.HashAlgo
		artifact storage.Artifact
	}{
		{
			name:     "xml report with SHA256",
			hashAlgo: hashutil.HashAlgoSHA256,
			artifact: xmlArtifact("https://example.com/search?q=go", "<page></page>"),
		},
		{
			name:     "markdown digest with BLAKE3",
			hashAlgo: hashutil.HashAlgoBLAKE3,
			artifact: storage.Artifact{
				Source:    "https://example.com/search?q=rust",
				Kind:      metadata.ArtifactMarkdown,
				Extension: ".md",
				Content:   []byte("# Search results\n"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputDir := filepath.Join(t.TempDir(), "reports")
			sink := &metadataSinkMock{}
			localSink := storage.NewLocalSink(sink)

			result, err := localSink.Write(outputDir, tt.artifact, tt.hashAlgo)
			require.Nil(t, err)

			expectedHash, hashErr := hashutil.ShortHash(
				[]byte(storage.CanonicalSource(tt.artifact.Source)), tt.hashAlgo, 12)
			require.NoError(t, hashErr)
			ext := strings.TrimPrefix(tt.artifact.Extension, ".")

			assert.Equal(t, expectedHash, result.SourceHash())
			assert.Equal(t, filepath.Join(outputDir, expectedHash+"."+ext), result.Path())

			content, readErr := os.ReadFile(result.Path())
			require.NoError(t, readErr)
			assert.Equal(t, tt.artifact.Content, content)

			expectedContentHash, _ := hashutil.HashBytes(tt.artifact.Content, tt.hashAlgo)
			assert.Equal(t, expectedContentHash, result.ContentHash())

			assert.True(t, sink.recordArtifactCalled)
			assert.Equal(t, tt.artifact.Kind, sink.recordArtifactKind)
			assert.Equal(t, result.Path(), sink.recordArtifactPath)
			assert.Equal(t, tt.artifact.Source, attrValue(sink.recordArtifactAttrs, metadata.AttrURL))
			assert.False(t, sink.recordErrorCalled)
		})
	}
}

func TestLocalSink_Write_Idempotent(t *testing.T) {
	outputDir := t.TempDir()
	localSink := storage.NewLocalSink(&metadataSinkMock{})

	first, err := localSink.Write(outputDir, xmlArtifact("https://example.com/s", "<a/>"), hashutil.HashAlgoSHA256)
	require.Nil(t, err)
	second, err := localSink.Write(outputDir, xmlArtifact("https://example.com/s", "<b/>"), hashutil.HashAlgoSHA256)
	require.Nil(t, err)

	assert.Equal(t, first.Path(), second.Path())
	content, readErr := os.ReadFile(second.Path())
	require.NoError(t, readErr)
	assert.Equal(t, "<b/>", string(content))

	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1)
}

func TestLocalSink_Write_FilenameDeterminism(t *testing.T) {
	outputDir := t.TempDir()
	localSink := storage.NewLocalSink(&metadataSinkMock{})

	// equivalent spellings of one URL share a file
	a, err := localSink.Write(outputDir, xmlArtifact("HTTPS://Example.com:443/search/?b=2&a=1", "x"), hashutil.HashAlgoSHA256)
	require.Nil(t, err)
	b, err := localSink.Write(outputDir, xmlArtifact("https://example.com/search?a=1&b=2#top", "x"), hashutil.HashAlgoSHA256)
	require.Nil(t, err)
	assert.Equal(t, a.Path(), b.Path())

	c, err := localSink.Write(outputDir, xmlArtifact("https://example.com/search?a=1&b=3", "x"), hashutil.HashAlgoSHA256)
	require.Nil(t, err)
	assert.NotEqual(t, a.Path(), c.Path())
}

func TestLocalSink_Write_UnsupportedHash(t *testing.T) {
	sink := &metadataSinkMock{}
	localSink := storage.NewLocalSink(sink)

	_, err := localSink.Write(t.TempDir(), xmlArtifact("page.html", "x"), "md5")
	require.NotNil(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.StorageErrorCause(storage.ErrCauseHashComputationFailed), storageErr.Cause)
	assert.Equal(t, failure.SeverityFatal, err.Severity())

	assert.True(t, sink.recordErrorCalled)
	assert.Equal(t, "storage", sink.recordErrorPackageName)
	assert.Equal(t, "LocalSink.Write", sink.recordErrorAction)
	assert.Equal(t, metadata.CauseInvariantViolation, sink.recordErrorCause)
	assert.False(t, sink.recordArtifactCalled)
}

func TestLocalSink_Write_OutputDirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	sink := &metadataSinkMock{}
	localSink := storage.NewLocalSink(sink)

	_, err := localSink.Write(blocker, xmlArtifact("page.html", "x"), hashutil.HashAlgoSHA256)
	require.NotNil(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.StorageErrorCause(storage.ErrCausePathError), storageErr.Cause)
	assert.Equal(t, blocker, storageErr.Path)
	assert.Equal(t, metadata.CauseStorageFailure, sink.recordErrorCause)
	assert.Equal(t, blocker, attrValue(sink.recordErrorAttrs, metadata.AttrWritePath))
}

func TestCanonicalSource_File(t *testing.T) {
	abs, err := filepath.Abs("page.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(abs), storage.CanonicalSource("page.html"))
	assert.Equal(t, filepath.ToSlash(abs), storage.CanonicalSource("./page.html"))
}
