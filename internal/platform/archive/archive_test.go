package archive

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesWritesFlatEntries(t *testing.T) {
	t.Parallel()

	data, err := Bytes([]Entry{
		FromBytes("charts/quiz_averages.png", []byte("png-1")),
		FromBytes("notes.txt", []byte("hello")),
	})
	require.NoError(t, err)

	contents := readArchive(t, data)
	assert.Equal(t, map[string]string{
		"quiz_averages.png": "png-1",
		"notes.txt":         "hello",
	}, contents)
}

func TestWriteRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := Bytes([]Entry{FromBytes("a.txt", nil), FromBytes("dir/a.txt", nil)})
	require.Error(t, err)
}

func TestWritePropagatesOpenError(t *testing.T) {
	t.Parallel()

	boom := errors.New("missing file")
	_, err := Bytes([]Entry{{Name: "a.txt", Open: func() (io.ReadCloser, error) { return nil, boom }}})
	require.ErrorIs(t, err, boom)
}

func TestEmptyArchiveIsValid(t *testing.T) {
	t.Parallel()

	data, err := Bytes(nil)
	require.NoError(t, err)
	assert.Empty(t, readArchive(t, data))
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[file.Name] = string(body)
	}
	return out
}
