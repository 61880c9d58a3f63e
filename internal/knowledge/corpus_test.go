package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "knowledge.yaml", "documents:\n  - glob: \"src/*.py\"\n    tag: code\n  - glob: \"docs/*.md\"\n")

	m, err := LoadManifest(filepath.Join(root, "knowledge.yaml"))
	require.NoError(t, err)
	require.Len(t, m.Documents, 2)
	assert.Equal(t, "src/*.py", m.Documents[0].Glob)
	assert.Equal(t, "code", m.Documents[0].Tag)
}

func TestLoadManifestRejectsEmptyAndMissingGlob(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "empty.yaml", "documents: []\n")
	_, err := LoadManifest(filepath.Join(root, "empty.yaml"))
	assert.Error(t, err)

	writeFile(t, root, "noglob.yaml", "documents:\n  - tag: code\n")
	_, err = LoadManifest(filepath.Join(root, "noglob.yaml"))
	assert.Error(t, err)
}

func TestLoadCorpus(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/a.py", "def a(): pass")
	writeFile(t, root, "src/b.py", "def b(): pass")
	writeFile(t, root, "src/skip.txt", "not code")
	writeFile(t, root, "src/empty.py", "   \n")

	m := Manifest{Documents: []DocumentRule{
		{Glob: "src/*.py", Tag: "code"},
		{Glob: "src/a.py", Tag: "duplicate"},
	}}

	docs, err := LoadCorpus(root, m)
	require.NoError(t, err)

	// Empty files are dropped, duplicates collapse to the first rule, and
	// order is stable by locator.
	require.Len(t, docs, 2)
	assert.Equal(t, filepath.Join("src", "a.py"), docs[0].Locator)
	assert.Equal(t, "code", docs[0].Tag)
	assert.Equal(t, filepath.Join("src", "b.py"), docs[1].Locator)
}

func TestLoadCorpusTruncatesOversizeFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	big := make([]byte, maxDocumentBytes+1024)
	for i := range big {
		big[i] = 'x'
	}
	writeFile(t, root, "big.py", string(big))

	docs, err := LoadCorpus(root, Manifest{Documents: []DocumentRule{{Glob: "big.py"}}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.LessOrEqual(t, len(docs[0].Text), maxDocumentBytes)
}
