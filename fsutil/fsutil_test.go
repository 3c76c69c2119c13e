package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionBuildsDirectoryTree(t *testing.T) {
	root := t.TempDir()
	tr := Transaction{Root: Path(root)}

	tr.MkDir("run/output")
	tr.WriteString("run/fort.4", "&namrun\n/\n")

	require.NoError(t, tr.Err)
	assert.True(t, tr.Exists("run/output"))
	assert.True(t, tr.Exists("run/fort.4"))
	assert.False(t, tr.Exists("run/missing"))
}

func TestTransactionShortCircuitsAfterError(t *testing.T) {
	tr := Transaction{Root: Path(t.TempDir())}

	// Copying a missing source fails and poisons the transaction.
	tr.Copy(Path("/no/such/source"), "target")
	require.Error(t, tr.Err)
	first := tr.Err

	tr.MkDir("never-created")
	assert.Equal(t, first, tr.Err)
	assert.NoDirExists(t, filepath.Join(tr.Root.String(), "never-created"))
}

func TestTransactionLinkReplacesExisting(t *testing.T) {
	root := t.TempDir()
	target1 := filepath.Join(root, "target1")
	target2 := filepath.Join(root, "target2")
	require.NoError(t, os.WriteFile(target1, []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(target2, []byte("2"), 0o644))

	tr := Transaction{Root: Path(root)}
	tr.Link(Path(target1), "link")
	tr.Link(Path(target2), "link")
	require.NoError(t, tr.Err)

	resolved, err := os.Readlink(filepath.Join(root, "link"))
	require.NoError(t, err)
	assert.Equal(t, target2, resolved)
}

func TestTransactionCopy(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "source")
	require.NoError(t, os.WriteFile(source, []byte("payload"), 0o644))

	tr := Transaction{Root: Path(root)}
	tr.Copy(Path(source), "copied")
	require.NoError(t, tr.Err)

	content, err := os.ReadFile(filepath.Join(root, "copied"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestTransactionRmFileToleratesMissing(t *testing.T) {
	tr := Transaction{Root: Path(t.TempDir())}
	tr.RmFile("not-there")
	assert.NoError(t, tr.Err)
}

func TestPathJoin(t *testing.T) {
	p := Path("/base")
	assert.Equal(t, Path("/base/run"), p.Join("run"))
	assert.Equal(t, Path("/base/run/01"), p.Join("run").JoinF("%02d", 1))
	assert.Equal(t, Path("/base/sub/file"), p.JoinP(Path("sub/file")))
}
