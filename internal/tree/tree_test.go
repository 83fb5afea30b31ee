package tree_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/ctxstitch/internal/exclusion"
	"github.com/temirov/ctxstitch/internal/tree"
	"github.com/temirov/ctxstitch/internal/types"
)

const expectedFixtureTree = ".\n" +
	"├── dir1/\n" +
	"│   ├── file2.txt\n" +
	"│   └── subdir/\n" +
	"│       └── file3.txt\n" +
	"├── dir2/\n" +
	"└── file1.txt\n"

func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	require.NoError(testingHandle, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testingHandle, os.WriteFile(filePath, []byte(content), 0o644))
}

func canonicalTempDirectory(testingHandle *testing.T) string {
	testingHandle.Helper()
	canonicalPath, evalError := filepath.EvalSymlinks(testingHandle.TempDir())
	require.NoError(testingHandle, evalError)
	return canonicalPath
}

func isolateHome(testingHandle *testing.T) {
	testingHandle.Helper()
	homeDirectory := testingHandle.TempDir()
	testingHandle.Setenv("HOME", homeDirectory)
	testingHandle.Setenv("USERPROFILE", homeDirectory)
}

func createFixture(testingHandle *testing.T) string {
	testingHandle.Helper()
	rootDirectory := canonicalTempDirectory(testingHandle)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "file1.txt"), "content")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "dir1", "file2.txt"), "content")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "dir1", "subdir", "file3.txt"), "content")
	require.NoError(testingHandle, os.MkdirAll(filepath.Join(rootDirectory, "dir2"), 0o755))
	return rootDirectory
}

func bothModes() map[string]exclusion.IgnoreSources {
	return map[string]exclusion.IgnoreSources{
		"manual":       {},
		"ignore aware": {UseGitignore: true, UseIgnoreFile: true},
	}
}

func TestRenderLayout(t *testing.T) {
	isolateHome(t)
	rootDirectory := createFixture(t)
	for modeName, sources := range bothModes() {
		t.Run(modeName, func(t *testing.T) {
			listing, renderError := tree.Render(rootDirectory, tree.Options{
				BaseDirectory: rootDirectory,
				MaxDepth:      tree.UnlimitedDepth,
				IgnoreSources: sources,
			})
			require.NoError(t, renderError)
			assert.Equal(t, expectedFixtureTree, listing.Text)
			assert.Equal(t, []string{
				filepath.Join(rootDirectory, "dir1", "file2.txt"),
				filepath.Join(rootDirectory, "dir1", "subdir", "file3.txt"),
				filepath.Join(rootDirectory, "file1.txt"),
			}, listing.Files)
		})
	}
}

func TestRenderDepthLimit(t *testing.T) {
	isolateHome(t)
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, "level1", "level2", "level3", "deep.txt"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, "level1", "shallow.txt"), "content")

	for modeName, sources := range bothModes() {
		t.Run(modeName, func(t *testing.T) {
			listing, renderError := tree.Render(rootDirectory, tree.Options{BaseDirectory: rootDirectory, MaxDepth: 2, IgnoreSources: sources})
			require.NoError(t, renderError)
			assert.Equal(t, ".\n└── level1/\n    ├── level2/\n    └── shallow.txt\n", listing.Text)
			assert.Equal(t, []string{filepath.Join(rootDirectory, "level1", "shallow.txt")}, listing.Files)

			zeroDepth, zeroError := tree.Render(rootDirectory, tree.Options{BaseDirectory: rootDirectory, MaxDepth: 0, IgnoreSources: sources})
			require.NoError(t, zeroError)
			assert.Equal(t, ".\n└── level1/\n", zeroDepth.Text)
		})
	}
}

func TestRenderHidesHiddenEntries(t *testing.T) {
	isolateHome(t)
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, "visible.txt"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, ".hidden"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, ".hidden_dir", "inner.txt"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, ".git", "HEAD"), "ref: refs/heads/main")

	for modeName, sources := range bothModes() {
		t.Run(modeName, func(t *testing.T) {
			listing, renderError := tree.Render(rootDirectory, tree.Options{BaseDirectory: rootDirectory, MaxDepth: tree.UnlimitedDepth, IgnoreSources: sources})
			require.NoError(t, renderError)
			assert.Equal(t, ".\n└── visible.txt\n", listing.Text)
		})
	}
}

func TestRenderEmptyDirectory(t *testing.T) {
	rootDirectory := canonicalTempDirectory(t)
	listing, renderError := tree.Render(rootDirectory, tree.Options{BaseDirectory: rootDirectory, MaxDepth: tree.UnlimitedDepth})
	require.NoError(t, renderError)
	assert.Equal(t, ".\n", listing.Text)
	assert.Empty(t, listing.Files)
}

func TestRenderExclusionSpec(t *testing.T) {
	isolateHome(t)
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, "node_modules", "lib.js"), "ignored")
	writeTestFile(t, filepath.Join(rootDirectory, "target", "build.o"), "ignored")
	writeTestFile(t, filepath.Join(rootDirectory, "visible.txt"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, "app.log"), "exclude me")
	writeTestFile(t, filepath.Join(rootDirectory, "root_exclude", "file.txt"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, "dir1", "nested_exclude", "file.txt"), "content")

	spec, specError := exclusion.NewSpec([]string{"node_modules/**", "target/**", "*.log", "root_exclude", "nested_exclude"})
	require.NoError(t, specError)

	for modeName, sources := range bothModes() {
		t.Run(modeName, func(t *testing.T) {
			listing, renderError := tree.Render(rootDirectory, tree.Options{
				BaseDirectory: rootDirectory,
				MaxDepth:      tree.UnlimitedDepth,
				Exclusion:     spec,
				IgnoreSources: sources,
			})
			require.NoError(t, renderError)
			expected := ".\n" +
				"├── dir1/\n" +
				"│   └── nested_exclude/\n" +
				"│       └── file.txt\n" +
				"└── visible.txt\n"
			assert.Equal(t, expected, listing.Text)
		})
	}
}

func TestRenderExclusionRelativeToBaseDirectory(t *testing.T) {
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, "project", "generated", "out.txt"), "content")
	writeTestFile(t, filepath.Join(rootDirectory, "project", "main.txt"), "content")

	spec, specError := exclusion.NewSpec([]string{"project/generated"})
	require.NoError(t, specError)
	listing, renderError := tree.Render(filepath.Join(rootDirectory, "project"), tree.Options{
		BaseDirectory: rootDirectory,
		MaxDepth:      tree.UnlimitedDepth,
		Exclusion:     spec,
	})
	require.NoError(t, renderError)
	assert.Equal(t, ".\n└── main.txt\n", listing.Text)
}

func TestRenderIgnoreFiles(t *testing.T) {
	isolateHome(t)
	testCases := []struct {
		name     string
		files    map[string]string
		expected string
	}{
		{
			name: "basic gitignore",
			files: map[string]string{
				".gitignore":    "*.secret\n",
				"visible.txt":   "visible",
				"hidden.secret": "secret",
			},
			expected: ".\n└── visible.txt\n",
		},
		{
			name: "nested gitignore",
			files: map[string]string{
				".gitignore":            "ignore_root.txt\n",
				"subdir/.gitignore":     "ignore_sub.txt\n",
				"ignore_root.txt":       "ignored",
				"subdir/ignore_sub.txt": "ignored",
				"subdir/visible.txt":    "visible",
			},
			expected: ".\n└── subdir/\n    └── visible.txt\n",
		},
		{
			name: "negation",
			files: map[string]string{
				".gitignore":    "*.log\n!important.log\n",
				"error.log":     "ignore me",
				"important.log": "read me",
			},
			expected: ".\n└── important.log\n",
		},
		{
			name: "directory pattern",
			files: map[string]string{
				".gitignore":          "node_modules/\n",
				"node_modules/lib.js": "ignored",
				"src.js":              "visible",
			},
			expected: ".\n└── src.js\n",
		},
		{
			name: "ignore file",
			files: map[string]string{
				".ignore":  "draft.md\n",
				"draft.md": "draft",
				"final.md": "final",
			},
			expected: ".\n└── final.md\n",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			rootDirectory := canonicalTempDirectory(t)
			for relativePath, content := range testCase.files {
				writeTestFile(t, filepath.Join(rootDirectory, filepath.FromSlash(relativePath)), content)
			}
			listing, renderError := tree.Render(rootDirectory, tree.Options{
				BaseDirectory: rootDirectory,
				MaxDepth:      tree.UnlimitedDepth,
				IgnoreSources: exclusion.IgnoreSources{UseGitignore: true, UseIgnoreFile: true},
			})
			require.NoError(t, renderError)
			assert.Equal(t, testCase.expected, listing.Text)

			manualListing, manualError := tree.Render(rootDirectory, tree.Options{BaseDirectory: rootDirectory, MaxDepth: tree.UnlimitedDepth})
			require.NoError(t, manualError)
			assert.GreaterOrEqual(t, len(manualListing.Text), len(listing.Text))
		})
	}
}

func TestRenderIgnoreFilesOfAncestors(t *testing.T) {
	isolateHome(t)
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, ".gitignore"), "*.bak\n")
	writeTestFile(t, filepath.Join(rootDirectory, "project", "keep.txt"), "keep")
	writeTestFile(t, filepath.Join(rootDirectory, "project", "old.bak"), "old")

	listing, renderError := tree.Render(filepath.Join(rootDirectory, "project"), tree.Options{
		BaseDirectory: rootDirectory,
		MaxDepth:      tree.UnlimitedDepth,
		IgnoreSources: exclusion.IgnoreSources{UseGitignore: true},
	})
	require.NoError(t, renderError)
	assert.Equal(t, ".\n└── keep.txt\n", listing.Text)
}

func TestRenderMissingDirectory(t *testing.T) {
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, "file.txt"), "content")

	for _, candidate := range []string{filepath.Join(rootDirectory, "missing"), filepath.Join(rootDirectory, "file.txt")} {
		_, renderError := tree.Render(candidate, tree.Options{BaseDirectory: rootDirectory})
		var notFound *types.DirectoryNotFoundError
		require.ErrorAs(t, renderError, &notFound)
	}
}

func TestRenderSkipsUnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	isolateHome(t)
	rootDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(rootDirectory, "locked", "secret.txt"), "secret")
	writeTestFile(t, filepath.Join(rootDirectory, "open.txt"), "open")
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	require.NoError(t, os.Chmod(lockedDirectory, 0o000))
	t.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	for modeName, sources := range bothModes() {
		t.Run(modeName, func(t *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.WarnLevel)
			listing, renderError := tree.Render(rootDirectory, tree.Options{
				BaseDirectory: rootDirectory,
				MaxDepth:      tree.UnlimitedDepth,
				IgnoreSources: sources,
				Logger:        zap.New(observedCore),
			})
			require.NoError(t, renderError)
			assert.Equal(t, ".\n├── locked/\n└── open.txt\n", listing.Text)
			assert.NotZero(t, observedLogs.Len())
		})
	}
}

func TestRenderSymlinks(t *testing.T) {
	rootDirectory := canonicalTempDirectory(t)
	outsideDirectory := canonicalTempDirectory(t)
	writeTestFile(t, filepath.Join(outsideDirectory, "secret.txt"), "secret")
	writeTestFile(t, filepath.Join(rootDirectory, "real", "inner.txt"), "inner")
	if symlinkError := os.Symlink(outsideDirectory, filepath.Join(rootDirectory, "escape")); symlinkError != nil {
		t.Skipf("symlinks unavailable: %v", symlinkError)
	}
	require.NoError(t, os.Symlink(filepath.Join(rootDirectory, "real"), filepath.Join(rootDirectory, "alias")))

	listing, renderError := tree.Render(rootDirectory, tree.Options{BaseDirectory: rootDirectory, MaxDepth: tree.UnlimitedDepth})
	require.NoError(t, renderError)
	assert.Equal(t, ".\n├── alias/\n└── real/\n    └── inner.txt\n", listing.Text)
	assert.NotContains(t, listing.Text, "escape")
}

func TestArenaRebuildsHierarchyFromUnorderedPaths(t *testing.T) {
	arena := tree.NewArena("/root")
	arena.InsertPath([]string{"b", "z.txt"}, false)
	arena.InsertPath([]string{"a.txt"}, false)
	arena.InsertPath([]string{"b"}, true)
	arena.InsertPath([]string{"b", "c", "d.txt"}, false)
	arena.InsertPath([]string{"empty"}, true)

	text, files := arena.Render()
	assert.Equal(t, ".\n"+
		"├── a.txt\n"+
		"├── b/\n"+
		"│   ├── c/\n"+
		"│   │   └── d.txt\n"+
		"│   └── z.txt\n"+
		"└── empty/\n", text)
	assert.Equal(t, []string{
		filepath.Join("/root", "a.txt"),
		filepath.Join("/root", "b", "c", "d.txt"),
		filepath.Join("/root", "b", "z.txt"),
	}, files)
	assert.Equal(t, 7, arena.Len())
}

func TestArenaChildOrCreateIsIdempotent(t *testing.T) {
	arena := tree.NewArena("/root")
	first := arena.ChildOrCreate(0, "pkg", true)
	second := arena.ChildOrCreate(0, "pkg", false)
	assert.Equal(t, first, second)
	assert.True(t, arena.Node(first).IsDirectory)
	assert.Equal(t, "pkg", arena.Node(first).Name)
}
