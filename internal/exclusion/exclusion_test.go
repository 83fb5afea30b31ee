package exclusion_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ctxstitch/internal/exclusion"
	"github.com/temirov/ctxstitch/internal/utils"
)

func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	require.NoError(testingHandle, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testingHandle, os.WriteFile(filePath, []byte(content), 0o644))
}

func isolateHome(testingHandle *testing.T) {
	testingHandle.Helper()
	homeDirectory := testingHandle.TempDir()
	testingHandle.Setenv("HOME", homeDirectory)
	testingHandle.Setenv("USERPROFILE", homeDirectory)
}

func TestSpecMatches(t *testing.T) {
	spec, specError := exclusion.NewSpec([]string{"node_modules/**", "*.log", "root_exclude", "./build/", "**/generated"})
	require.NoError(t, specError)

	testCases := []struct {
		name         string
		relativePath string
		isDirectory  bool
		expected     bool
	}{
		{name: "directory hidden by contents wildcard", relativePath: "node_modules", isDirectory: true, expected: true},
		{name: "file below wildcard directory", relativePath: "node_modules/pkg/index.js", expected: true},
		{name: "top level log", relativePath: "app.log", expected: true},
		{name: "nested log is not matched by single star", relativePath: "logs/app.log", expected: false},
		{name: "bare name at root", relativePath: "root_exclude", isDirectory: true, expected: true},
		{name: "bare name nested is kept", relativePath: "a/root_exclude", isDirectory: true, expected: false},
		{name: "normalized directory pattern", relativePath: "build", isDirectory: true, expected: true},
		{name: "double star at any depth", relativePath: "src/deep/generated", isDirectory: true, expected: true},
		{name: "unrelated file", relativePath: "src/main.go", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, spec.Matches(testCase.relativePath, testCase.isDirectory))
		})
	}
}

func TestSpecNormalizationAndValidation(t *testing.T) {
	spec, specError := exclusion.NewSpec([]string{"", "  ", "./a/", "/b"})
	require.NoError(t, specError)
	assert.Equal(t, []string{"a", "b"}, spec.Patterns())

	_, invalidError := exclusion.NewSpec([]string{"[unclosed"})
	assert.Error(t, invalidError)

	var nilSpec *exclusion.Spec
	assert.True(t, nilSpec.Empty())
	assert.False(t, nilSpec.Matches("anything", true))
}

func TestFilterDecide(t *testing.T) {
	baseDirectory := t.TempDir()
	spec, specError := exclusion.NewSpec([]string{"skip/**"})
	require.NoError(t, specError)
	filter := exclusion.NewFilter(baseDirectory, spec, nil)

	testCases := []struct {
		name        string
		path        string
		isDirectory bool
		expected    exclusion.Decision
	}{
		{name: "base directory", path: baseDirectory, isDirectory: true, expected: exclusion.Include},
		{name: "regular file", path: filepath.Join(baseDirectory, "visible.txt"), expected: exclusion.Include},
		{name: "hidden file", path: filepath.Join(baseDirectory, ".hidden"), expected: exclusion.Exclude},
		{name: "hidden directory", path: filepath.Join(baseDirectory, "sub", ".cache"), isDirectory: true, expected: exclusion.Exclude},
		{name: "git directory", path: filepath.Join(baseDirectory, utils.GitDirectoryName), isDirectory: true, expected: exclusion.Exclude},
		{name: "excluded by spec", path: filepath.Join(baseDirectory, "skip"), isDirectory: true, expected: exclusion.Exclude},
		{name: "outside base", path: filepath.Dir(baseDirectory), isDirectory: true, expected: exclusion.Exclude},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, filter.Decide(testCase.path, testCase.isDirectory))
		})
	}
	assert.Equal(t, "exclude", exclusion.Exclude.String())
	assert.Equal(t, "include", exclusion.Include.String())
}

func TestIgnoreRules(t *testing.T) {
	isolateHome(t)
	baseDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(baseDirectory, utils.GitIgnoreFileName), "*.tmp\n!keep.tmp\nbuild/\noverride.txt\n")
	writeTestFile(t, filepath.Join(baseDirectory, utils.IgnoreFileName), "!override.txt\n")
	writeTestFile(t, filepath.Join(baseDirectory, "sub", utils.GitIgnoreFileName), "local.txt\n")
	writeTestFile(t, filepath.Join(baseDirectory, utils.GitDirectoryName, "info", "exclude"), "secret.env\n")

	rules, loadError := exclusion.LoadIgnoreRules(baseDirectory, filepath.Join(baseDirectory, "sub"), exclusion.IgnoreSources{UseGitignore: true, UseIgnoreFile: true})
	require.NoError(t, loadError)

	testCases := []struct {
		name         string
		relativePath string
		isDirectory  bool
		expected     bool
	}{
		{name: "wildcard", relativePath: "scratch.tmp", expected: true},
		{name: "wildcard nested", relativePath: "sub/deep/scratch.tmp", expected: true},
		{name: "negation", relativePath: "keep.tmp", expected: false},
		{name: "directory only pattern on directory", relativePath: "build", isDirectory: true, expected: true},
		{name: "directory only pattern on file", relativePath: "build", isDirectory: false, expected: false},
		{name: "ignore file overrides gitignore", relativePath: "override.txt", expected: false},
		{name: "nested gitignore applies inside", relativePath: "sub/local.txt", expected: true},
		{name: "nested gitignore does not apply outside", relativePath: "local.txt", expected: false},
		{name: "repository excludes", relativePath: "secret.env", expected: true},
		{name: "base directory", relativePath: ".", isDirectory: true, expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, rules.Excludes(testCase.relativePath, testCase.isDirectory))
		})
	}
}

func TestIgnoreRulesSources(t *testing.T) {
	isolateHome(t)
	baseDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(baseDirectory, utils.GitIgnoreFileName), "git.txt\n")
	writeTestFile(t, filepath.Join(baseDirectory, utils.IgnoreFileName), "plain.txt\n")

	inactiveRules, inactiveError := exclusion.LoadIgnoreRules(baseDirectory, baseDirectory, exclusion.IgnoreSources{})
	require.NoError(t, inactiveError)
	assert.False(t, inactiveRules.Excludes("git.txt", false))
	assert.False(t, inactiveRules.Excludes("plain.txt", false))

	ignoreOnlyRules, ignoreOnlyError := exclusion.LoadIgnoreRules(baseDirectory, baseDirectory, exclusion.IgnoreSources{UseIgnoreFile: true})
	require.NoError(t, ignoreOnlyError)
	assert.False(t, ignoreOnlyRules.Excludes("git.txt", false))
	assert.True(t, ignoreOnlyRules.Excludes("plain.txt", false))
}

func TestIgnoreRulesExtendScopesToDirectory(t *testing.T) {
	isolateHome(t)
	baseDirectory := t.TempDir()
	rules, loadError := exclusion.LoadIgnoreRules(baseDirectory, baseDirectory, exclusion.IgnoreSources{UseGitignore: true})
	require.NoError(t, loadError)

	rules.Extend("pkg/inner", []string{"*.gen.go", "/anchored.txt"})
	assert.True(t, rules.Excludes("pkg/inner/model.gen.go", false))
	assert.True(t, rules.Excludes("pkg/inner/anchored.txt", false))
	assert.False(t, rules.Excludes("pkg/inner/deeper/anchored.txt", false))
	assert.False(t, rules.Excludes("pkg/model.gen.go", false))
}

func TestFilterUsesIgnoreRules(t *testing.T) {
	isolateHome(t)
	baseDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(baseDirectory, utils.GitIgnoreFileName), "ignored/\n")
	rules, loadError := exclusion.LoadIgnoreRules(baseDirectory, baseDirectory, exclusion.IgnoreSources{UseGitignore: true})
	require.NoError(t, loadError)

	filter := exclusion.NewFilter(baseDirectory, nil, rules)
	assert.Same(t, rules, filter.IgnoreRules())
	assert.True(t, filter.Excluded(filepath.Join(baseDirectory, "ignored"), true))
	assert.False(t, filter.Excluded(filepath.Join(baseDirectory, "kept"), true))
}
