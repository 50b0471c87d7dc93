package detector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/buginspector/pkg/analyzer"
	"github.com/ccollicutt/buginspector/pkg/bug"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScan_EmptyPythonFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.py", "")
	assert.Empty(t, New(nil).Scan(context.Background(), path))
}

func TestScan_EvalOnLineFive(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.py", "import os\n\n\nx = 1\nresult = eval(data)\n")
	got := New(nil).Scan(context.Background(), path)
	require.Len(t, got, 2)

	line := got[0]
	assert.Equal(t, "Security Vulnerability detected", line.Title)
	assert.Equal(t, "Use of eval() can be dangerous", line.Description)
	assert.Equal(t, "result = eval(data)", line.Snippet)

	structural := got[1]
	assert.Equal(t, "Dangerous use of eval()", structural.Title)
	assert.Equal(t, "dangerous_call", structural.Metadata["check"])

	for _, b := range got {
		assert.Equal(t, bug.TypeSecurityVulnerability, b.Type)
		assert.Equal(t, bug.SeverityCritical, b.Severity)
		require.NotNil(t, b.Line)
		assert.Equal(t, 5, *b.Line)
		assert.Equal(t, path, b.FilePath)
	}
}

func TestScan_BareExceptYieldsLineAndStructuralRecords(t *testing.T) {
	path := writeFile(t, t.TempDir(), "job.py", "try:\n    run()\nexcept:\n    pass\n")
	got := New(nil).Scan(context.Background(), path)
	require.Len(t, got, 2)

	assert.Equal(t, "Logic Error detected", got[0].Title)
	assert.Equal(t, "except:", got[0].Snippet)
	assert.Equal(t, "Bare except clause", got[1].Title)
	for _, b := range got {
		assert.Equal(t, bug.TypeLogicError, b.Type)
		assert.Equal(t, bug.SeverityMedium, b.Severity)
		assert.Equal(t, 3, *b.Line)
	}
}

func TestScan_BinaryFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "blob.py", "\x00\x01\x02eval(x)")
	got := New(nil).Scan(context.Background(), path)
	require.Len(t, got, 1)

	assert.Equal(t, bug.TypeRuntimeError, got[0].Type)
	assert.Equal(t, bug.SeverityHigh, got[0].Severity)
	assert.Equal(t, "File read error: "+path, got[0].Title)
	assert.Contains(t, got[0].Description, "Could not read file")
	assert.Nil(t, got[0].Line)
}

func TestScan_InvalidUTF8StillAnalyzed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latin.py", "name = 'caf\xe9'\nvalue = eval(name)\n")
	got := New(nil).Scan(context.Background(), path)
	require.NotEmpty(t, got)
	for _, b := range got {
		assert.NotEqual(t, bug.TypeRuntimeError, b.Type)
	}
}

func TestScan_MissingAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	d := New(nil)

	assert.Empty(t, d.Scan(context.Background(), filepath.Join(dir, "missing.py")))
	assert.Empty(t, d.Scan(context.Background(), writeFile(t, dir, "notes.txt", "eval(x)\n")))
	assert.Empty(t, d.Scan(context.Background(), dir))
}

func TestScan_UppercaseExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "LEGACY.PY", "eval(x)\n")
	assert.NotEmpty(t, New(nil).Scan(context.Background(), path))
}

func TestScan_SyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.py", "def broken(:\n    pass\n")
	got := New(nil).Scan(context.Background(), path)
	require.NotEmpty(t, got)

	first := got[0]
	assert.Equal(t, "Syntax Error in broken.py", first.Title)
	assert.Equal(t, bug.TypeSyntaxError, first.Type)
	assert.Equal(t, bug.SeverityHigh, first.Severity)
	assert.Contains(t, first.Description, "Syntax error: ")
	require.NotNil(t, first.Line)
	require.NotNil(t, first.Column)
	assert.GreaterOrEqual(t, *first.Line, 1)
	assert.NotEmpty(t, first.Snippet)

	syntax := 0
	for _, b := range got {
		if b.Title == first.Title {
			syntax++
		}
		assert.Nil(t, b.Metadata["check"], "structural analysis must not run on a broken file")
	}
	assert.Equal(t, 1, syntax)
}

func TestScan_SyntaxErrorStillRunsLinePatterns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.py", "x = (\npassword = 'hunter2'\n")
	got := New(nil).Scan(context.Background(), path)
	require.Len(t, got, 2)
	assert.Equal(t, bug.TypeSyntaxError, got[0].Type)
	assert.Equal(t, "Hardcoded password", got[1].Description)
}

func TestScan_Python2SourceIsSyntaxError(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"print statement", "print \"hello\"\n"},
		{"exec statement", "exec \"x = 1\"\n"},
		{"except comma", "try:\n    pass\nexcept ValueError, e:\n    pass\n"},
		{"diamond operator", "if a <> b:\n    pass\n"},
		{"legacy octal", "x = 0777\n"},
		{"backticks", "x = `y`\n"},
		{"positional after keyword", "f(a=1, b)\n"},
		{"structural findings suppressed", "def run(x):\n    print \"running\"\n    return eval(x)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "legacy.py", tt.code)
			got := New(nil).Scan(context.Background(), path)
			require.NotEmpty(t, got)

			syntax := 0
			for _, b := range got {
				if b.Title == "Syntax Error in legacy.py" {
					syntax++
					assert.Equal(t, bug.TypeSyntaxError, b.Type)
					assert.Equal(t, bug.SeverityHigh, b.Severity)
				}
				assert.Nil(t, b.Metadata["check"], "structural analysis must not run on a broken file")
			}
			assert.Equal(t, 1, syntax)
			assert.Equal(t, "Syntax Error in legacy.py", got[0].Title)
		})
	}
}

func TestScan_JavaScriptLinePatternsOnly(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ui.js", "el.innerHTML = x;\nconsole.log(y);\n")
	got := New(nil).Scan(context.Background(), path)
	require.Len(t, got, 2)

	assert.Equal(t, "innerHTML assignment can lead to XSS", got[0].Description)
	assert.Equal(t, bug.SeverityCritical, got[0].Severity)
	assert.Equal(t, "javascript", got[0].Metadata["family"])

	assert.Equal(t, "Debug statement left in code", got[1].Description)
	assert.Equal(t, bug.SeverityLow, got[1].Severity)
	assert.Equal(t, "general", got[1].Metadata["family"])
	assert.Equal(t, 2, *got[1].Line)
}

func TestScan_OneLineManyRules(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ui.js", "eval(x); document.write(y)\n")
	got := New(nil).Scan(context.Background(), path)
	require.Len(t, got, 2)
	assert.Equal(t, "Use of eval() can be dangerous", got[0].Description)
	assert.Equal(t, "document.write can be unsafe", got[1].Description)
}

func TestScan_SeverityFollowsClassification(t *testing.T) {
	code := `from os import *
import pickle

def load(path):
    data = pickle.load(open(path))
    if len(data) == 0:
        print("debug: empty")
    for i in range(len(data)):
        exec(data[i])
    # TODO remove
    api_key = "abc"
    return data
`
	path := writeFile(t, t.TempDir(), "mixed.py", code)
	got := New(nil).Scan(context.Background(), path)
	require.NotEmpty(t, got)
	for _, b := range got {
		assert.Equal(t, b.Type.DefaultSeverity(), b.Severity, b.Title)
		assert.Equal(t, bug.StatusOpen, b.Status)
	}
}

func TestScanMany(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "eval(x)\n")
	writeFile(t, dir, "notes.txt", "eval(x)\n")
	writeFile(t, dir, "sub/b.py", "exec(x)\n")
	writeFile(t, dir, "node_modules/lib.js", "eval(x)\n")
	d := New(nil)

	flat := d.ScanMany(context.Background(), dir, false)
	require.NotEmpty(t, flat)
	for _, b := range flat {
		assert.Equal(t, filepath.Join(dir, "a.py"), b.FilePath)
	}

	all := d.ScanMany(context.Background(), dir, true)
	files := map[string]bool{}
	var order []string
	for _, b := range all {
		if !files[b.FilePath] {
			files[b.FilePath] = true
			order = append(order, b.FilePath)
		}
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "node_modules", "lib.js"),
		filepath.Join(dir, "sub", "b.py"),
	}, order)

	assert.Empty(t, d.ScanMany(context.Background(), filepath.Join(dir, "nope"), true))
}

func TestScanMany_WalksVendoredDirsByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "x = eval(y)\n")
	writeFile(t, dir, "vendor/lib.py", "x = eval(y)\n")
	writeFile(t, dir, ".git/hooks/pre.py", "x = eval(y)\n")
	writeFile(t, dir, "__pycache__/mod.py", "x = eval(y)\n")

	files := map[string]bool{}
	for _, b := range New(nil).ScanMany(context.Background(), dir, true) {
		files[b.FilePath] = true
	}
	assert.Equal(t, map[string]bool{
		filepath.Join(dir, "app.py"):                  true,
		filepath.Join(dir, "vendor", "lib.py"):        true,
		filepath.Join(dir, ".git", "hooks", "pre.py"): true,
		filepath.Join(dir, "__pycache__", "mod.py"):   true,
	}, files)
}

func TestScanMany_CustomExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node_modules/lib.js", "eval(x)\n")
	writeFile(t, dir, "build/gen.py", "eval(x)\n")

	got := New(nil, WithExcludeDirs([]string{"build"})).ScanMany(context.Background(), dir, true)
	require.NotEmpty(t, got)
	for _, b := range got {
		assert.Equal(t, filepath.Join(dir, "node_modules", "lib.js"), b.FilePath)
	}
}

func TestScanPaths(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "one.py", "eval(x)\n")
	sub := filepath.Join(dir, "pkg")
	writeFile(t, sub, "two.js", "eval(x)\n")
	missing := filepath.Join(dir, "gone.py")

	res := New(nil).ScanPaths(context.Background(), []string{file, sub, missing}, true)
	assert.Equal(t, 2, res.FilesScanned)
	assert.Equal(t, []string{missing}, res.Missing)
	assert.NotEmpty(t, res.Bugs)
}

func TestWithAnalyzer_ReplacesStructuralChecks(t *testing.T) {
	path := writeFile(t, t.TempDir(), "job.py", "def run():\n    return eval(x)\n")

	d := New(nil, WithAnalyzer(analyzer.New([]analyzer.Check{analyzer.MissingDocstringCheck{}})))
	got := d.Scan(context.Background(), path)

	var checks []any
	for _, b := range got {
		if c, ok := b.Metadata["check"]; ok {
			checks = append(checks, c)
		}
	}
	assert.Equal(t, []any{"missing_docstring"}, checks)
}
