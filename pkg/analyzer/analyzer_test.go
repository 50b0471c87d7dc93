package analyzer

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/parser"
)

func analyze(t *testing.T, a *Analyzer, code string) []*bug.Bug {
	t.Helper()
	src, err := parser.DecodeSource("mod.py", []byte(code))
	require.NoError(t, err)
	tree, err := parser.Python{}.Parse(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return a.Analyze(context.Background(), "mod.py", tree)
}

func TestMissingDocstring(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"no docstring", "def public():\n    return 1\n", 1},
		{"docstring", "def public():\n    \"\"\"Doc.\"\"\"\n    return 1\n", 0},
		{"single quoted", "def public():\n    'doc'\n", 0},
		{"comment before docstring", "def public():\n    # note\n    \"\"\"Doc.\"\"\"\n", 0},
		{"private", "def _helper():\n    return 1\n", 0},
		{"dunder", "def __init__(self):\n    pass\n", 0},
		{"string not first", "def f():\n    x = 1\n    \"late\"\n", 1},
		{"nested both missing", "def outer():\n    def inner():\n        pass\n    return inner\n", 2},
		{"method", "class C:\n    def m(self):\n        pass\n", 1},
		{"f-string", "def f(x):\n    f\"doc {x}\"\n", 1},
		{"bytes", "def g(x):\n    b\"doc\"\n", 1},
		{"raw string", "def h():\n    r\"doc\\d\"\n", 0},
		{"concatenated with f-string", "def k(x):\n    \"doc \" f\"{x}\"\n", 1},
		{"concatenated plain", "def m():\n    \"doc \" \"more\"\n", 0},
	}

	a := New([]Check{MissingDocstringCheck{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyze(t, a, tt.code)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestMissingDocstring_Record(t *testing.T) {
	got := analyze(t, New([]Check{MissingDocstringCheck{}}), "x = 1\n\ndef run(a, b):\n    return a\n")
	require.Len(t, got, 1)

	b := got[0]
	assert.Equal(t, "Missing docstring in function 'run'", b.Title)
	assert.Equal(t, "Public function lacks documentation", b.Description)
	assert.Equal(t, bug.TypeCodeQuality, b.Type)
	assert.Equal(t, bug.SeverityLow, b.Severity)
	assert.Equal(t, "def run(...):", b.Snippet)
	require.NotNil(t, b.Line)
	assert.Equal(t, 3, *b.Line)
	assert.Equal(t, "mod.py", b.FilePath)
	assert.Equal(t, "missing_docstring", b.Metadata["check"])
}

func TestBareExcept(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"bare", "try:\n    pass\nexcept:\n    pass\n", 1},
		{"typed", "try:\n    pass\nexcept ValueError:\n    pass\n", 0},
		{"typed as", "try:\n    pass\nexcept (KeyError, ValueError) as e:\n    pass\n", 0},
		{"mixed", "try:\n    pass\nexcept OSError:\n    pass\nexcept:\n    raise\n", 1},
	}

	a := New([]Check{BareExceptCheck{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyze(t, a, tt.code)
			require.Len(t, got, tt.want)
			for _, b := range got {
				assert.Equal(t, "Bare except clause", b.Title)
				assert.Equal(t, bug.TypeLogicError, b.Type)
				assert.Equal(t, bug.SeverityMedium, b.Severity)
				assert.Equal(t, "except:", b.Snippet)
			}
		})
	}
}

func TestDangerousCall(t *testing.T) {
	code := "x = eval(data)\nexec('y = 1')\nobj.eval(x)\nevaluate(x)\nprint(x)\n"
	got := analyze(t, New([]Check{NewDangerousCallCheck()}), code)
	require.Len(t, got, 2)

	assert.Equal(t, "Dangerous use of eval()", got[0].Title)
	assert.Equal(t, "eval() can execute arbitrary code", got[0].Description)
	assert.Equal(t, "eval(...)", got[0].Snippet)
	assert.Equal(t, bug.SeverityCritical, got[0].Severity)
	assert.Equal(t, 1, *got[0].Line)

	assert.Equal(t, "Dangerous use of exec()", got[1].Title)
	assert.Equal(t, 2, *got[1].Line)
}

func TestDefault_PreOrder(t *testing.T) {
	code := "def handler(req):\n    try:\n        return eval(req)\n    except:\n        return None\n"
	got := analyze(t, Default(), code)
	require.Len(t, got, 3)

	assert.Equal(t, "missing_docstring", got[0].Metadata["check"])
	assert.Equal(t, "dangerous_call", got[1].Metadata["check"])
	assert.Equal(t, "bare_except", got[2].Metadata["check"])
}

func TestAnalyze_NilTree(t *testing.T) {
	assert.Empty(t, Default().Analyze(context.Background(), "x.py", nil))
}

func TestAnalyze_Cancelled(t *testing.T) {
	src, err := parser.DecodeSource("mod.py", []byte("eval(1)\n"))
	require.NoError(t, err)
	tree, err := parser.Python{}.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, Default().Analyze(ctx, "mod.py", tree))
}

type countingCheck struct{ seen *int }

func (countingCheck) Name() string    { return "count" }
func (countingCheck) Kinds() []string { return []string{"identifier"} }
func (c countingCheck) Visit(*sitter.Node, *File) []*bug.Bug {
	*c.seen++
	return nil
}

func TestAnalyze_VisitsEachNodeOnce(t *testing.T) {
	var n int
	analyze(t, New([]Check{countingCheck{seen: &n}}), "a = b + c\nd(a)\n")
	assert.Equal(t, 5, n)
}

func TestAnalyze_RecordsInReportingNodeOrder(t *testing.T) {
	code := "def run(x):\n    \"\"\"Run.\"\"\"\n    try:\n        return eval(x)\n    except:\n        return None\n"
	got := analyze(t, Default(), code)

	var checks []any
	for _, b := range got {
		checks = append(checks, b.Metadata["check"])
	}
	assert.Equal(t, []any{"dangerous_call", "bare_except"}, checks)
}
