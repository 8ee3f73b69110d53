package judge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUPT-a-out/test-script/internal/model"
)

func TestRunBatchConservation(t *testing.T) {
	// 程序回显 .in 的第一行并退出 0
	h := newHarness(t, "read line\necho \"$line\"\nexit 0")

	mkCase := func(name, input, fixture string) model.TestCase {
		src := filepath.Join(h.dir, name+".sy")
		require.NoError(t, os.WriteFile(src, []byte("int main() {}"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(h.dir, name+".in"), []byte(input), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(h.dir, name+".out"), []byte(fixture), 0644))
		return model.NewTestCase(src, "", "")
	}

	cases := []model.TestCase{
		mkCase("a_pass", "x\n", "x\n0"),
		mkCase("b_fail", "x\n", "y\n0"),
		mkCase("c_pass", "z\n", "z\n0"),
	}

	var order []string
	res := h.svc.RunBatch(context.Background(), cases, h.opts, BatchHooks{
		OnCaseResult: func(index, total int, name string, r model.CaseResult) {
			order = append(order, name)
			assert.Equal(t, 3, total)
		},
	})

	assert.Equal(t, 2, res.Passed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, len(cases), res.Total())
	assert.False(t, res.Success())
	// 结果按供给顺序报告
	assert.Equal(t, []string{"a_pass", "b_fail", "c_pass"}, order)
}

func TestRunBatchEmpty(t *testing.T) {
	h := newHarness(t, "exit 0")
	res := h.svc.RunBatch(context.Background(), nil, h.opts, BatchHooks{})
	assert.Equal(t, model.BatchResult{}, res)
	assert.True(t, res.Success())
}

func TestRunBatchDoesNotStopOnFailure(t *testing.T) {
	h := newHarness(t, "exit 0")

	// 第一个测试点编译就失败，后面的照常执行
	broken := filepath.Join(h.dir, "broken.sy")
	require.NoError(t, os.WriteFile(broken, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "broken.out"), []byte("0"), 0644))

	ok := h.newCase(t, "fine", "0")

	opts := h.opts
	brokenCC := writeScript(t, h.dir, "sometimescc",
		`case "$1" in
  *broken.sy) echo "boom" >&2; exit 1 ;;
esac
`+parseOutSnippet+`echo ".text" > "$out"`)
	opts.Compiler = model.CompilerInvocation{brokenCC}

	res := h.svc.RunBatch(context.Background(), []model.TestCase{
		model.NewTestCase(broken, "", ""),
		ok,
	}, opts, BatchHooks{})

	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 1, res.Failed)
}
