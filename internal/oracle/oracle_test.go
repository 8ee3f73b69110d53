package oracle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/runner"
)

func TestMain(m *testing.M) {
	if err := config.LoadConfig(filepath.Join(os.TempDir(), "syt-no-such-config.yaml")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const sampleHeader = `#ifndef __SYLIB_H_
#define __SYLIB_H_

struct timeval _sysy_start, _sysy_end;
#define _SYSY_N 1024
int _sysy_l1[_SYSY_N], _sysy_l2[_SYSY_N];
int _sysy_h[_SYSY_N], _sysy_m[_SYSY_N], _sysy_s[_SYSY_N], _sysy_us[_SYSY_N];
int _sysy_idx;

#endif
`

func TestRewriteHeader(t *testing.T) {
	rewritten, err := rewriteHeader(sampleHeader)
	require.NoError(t, err)

	assert.Contains(t, rewritten, "extern struct timeval _sysy_start, _sysy_end;")
	assert.Contains(t, rewritten, "extern int _sysy_l1[_SYSY_N], _sysy_l2[_SYSY_N];")
	assert.Contains(t, rewritten, "extern int _sysy_h[_SYSY_N], _sysy_m[_SYSY_N], _sysy_s[_SYSY_N], _sysy_us[_SYSY_N];")
	assert.Contains(t, rewritten, "extern int _sysy_idx;")
	// 原始定义行不再出现
	assert.NotContains(t, rewritten, "\nint _sysy_idx;")
}

func TestRewriteHeaderShippedFile(t *testing.T) {
	// 仓库自带的 sylib.h 必须满足四行替换约定
	data, err := os.ReadFile(filepath.Join("..", "..", "lib", "sylib.h"))
	require.NoError(t, err)

	_, err = rewriteHeader(string(data))
	require.NoError(t, err)
}

func TestRewriteHeaderLayoutChanged(t *testing.T) {
	broken := strings.Replace(sampleHeader, "int _sysy_idx;", "int _sysy_index;", 1)
	_, err := rewriteHeader(broken)
	require.Error(t, err)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "_sysy_idx")
}

func TestSynthesizeMissingSupportFiles(t *testing.T) {
	o := New(runner.NewLocalRunner(), zap.NewNop(), t.TempDir())
	_, err := o.Synthesize(context.Background(), "prog.sy", "")
	require.Error(t, err)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "sylib")
}

func TestSynthesizeNoHostCompiler(t *testing.T) {
	libDir := writeSupportFiles(t)

	old := config.GlobalConfig.Oracle.Compilers
	config.GlobalConfig.Oracle.Compilers = []string{"no-such-cc-1", "no-such-cc-2"}
	t.Cleanup(func() { config.GlobalConfig.Oracle.Compilers = old })

	o := New(runner.NewLocalRunner(), zap.NewNop(), libDir)
	src := filepath.Join(libDir, "prog.sy")
	require.NoError(t, os.WriteFile(src, []byte("int main() { return 0; }"), 0644))

	_, err := o.Synthesize(context.Background(), src, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no host compiler")
	assert.Contains(t, err.Error(), "no-such-cc-1")
}

// 假的主机编译器：把一个固定脚本当作编译产物写到 -o 目标
func TestSynthesizeWithFakeCompiler(t *testing.T) {
	libDir := writeSupportFiles(t)

	toolDir := t.TempDir()
	fakeCC := `#!/bin/sh
out=
prev=
for a in "$@"; do
  [ "$prev" = "-o" ] && out="$a"
  prev="$a"
done
cat <<'PROGEOF' > "$out"
#!/bin/sh
read line
echo "ref: $line"
exit 4
PROGEOF
chmod +x "$out"
`
	require.NoError(t, os.WriteFile(filepath.Join(toolDir, "fake-host-cc"), []byte(fakeCC), 0755))
	t.Setenv("PATH", toolDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	old := config.GlobalConfig.Oracle.Compilers
	config.GlobalConfig.Oracle.Compilers = []string{"fake-host-cc"}
	t.Cleanup(func() { config.GlobalConfig.Oracle.Compilers = old })

	o := New(runner.NewLocalRunner(), zap.NewNop(), libDir)
	src := filepath.Join(libDir, "prog.sy")
	require.NoError(t, os.WriteFile(src, []byte("int main() { return 0; }"), 0644))

	first, err := o.Synthesize(context.Background(), src, "hello\n")
	require.NoError(t, err)
	assert.Equal(t, "ref: hello", first.Stdout)
	assert.Equal(t, "4", first.ExitCode)

	// 相同输入的两次合成结果一致
	second, err := o.Synthesize(context.Background(), src, "hello\n")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func writeSupportFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sylib.c"), []byte("/* lib */\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sylib.h"), []byte(sampleHeader), 0644))
	return dir
}
