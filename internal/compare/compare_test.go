package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpected(t *testing.T) {
	t.Run("stdout and exit code", func(t *testing.T) {
		res := ParseExpected("42\n0")
		assert.Equal(t, "42", res.Stdout)
		assert.Equal(t, "0", res.ExitCode)
	})

	t.Run("single line is exit code only", func(t *testing.T) {
		res := ParseExpected("5")
		assert.Equal(t, "", res.Stdout)
		assert.Equal(t, "5", res.ExitCode)
	})

	t.Run("trailing newline ignored", func(t *testing.T) {
		res := ParseExpected("hello\nworld\n3\n")
		assert.Equal(t, "hello\nworld", res.Stdout)
		assert.Equal(t, "3", res.ExitCode)
	})

	t.Run("empty file checks nothing", func(t *testing.T) {
		res := ParseExpected("")
		assert.Equal(t, "", res.Stdout)
		assert.Equal(t, "", res.ExitCode)
	})

	t.Run("exit code line is trimmed", func(t *testing.T) {
		res := ParseExpected("out\n  7  \n")
		assert.Equal(t, "7", res.ExitCode)
	})
}

func TestExpectedRoundTrip(t *testing.T) {
	cases := []struct {
		stdout   string
		exitCode int
	}{
		{"", 0},
		{"", 5},
		{"42", 0},
		{"hello\nworld", 1},
		{"a\nb\nc", 255},
	}
	for _, tc := range cases {
		serialized := FormatExpected(tc.stdout, tc.exitCode)
		parsed := ParseExpected(serialized)
		require.Equal(t, tc.stdout, parsed.Stdout, "stdout round trip for %q", serialized)
		require.True(t, ExitCodeMatches(parsed.ExitCode, tc.exitCode), "exit code round trip for %q", serialized)
	}
}

func TestStdoutEqual(t *testing.T) {
	assert.True(t, StdoutEqual("abc", "abc"))
	assert.True(t, StdoutEqual("abc", "abc\n"))
	assert.True(t, StdoutEqual("abc\n\n", "abc"))
	assert.False(t, StdoutEqual("abc", "abd"))
	// 行内空白不做归一化
	assert.False(t, StdoutEqual("a b", "a  b"))
	assert.False(t, StdoutEqual("abc", " abc"))
}

// 比较等价于双方去掉结尾换行后的全等
func TestStdoutEqualEquivalence(t *testing.T) {
	samples := []string{"", "\n", "x", "x\n", "x\n\n", "x\ny", "x\ny\n", " x "}
	for _, a := range samples {
		for _, b := range samples {
			want := strings.TrimRight(a, "\n") == strings.TrimRight(b, "\n")
			assert.Equal(t, want, StdoutEqual(a, b), "a=%q b=%q", a, b)
		}
	}
}

func TestExitCodeMatches(t *testing.T) {
	assert.True(t, ExitCodeMatches("0", 0))
	assert.True(t, ExitCodeMatches(" 42 ", 42))
	assert.False(t, ExitCodeMatches("0", 1))
	// 期望文件写坏时退回字符串比较
	assert.False(t, ExitCodeMatches("abc", 0))
	// 空期望不检查
	assert.True(t, ExitCodeMatches("", 123))
}

func TestDiff(t *testing.T) {
	diff := Diff("hello\nworld", "hello\nthere")
	assert.Contains(t, diff, "-world")
	assert.Contains(t, diff, "+there")
	assert.Contains(t, diff, "expected")
	assert.Contains(t, diff, "actual")
}
