// Package compare 负责期望输出文件的解析/序列化，
// 以及目标程序输出与期望结果的比较。
package compare

import (
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/BUPT-a-out/test-script/internal/model"
)

// ParseExpected 解析期望输出文件：最后一行是期望退出码，
// 前面的行（如果有）拼成期望的标准输出；只有一行时标准输出为空。
// 空文件解析为空输出且不检查退出码。
func ParseExpected(content string) model.ExpectedResult {
	lines := splitLines(content)
	if len(lines) == 0 {
		return model.ExpectedResult{}
	}

	exitCode := strings.TrimSpace(lines[len(lines)-1])
	stdout := ""
	if len(lines) > 1 {
		stdout = strings.Join(lines[:len(lines)-1], "\n")
	}
	return model.ExpectedResult{Stdout: stdout, ExitCode: exitCode}
}

// FormatExpected 把 (stdout, exitCode) 序列化为期望输出文件格式，
// 与 ParseExpected 互逆。
func FormatExpected(stdout string, exitCode int) string {
	code := strconv.Itoa(exitCode)
	if stdout == "" {
		return code
	}
	return stdout + "\n" + code
}

// splitLines 按行切分，丢弃结尾换行产生的空尾行
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// StdoutEqual 去除两侧结尾换行后全等比较，行内空白不做归一化
func StdoutEqual(expected, actual string) bool {
	return strings.TrimRight(expected, "\n") == strings.TrimRight(actual, "\n")
}

// Diff 输出不匹配时生成 unified diff 供人工排查
func Diff(expected, actual string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.TrimRight(expected, "\n")),
		B:        difflib.SplitLines(strings.TrimRight(actual, "\n")),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// ExitCodeMatches 比较退出码。期望值能解析为整数时按数值比较，
// 否则退回字符串比较，兜住写坏了的期望文件。
// 期望值为空表示不检查。
func ExitCodeMatches(expected string, actual int) bool {
	if expected == "" {
		return true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(expected)); err == nil {
		return n == actual
	}
	return expected == strconv.Itoa(actual)
}
