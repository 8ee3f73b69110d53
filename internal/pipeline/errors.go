package pipeline

import (
	"fmt"
	"strings"
)

const stderrExcerptLines = 5

// excerpt 截取 stderr 的前几行用于面向使用者的报告，
// 完整内容仍保留在错误结构里。
func excerpt(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > stderrExcerptLines {
		lines = lines[:stderrExcerptLines]
	}
	return strings.Join(lines, "\n")
}

// CompileError 被测编译器报错，或声称成功但没有产出汇编文件
type CompileError struct {
	ExitCode int
	Stderr   string
}

func (e *CompileError) Error() string {
	if msg := excerpt(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("compilation failed (exit code %d)", e.ExitCode)
}

// LinkError 汇编链接失败
type LinkError struct {
	ExitCode int
	Stderr   string
}

func (e *LinkError) Error() string {
	if msg := excerpt(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("linking failed (exit code %d)", e.ExitCode)
}

// EmulatorNotFoundError 模拟器不在 PATH 中，区别于"工具跑了但失败"
type EmulatorNotFoundError struct {
	Name string
}

func (e *EmulatorNotFoundError) Error() string {
	return fmt.Sprintf("simulator '%s' not found", e.Name)
}
