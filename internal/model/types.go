package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CaseStatus 单个测试点的判定状态
type CaseStatus string

const (
	StatusPassed CaseStatus = "Passed"
	StatusFailed CaseStatus = "Failed"
	// StatusDebugged 调试模式：程序已交给调试器，不做结果比较
	StatusDebugged CaseStatus = "Debugged"
)

// TestCase 一个测试点：源文件加上可选的输入/期望输出文件。
// 构造后不再修改。
type TestCase struct {
	SourcePath   string
	InputPath    string // 为空表示没有输入文件
	ExpectedPath string // 为空表示没有期望输出文件
}

// NewTestCase 构造测试点。输入/期望输出未显式指定时，
// 自动探测源文件同目录下同名的 .in / .out 文件，不存在则留空。
func NewTestCase(sourcePath, inputPath, expectedPath string) TestCase {
	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	if inputPath == "" {
		if p := base + ".in"; fileExists(p) {
			inputPath = p
		}
	}
	if expectedPath == "" {
		if p := base + ".out"; fileExists(p) {
			expectedPath = p
		}
	}
	return TestCase{
		SourcePath:   sourcePath,
		InputPath:    inputPath,
		ExpectedPath: expectedPath,
	}
}

// BaseName 源文件去掉扩展名后的名字，用于命名中间产物和展示
func (t TestCase) BaseName() string {
	name := filepath.Base(t.SourcePath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ExpectedResult 期望结果。Stdout 为期望的标准输出（不含结尾换行），
// ExitCode 为期望退出码的原始文本，比较时优先按整数解析；
// 为空字符串表示不检查退出码。
type ExpectedResult struct {
	Stdout   string
	ExitCode string
}

// ExecutionOutcome 一次目标程序执行的结果
type ExecutionOutcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CompilerInvocation 一条候选编译器命令行，按原样转发，
// 流水线会在末尾追加源文件和 -o 输出文件参数。
type CompilerInvocation []string

func (c CompilerInvocation) String() string {
	return strings.Join(c, " ")
}

// Clone 返回副本，避免调试模式追加 -g 时污染调用方的参数
func (c CompilerInvocation) Clone() CompilerInvocation {
	out := make(CompilerInvocation, len(c))
	copy(out, c)
	return out
}

// Contains 判断命令行中是否已有某个参数
func (c CompilerInvocation) Contains(arg string) bool {
	for _, a := range c {
		if a == arg {
			return true
		}
	}
	return false
}

// CaseResult 单个测试点的执行结果。
// Reason 为较短的失败原因，Diff 为输出不匹配时的 unified diff 全文。
type CaseResult struct {
	Status   CaseStatus
	Reason   string
	Diff     string
	Duration time.Duration
}

// Passed 测试点是否通过（调试交接视为通过）
func (r CaseResult) Passed() bool {
	return r.Status != StatusFailed
}

// BatchResult 批量测试的统计结果
type BatchResult struct {
	Passed int
	Failed int
}

// Total 测试点总数
func (r BatchResult) Total() int { return r.Passed + r.Failed }

// Success 批量测试整体是否成功
func (r BatchResult) Success() bool { return r.Failed == 0 }

// BenchStats 单个编译器变体的性能统计。
// 只有成功的运行参与计时，SuccessRate 单独统计。
type BenchStats struct {
	Label       string
	Command     CompilerInvocation
	Avg         time.Duration
	Min         time.Duration
	Max         time.Duration
	SuccessRate float64
	Samples     int
	// Factor 最快变体平均时间与本变体平均时间之比，
	// 最快者为 1.0，其余不超过 1.0。无样本时为 0。
	Factor float64
}
