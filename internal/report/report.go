// Package report 终端展示层：颜色、图标、进度条和各类汇总输出。
// 核心流水线不依赖本包，只产出结构化结果由这里渲染。
package report

import (
	"fmt"
	"strings"

	"github.com/BUPT-a-out/test-script/internal/model"
)

// ANSI 颜色码
const (
	Red     = "\033[91m"
	Green   = "\033[92m"
	Yellow  = "\033[93m"
	Blue    = "\033[94m"
	Magenta = "\033[95m"
	Cyan    = "\033[96m"
	Gray    = "\033[90m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Reset   = "\033[0m"
)

// Colored 给文本着色
func Colored(text, color string) string {
	return color + text + Reset
}

// Icon 状态图标
func Icon(status string) string {
	switch status {
	case "compiling":
		return "🔨"
	case "linking":
		return "🔗"
	case "running":
		return "⚡"
	case "testing":
		return "🧪"
	case "passed":
		return "✅"
	case "failed":
		return "❌"
	case "warning":
		return "⚠️"
	case "info":
		return "ℹ️"
	default:
		return "•"
	}
}

// ProgressBar 生成定宽进度条
func ProgressBar(current, total, width int) string {
	if total == 0 {
		return "[" + strings.Repeat("=", width) + "]"
	}
	filled := width * current / total
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func clearLine() {
	fmt.Print("\r" + strings.Repeat(" ", 80) + "\r")
}

// PrintCaseResult 单文件模式下打印测试点结果
func PrintCaseResult(name string, res model.CaseResult) {
	switch res.Status {
	case model.StatusPassed:
		fmt.Printf("\n%s %s%s测试通过%s ✓\n", Icon("passed"), Green, Bold, Reset)
	case model.StatusDebugged:
		fmt.Printf("%s 调试程序已复制到: %s\n", Icon("info"), Colored(res.Reason, Magenta))
	default:
		fmt.Printf("\n%s %s%s测试失败%s\n", Icon("failed"), Red, Bold, Reset)
		if res.Reason != "" {
			fmt.Printf("   %s\n", Colored(res.Reason, Red))
		}
		if res.Diff != "" {
			fmt.Printf("\n   %s%s输出差异对比:%s\n", Yellow, Bold, Reset)
			printDiff(res.Diff)
		}
	}
}

// printDiff 按 unified diff 的行前缀着色
func printDiff(diff string) {
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			fmt.Printf("   %s\n", Colored(line, Cyan))
		case strings.HasPrefix(line, "@@"):
			fmt.Printf("   %s\n", Colored(line, Magenta))
		case strings.HasPrefix(line, "-"):
			fmt.Printf("   %s\n", Colored(line, Red))
		case strings.HasPrefix(line, "+"):
			fmt.Printf("   %s\n", Colored(line, Green))
		default:
			fmt.Printf("   %s\n", line)
		}
	}
}

// BatchHookPrinter 批量测试的逐点进度和结果输出
type BatchHookPrinter struct{}

func (BatchHookPrinter) OnCaseStart(index, total int, name string) {
	clearLine()
	percent := float64(index) / float64(total) * 100
	fmt.Printf("%s 测试中 %s %5.1f%% [%d/%d] %s",
		Icon("testing"), ProgressBar(index, total, 20), percent, index+1, total, Colored(name, Cyan))
}

func (BatchHookPrinter) OnCaseResult(index, total int, name string, res model.CaseResult) {
	clearLine()
	if res.Passed() {
		fmt.Printf("%s [%3d/%d] %-40s %s%s[PASS]%s\n",
			Icon("passed"), index+1, total, name, Green, Bold, Reset)
		return
	}
	fmt.Printf("%s [%3d/%d] %-40s %s%s[FAIL]%s\n",
		Icon("failed"), index+1, total, name, Red, Bold, Reset)
	for i, line := range firstLines(res.Reason, 5) {
		if i == 0 {
			fmt.Printf("    %s\n", Colored("↳ "+line, Gray))
		} else {
			fmt.Printf("      %s\n", Colored(line, Gray))
		}
	}
}

// PrintBatchHeader 批量测试开始信息
func PrintBatchHeader(dir string, total int) {
	rule := Colored(strings.Repeat("━", 60), Blue)
	fmt.Printf("\n%s\n", rule)
	fmt.Printf("%s %s%s开始批量测试%s\n", Icon("testing"), Blue, Bold, Reset)
	fmt.Printf("   📁 测试目录: %s\n", Colored(dir, Dim))
	fmt.Printf("   📄 测试文件: %s 个\n", Colored(fmt.Sprintf("%d", total), Bold))
	fmt.Printf("%s\n\n", rule)
}

// PrintBatchSummary 批量测试结果总结
func PrintBatchSummary(res model.BatchResult) {
	rule := Colored(strings.Repeat("━", 60), Blue)
	fmt.Printf("\n%s\n", rule)
	fmt.Printf("%s%s%s%s\n", Blue, Bold, center("📊 测试结果总结", 60), Reset)
	fmt.Printf("%s\n\n", rule)

	fmt.Printf("  %s 通过: %s%s%4d%s 个测试\n", Icon("passed"), Green, Bold, res.Passed, Reset)
	fmt.Printf("  %s 失败: %s%s%4d%s 个测试\n", Icon("failed"), Red, Bold, res.Failed, Reset)
	fmt.Printf("  📋 总计: %s%s%4d%s 个测试\n", Blue, Bold, res.Total(), Reset)

	rate := 0.0
	if res.Total() > 0 {
		rate = float64(res.Passed) / float64(res.Total()) * 100
	}
	fmt.Printf("\n  成功率: %s%5.1f%%%s\n", Bold, rate, Reset)

	color := Red
	if rate >= 90 {
		color = Green
	} else if rate >= 70 {
		color = Yellow
	}
	fmt.Printf("  %s%s%s\n", color, ProgressBar(res.Passed, res.Total(), 40), Reset)
	fmt.Printf("\n%s\n", rule)
}

// PrintBenchReport 各变体统计和排名
func PrintBenchReport(stats []model.BenchStats) {
	for _, st := range stats {
		fmt.Println()
		fmt.Printf("%s%s%s%s\n", Cyan, Bold, st.Label, Reset)
		if st.Samples == 0 {
			fmt.Printf("  %s\n", Colored("所有运行都失败了", Red))
			continue
		}
		fmt.Printf("  平均时间: %s\n", Colored(fmt.Sprintf("%.3fs", st.Avg.Seconds()), Green))
		fmt.Printf("  最短时间: %s\n", Colored(fmt.Sprintf("%.3fs", st.Min.Seconds()), Green))
		fmt.Printf("  最长时间: %s\n", Colored(fmt.Sprintf("%.3fs", st.Max.Seconds()), Green))
		fmt.Printf("  成功率:   %s\n", Colored(fmt.Sprintf("%.1f%%", st.SuccessRate*100), Green))
	}

	fmt.Printf("\n%s\n", Colored(strings.Repeat("=", 60), Blue))
	fmt.Printf("%s%s性能对比结果%s\n", Blue, Bold, Reset)
	fmt.Printf("%s\n", Colored(strings.Repeat("=", 60), Blue))

	for i, st := range stats {
		color := Red
		if i == 0 {
			color = Green
		} else if i == 1 {
			color = Yellow
		}
		fmt.Printf("%s%s%d. %s%s\n", color, Bold, i+1, st.Label, Reset)
		if st.Samples == 0 {
			fmt.Printf("   %s\n", Colored("无有效样本", color))
			continue
		}
		fmt.Printf("   平均时间: %s\n", Colored(fmt.Sprintf("%.3fs", st.Avg.Seconds()), color))
		fmt.Printf("   成功率:   %s\n", Colored(fmt.Sprintf("%.1f%%", st.SuccessRate*100), color))
		if i > 0 {
			fmt.Printf("   相对最快: %s\n", Colored(fmt.Sprintf("%.2fx", st.Factor), color))
		}
	}
}

func firstLines(s string, n int) []string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func center(s string, width int) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
