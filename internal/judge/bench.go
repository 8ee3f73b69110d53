package judge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/model"
)

// BenchHooks 性能对比过程中的展示回调，任一字段可为 nil
type BenchHooks struct {
	OnVariantStart func(index, total int, cmd model.CompilerInvocation)
	OnRun          func(run, total int, duration time.Duration, ok bool)
}

// RunBenchmark 让同一份源文件依次通过多个编译器变体，每个变体
// 重复 runs 次{编译、链接、运行、计时}。某次重复中任何阶段失败
// 就跳过这一次（不计入零耗时样本），只有成功的重复参与计时统计，
// 成功率单独记录。结果按平均耗时升序排好，Factor 为最快变体
// 平均时间与本变体之比。
// 变体数不足两个在任何执行发生前就按配置错误拒绝。
func (s *Service) RunBenchmark(ctx context.Context, sourcePath, inputPath string, variants []model.CompilerInvocation, opts Options, runs int, hooks BenchHooks) ([]model.BenchStats, error) {
	if len(variants) < 2 {
		return nil, &ConfigurationError{Msg: "benchmark requires at least two compiler commands, separated by ';'"}
	}

	stdin := ""
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, &ConfigurationError{Msg: fmt.Sprintf("failed to read input file: %v", err)}
		}
		stdin = string(data)
	}

	stats := make([]model.BenchStats, 0, len(variants))
	for i, cmd := range variants {
		if hooks.OnVariantStart != nil {
			hooks.OnVariantStart(i, len(variants), cmd)
		}
		stats = append(stats, s.benchVariant(ctx, sourcePath, stdin, cmd, opts, runs, i, hooks))
	}

	rank(stats)
	return stats, nil
}

func (s *Service) benchVariant(ctx context.Context, sourcePath, stdin string, cmd model.CompilerInvocation, opts Options, runs, index int, hooks BenchHooks) model.BenchStats {
	stats := model.BenchStats{
		Label:   fmt.Sprintf("compiler %d: %s", index+1, cmd.String()),
		Command: cmd,
	}

	var times []time.Duration
	success := 0

	for run := 0; run < runs; run++ {
		duration, ok := s.benchRun(ctx, sourcePath, stdin, cmd, opts)
		if hooks.OnRun != nil {
			hooks.OnRun(run, runs, duration, ok)
		}
		if !ok {
			continue
		}
		times = append(times, duration)
		success++
	}

	stats.SuccessRate = float64(success) / float64(runs)
	stats.Samples = len(times)
	if len(times) > 0 {
		var sum time.Duration
		stats.Min = times[0]
		stats.Max = times[0]
		for _, t := range times {
			sum += t
			if t < stats.Min {
				stats.Min = t
			}
			if t > stats.Max {
				stats.Max = t
			}
		}
		stats.Avg = sum / time.Duration(len(times))
	}

	s.logger.Info("benchmark variant finished",
		zap.String("variant", stats.Label),
		zap.Duration("avg", stats.Avg),
		zap.Float64("success_rate", stats.SuccessRate))

	return stats
}

// benchRun 一次完整的{编译、链接、运行}重复，返回运行耗时。
// 任何阶段失败或程序非零退出都算这次失败。
func (s *Service) benchRun(ctx context.Context, sourcePath, stdin string, cmd model.CompilerInvocation, opts Options) (time.Duration, bool) {
	tempDir, err := os.MkdirTemp("", "syt-bench-*")
	if err != nil {
		return 0, false
	}
	defer os.RemoveAll(tempDir)

	base := model.TestCase{SourcePath: sourcePath}.BaseName()
	asmPath := filepath.Join(tempDir, base+".s")
	exePath := filepath.Join(tempDir, base)

	if err := s.compile.Compile(ctx, cmd, sourcePath, asmPath); err != nil {
		return 0, false
	}
	if err := s.link.Link(ctx, asmPath, opts.LibPath, exePath, false); err != nil {
		return 0, false
	}

	outcome, err := s.execute.Execute(ctx, exePath, stdin, opts.Simulator, false)
	if err != nil || outcome.ExitCode != 0 {
		return 0, false
	}
	return outcome.Duration, true
}

// rank 有样本的变体按平均耗时升序排在前面，没有任何成功运行的
// 变体排在末尾且 Factor 保持 0。
func rank(stats []model.BenchStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if (stats[i].Samples > 0) != (stats[j].Samples > 0) {
			return stats[i].Samples > 0
		}
		return stats[i].Avg < stats[j].Avg
	})

	if len(stats) == 0 || stats[0].Samples == 0 {
		return
	}
	fastest := stats[0].Avg
	for i := range stats {
		if stats[i].Samples == 0 || stats[i].Avg == 0 {
			continue
		}
		stats[i].Factor = float64(fastest) / float64(stats[i].Avg)
	}
}
