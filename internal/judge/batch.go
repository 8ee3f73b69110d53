package judge

import (
	"context"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/model"
)

// BatchHooks 批量执行过程中的展示回调，由上层的报告层提供，
// 任一字段可为 nil。
type BatchHooks struct {
	OnCaseStart  func(index, total int, name string)
	OnCaseResult func(index, total int, name string, res model.CaseResult)
}

// RunBatch 按给定顺序逐个执行测试点（调用方负责按名字排序），
// 个别测试点失败不会中断后续测试点，结果按供给顺序报告。
// 批量模式从不进入交互和调试。
func (s *Service) RunBatch(ctx context.Context, cases []model.TestCase, opts Options, hooks BatchHooks) model.BatchResult {
	opts.Debug = false
	opts.AllowInteractive = false

	var result model.BatchResult
	total := len(cases)

	for i, tc := range cases {
		name := tc.BaseName()
		if hooks.OnCaseStart != nil {
			hooks.OnCaseStart(i, total, name)
		}

		res := s.RunCase(ctx, tc, opts)
		if res.Passed() {
			result.Passed++
		} else {
			result.Failed++
			s.logger.Info("case failed",
				zap.String("case", name), zap.String("reason", res.Reason))
		}

		if hooks.OnCaseResult != nil {
			hooks.OnCaseResult(i, total, name, res)
		}
	}

	return result
}
