package judge

// ConfigurationError 整体配置错误（目录传给了非 run 命令、
// bench 变体不足两个等），在任何流水线工作开始前报出，
// 是唯一会让整个程序中止的错误类别。
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}
