package logger

// Option 配置选项函数
type Option func(*Config)

// WithLevel 设置日志级别
func WithLevel(level Level) Option {
	return func(c *Config) {
		c.Level = level
	}
}

// WithLevelName 按名称设置级别（配置文件、环境变量里的 "debug"/"warn" 等）
// 名称无效时 New 返回错误
func WithLevelName(name string) Option {
	return func(c *Config) {
		level, err := ParseLevel(name)
		if err != nil {
			c.err = err
			return
		}
		c.Level = level
	}
}

// WithFormat 设置日志格式
func WithFormat(format Format) Option {
	return func(c *Config) {
		c.Format = format
	}
}

// WithConsoleOutput 同时输出到标准输出
func WithConsoleOutput() Option {
	return func(c *Config) {
		c.Console = true
	}
}

// WithFileOutput 追加写入文件，filename 为空时忽略
func WithFileOutput(filename string) Option {
	return func(c *Config) {
		if filename != "" {
			c.File = filename
		}
	}
}

// WithRotateOutput 按大小轮转写入文件，rotate 为 nil 或未指定文件名时忽略
func WithRotateOutput(rotate *RotateConfig) Option {
	return func(c *Config) {
		if rotate != nil && rotate.Filename != "" {
			c.Rotate = rotate
		}
	}
}

// WithSampling 高频日志采样
func WithSampling(sampling *SamplingConfig) Option {
	return func(c *Config) {
		c.Sampling = sampling
	}
}

// WithCaller 记录调用位置
func WithCaller(enable bool) Option {
	return func(c *Config) {
		c.EnableCaller = enable
	}
}

// WithStacktrace Error 及以上附带堆栈
func WithStacktrace(enable bool) Option {
	return func(c *Config) {
		c.EnableStacktrace = enable
	}
}

// productionOptions 线上预设：info 级别、JSON、控制台、错误带堆栈
func productionOptions() []Option {
	return []Option{
		WithLevel(InfoLevel),
		WithFormat(JSONFormat),
		WithConsoleOutput(),
		WithStacktrace(true),
	}
}

// developmentOptions 本地预设：debug 级别、彩色控制台、带调用位置
func developmentOptions() []Option {
	return []Option{
		WithLevel(DebugLevel),
		WithFormat(ConsoleFormat),
		WithConsoleOutput(),
		WithCaller(true),
		WithStacktrace(true),
	}
}
