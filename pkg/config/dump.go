package config

import (
	"github.com/goccy/go-yaml"
)

// Dump 以 YAML 输出当前生效的全部配置（默认值、文件与环境变量合并后的结果）
func (c *Config) Dump() ([]byte, error) {
	out, err := yaml.Marshal(c.AllSettings())
	if err != nil {
		err = ErrConfigDecodeFailed.WithError(err)
		c.reportError(err)
		return nil, err
	}
	return out, nil
}

// DumpValue 以 YAML 输出任意值（如反序列化后的结构体）
func DumpValue(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, ErrConfigDecodeFailed.WithError(err)
	}
	return out, nil
}
