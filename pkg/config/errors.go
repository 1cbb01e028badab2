package config

import (
	"net/http"

	"github.com/tokmz/roomcast/pkg/errors"
)

// 配置包专用错误定义
var (
	// ErrConfigNotFound 配置文件未找到
	ErrConfigNotFound = errors.New(3101, "配置文件未找到", http.StatusInternalServerError)
	// ErrConfigReadFailed 配置读取失败
	ErrConfigReadFailed = errors.New(3102, "配置读取失败", http.StatusInternalServerError)
	// ErrConfigDecodeFailed 配置解析失败
	ErrConfigDecodeFailed = errors.New(3103, "配置解析失败", http.StatusInternalServerError)
)
