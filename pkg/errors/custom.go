package errors

import "net/http"

/*
	内置常用错误码
*/

var (
	// ErrServer 服务器错误
	ErrServer = New(1000, "服务器异常", http.StatusInternalServerError)
	// ErrBadRequest 客户端请求错误
	ErrBadRequest = New(1001, "请求异常", http.StatusBadRequest)
	// ErrNotFound 资源不存在
	ErrNotFound = New(1004, "资源不存在", http.StatusNotFound)
	// ErrUnavailable 依赖服务不可用
	ErrUnavailable = New(1005, "服务暂不可用", http.StatusServiceUnavailable)
)
