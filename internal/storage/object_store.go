package storage

import "context"

// ObjectStore 路径寻址的对象存储抽象。
// 生产环境后端是云端 bucket；本地与测试用文件系统实现。
type ObjectStore interface {
	// Put 写入对象并返回公开访问 URL
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)

	// PublicURL 返回对象的公开访问 URL (不校验对象是否存在)
	PublicURL(path string) string
}
