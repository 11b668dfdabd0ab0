// Package xconf 基于 koanf 加载 YAML/JSON 配置，支持并发安全的重载与文件监视。
//
// 典型用法是加载 xcall.RetryConfig：
//
//	cfg, err := xconf.New("/etc/xcall/retry.yaml")
//	if err != nil {
//		return err
//	}
//	rc, err := xcall.LoadRetryConfig(cfg, "retry")
//
// # 快照语义
//
// Reload 解析成功后原子替换底层 koanf 实例，解析失败时保留旧配置。
// Client() 返回当前快照，Reload 之后旧指针仍可用但数据已过期，
// 每次使用时调用 Client()，不要长期缓存。
//
// # 监视
//
// Watch 基于 fsnotify 监视配置文件所在目录（兼容编辑器的原子写入），
// 内置防抖。从字节数据创建的 Config 不支持 Reload 与 Watch。
package xconf
