// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: 在 context 中注入/提取 RPC 调用信息（操作 ID、尝试序号、方法名）
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用全局变量
//   - 日志通过 xlog 的 EnrichHandler 自动提取这些字段
package context
