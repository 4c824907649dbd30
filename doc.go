// Package devwatch 监控项目源码目录，在有意义的变更发生时重启开发服务器。
//
// 核心特点：
//   - 递归监控指定路径（基于 fsnotify），新建的子目录自动加入监控
//   - ChangeFilter 只接受 Create / Modify 事件，并按扩展名允许列表与忽略规则过滤
//   - 忽略规则使用 glob 语法，支持 ** 跨目录匹配，写错的规则只会被跳过
//   - Debouncer 保证两次重启之间的最小间隔，窗口内的事件直接丢弃
//   - Supervisor 同一时刻最多托管一个子进程，重启时先终止并回收旧进程
//   - 收到 Ctrl+C / SIGTERM 后停止子进程并退出
//
// 注意：
//   - 重启是同步的：终止旧进程、启动新进程期间到达的事件会排队，重启完成后再判断
//   - 终止请求发出后等待 StopTimeout（默认 5s），超时则强制 kill
//   - Unix 上子进程运行在独立的进程组中，停止时整组结束
//   - Windows 上没有 SIGTERM，终止请求即结束进程
//
// 推荐使用方式：
//  1. 通过 LoadConfig + FileConfig.Resolve 得到 WatchConfig 与 CommandConfig
//  2. 调用 Run(ctx, watch, cmd, WithLogger(logger))
//  3. Run 在收到中断或 ctx 被取消后返回
//
// 并发安全：
//   - 控制循环只在一个 goroutine 中运行，Supervisor 与 Debouncer 的状态只在这里修改
//   - Debouncer.Accept、Supervisor 的方法以及 PathMatcher 都可以并发调用
//   - 中断处理只负责取消 ctx，不直接操作子进程
package devwatch
