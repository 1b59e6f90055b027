/*
 * compose 包 - 执行单元的组合与编排
 *
 * 概述：
 *   flow 框架的核心编排包。把模型、模板、检索器、工具等组件与任意
 *   Lambda 函数统一为执行单元（Unit），再通过组合构造器搭成执行树，
 *   最终绑定为带类型的 Runnable 调用。
 *
 * 核心概念：
 *
 *   1. Unit（执行单元）
 *      - 组合树的节点，构建后不可变
 *      - 来源：Lambda 工厂（InvokableLambda 等）、组件适配器
 *        （ChatModelUnit 等）、组合构造器（Sequence 等）
 *      - 构造器只接受已构建的 Unit 作为子单元，组合结果必为树
 *
 *   2. Runnable（执行面）
 *      - AsRunnable[I, O] 把单元绑定为带类型的调用入口
 *      - 绑定期做类型检查，接口一侧放行到运行期再断言实际值
 *
 * 组合构造器：
 *
 *   - Sequence：顺序执行，前一单元输出作为后一单元输入
 *   - Parallel：命名分支并发执行，汇聚为 map[string]any
 *   - Retry：失败后按退避策略重试被包装单元
 *   - Fallback：依序尝试候选单元，首个成功者胜出
 *
 * 执行形式：
 *   Runnable 提供四种调用方式，底层实现缺失的形式自动派生：
 *
 *   1. Invoke：同步调用，值进值出
 *   2. InvokeAsync：立即返回 Future，结果就绪后取值
 *   3. Batch：输入切片并发执行，并发度由选项控制
 *   4. Stream：返回流读取器，逐块消费输出
 *
 *   BatchItems 是 Batch 的逐项变体：每项独立携带结果或失败，
 *   部分失败不影响其余项。
 *
 * 核心特性：
 *
 *   ✨ 类型安全
 *      - 基于泛型的构建期与绑定期类型检查
 *      - 不兼容的组合在构建时即返回 Configuration 类错误
 *
 *   🔄 流式处理
 *      - 流式实现自动派生同步调用（块拼接），反之亦然（单块流）
 *      - 流副本独立缓冲，回调观察不影响主消费
 *
 *   🎯 错误模型
 *      - 所有失败带有分类（Kind）与单元路径（Path）
 *      - 超时、取消、递归超限、输入校验等分类可程序化判定
 *      - panic 被捕获并归类，以错误形式返回调用方
 *
 *   🎭 回调与事件
 *      - Handler 随上下文向下传播，在每个单元的生命周期时机被调用
 *      - 事件总线异步派发同样的生命周期，慢收集器不阻塞执行
 *
 *   ⚡ 执行选项
 *      - 组件选项在对应组件边界提取（WithChatModelOption 等）
 *      - WithTimeout、WithRecursionLimit、WithMaxConcurrency 控制执行
 *      - WithTags、WithMetadata 随执行上下文透传到回调与事件
 *
 * 快速开始：
 *
 *      tmpl, _ := compose.ChatTemplateUnit(template)
 *      mdl, _ := compose.ChatModelUnit(chatModel)
 *      seq, _ := compose.Sequence(tmpl, mdl)
 *
 *      r, _ := compose.AsRunnable[map[string]any, *schema.Message](seq)
 *      out, _ := r.Invoke(ctx, map[string]any{"query": "你好"})
 *
 * 设计理念：
 *
 *   1. 组合优于继承
 *      - 通过组合小单元构建复杂流程，而不是实现庞大的基类
 *
 *   2. 构建与执行分离
 *      - 构建期校验结构与类型，执行期只做运行态检查
 *
 *   3. 同步与流式对等
 *      - 两种形式互相派生，单元作者任选其一实现即可
 *
 *   4. 失败是数据
 *      - 错误分类与路径让重试、降级、批处理成为可编程的策略
 *
 * 相关包：
 *   - github.com/favbox/flow/components: 组件接口定义
 *   - github.com/favbox/flow/schema: 消息、流与通用数据结构
 *   - github.com/favbox/flow/callbacks: 回调处理器与事件总线
 *   - github.com/favbox/flow/utils/callbacks: 类型化回调分发与日志收集
 */

package compose
