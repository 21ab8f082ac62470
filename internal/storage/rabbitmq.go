package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"careermate-go/internal/config"
	"careermate-go/internal/logger"
	"careermate-go/internal/types"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageQueue 消息队列接口
type MessageQueue interface {
	// 发布JSON格式消息
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error

	// 发布档案同步事件
	PublishProfileSyncEvent(ctx context.Context, candidateID uint, action string) error

	// 关闭连接
	Close() error
}

// 确保RabbitMQ实现了MessageQueue接口
var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ 提供消息队列功能
type RabbitMQ struct {
	conn         *amqp.Connection
	channelPool  sync.Pool
	exchangeMap  map[string]bool // 记录已声明的exchange
	queueMap     map[string]bool // 记录已声明的queue
	bindingMap   map[string]bool // 记录已创建的binding (key格式: "exchange:queue:routingKey")
	topologyMu   sync.Mutex      // 保护三个声明缓存map
	publishMutex sync.Mutex      // 保护发布操作
	cfg          *config.RabbitMQConfig
}

// NewRabbitMQ 创建RabbitMQ客户端并声明档案同步拓扑
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器 (%s): %w", cfg.URL, err)
	}

	mq := &RabbitMQ{
		conn:        conn,
		exchangeMap: make(map[string]bool),
		queueMap:    make(map[string]bool),
		bindingMap:  make(map[string]bool),
		cfg:         cfg,
	}

	// 初始化channel池
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, poolErr := conn.Channel()
			if poolErr != nil {
				logger.Error().Err(poolErr).Msg("创建RabbitMQ通道失败")
				return nil
			}
			return ch
		},
	}

	// 测试连接和通道
	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道")
	}
	mq.putChannel(testCh)

	// 声明档案同步的交换机、队列与绑定
	if err := mq.setupProfileSyncTopology(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明档案同步拓扑失败: %w", err)
	}

	logger.Info().Str("url", cfg.URL).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// setupProfileSyncTopology 声明档案同步所需的交换机、队列与绑定。
// sync与delete两个路由键都绑定到同一个队列，消费端按事件动作分发。
func (r *RabbitMQ) setupProfileSyncTopology() error {
	if err := r.EnsureExchange(r.cfg.ProfileEventsExchange, "topic", true); err != nil {
		return err
	}
	if err := r.EnsureQueue(r.cfg.ProfileSyncQueue, true); err != nil {
		return err
	}
	if err := r.BindQueue(r.cfg.ProfileSyncQueue, r.cfg.ProfileEventsExchange, r.cfg.SyncRoutingKey); err != nil {
		return err
	}
	return r.BindQueue(r.cfg.ProfileSyncQueue, r.cfg.ProfileEventsExchange, r.cfg.DeleteRoutingKey)
}

// 获取可用通道
func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch := r.channelPool.Get()
	if ch == nil {
		newCh, err := r.conn.Channel()
		if err != nil {
			logger.Error().Err(err).Msg("创建新RabbitMQ通道失败")
			return nil
		}
		return newCh
	}
	return ch.(*amqp.Channel)
}

// 归还通道到池
func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange 确保exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}

	r.topologyMu.Lock()
	defer r.topologyMu.Unlock()

	if _, exists := r.exchangeMap[exchangeName]; exists {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	err := ch.ExchangeDeclare(
		exchangeName, // exchange名称
		exchangeType, // exchange类型
		durable,      // 持久化
		false,        // 自动删除
		false,        // 内部专用
		false,        // 非阻塞
		nil,          // 参数
	)
	if err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	logger.Info().Str("exchange", exchangeName).Str("type", exchangeType).Msg("已确保exchange存在")
	return nil
}

// EnsureQueue 确保队列存在
func (r *RabbitMQ) EnsureQueue(queueName string, durable bool) error {
	r.topologyMu.Lock()
	defer r.topologyMu.Unlock()

	if _, exists := r.queueMap[queueName]; exists {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	_, err := ch.QueueDeclare(
		queueName, // 队列名称
		durable,   // 持久化
		false,     // 自动删除
		false,     // 独占
		false,     // 非阻塞
		nil,       // 参数
	)
	if err != nil {
		return fmt.Errorf("声明队列失败: %w", err)
	}

	r.queueMap[queueName] = true
	logger.Info().Str("queue", queueName).Msg("已确保队列存在")
	return nil
}

// BindQueue 绑定队列到exchange
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	r.topologyMu.Lock()
	defer r.topologyMu.Unlock()

	bindingKey := fmt.Sprintf("%s:%s:%s", exchangeName, queueName, routingKey)
	if _, exists := r.bindingMap[bindingKey]; exists {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	err := ch.QueueBind(
		queueName,    // 队列名
		routingKey,   // 路由键
		exchangeName, // exchange名
		false,        // 非阻塞
		nil,          // 参数
	)
	if err != nil {
		return fmt.Errorf("绑定队列到exchange失败: %w", err)
	}

	r.bindingMap[bindingKey] = true
	logger.Info().
		Str("queue", queueName).
		Str("exchange", exchangeName).
		Str("routing_key", routingKey).
		Msg("已绑定队列到exchange")
	return nil
}

// PublishMessage 发布消息到exchange
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool, messageID string) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	var deliveryMode uint8 = 1 // 非持久化
	if persistent {
		deliveryMode = 2 // 持久化
	}

	return ch.PublishWithContext(
		ctx,
		exchangeName, // exchange名
		routingKey,   // 路由键
		false,        // 强制
		false,        // 立即
		amqp.Publishing{
			DeliveryMode: deliveryMode,
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         message,
			Timestamp:    time.Now(),
		},
	)
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent, uuid.NewString())
}

// PublishProfileSyncEvent 发布档案同步事件。
// action为sync或delete，路由键按动作选择。
func (r *RabbitMQ) PublishProfileSyncEvent(ctx context.Context, candidateID uint, action string) error {
	routingKey := r.cfg.SyncRoutingKey
	if action == types.ProfileActionDelete {
		routingKey = r.cfg.DeleteRoutingKey
	}

	event := types.ProfileSyncEvent{
		CandidateID: candidateID,
		Action:      action,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().Unix(),
	}

	if err := r.PublishJSON(ctx, r.cfg.ProfileEventsExchange, routingKey, event, true); err != nil {
		return fmt.Errorf("发布档案同步事件失败: %w", err)
	}

	logger.Ctx(ctx).Debug().
		Uint("candidate_id", candidateID).
		Str("action", action).
		Str("event_id", event.EventID).
		Msg("已发布档案同步事件")
	return nil
}

// StartProfileSyncConsumer 启动档案同步消费者。
// handler返回true表示处理成功并Ack，返回false表示Nack并重新入队。
// 返回的stop通道关闭后所有worker退出。
func (r *RabbitMQ) StartProfileSyncConsumer(handler func(event types.ProfileSyncEvent) bool) (chan struct{}, error) {
	stopCh := make(chan struct{})

	ch := r.getChannel()
	if ch == nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道")
	}

	prefetchCount := r.cfg.PrefetchCount
	if prefetchCount <= 0 {
		prefetchCount = 8
	}

	// 设置QoS，控制预取数量
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		r.putChannel(ch)
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}

	deliveries, err := ch.Consume(
		r.cfg.ProfileSyncQueue, // 队列
		"",                     // 消费者标签，留空由server生成唯一标签
		false,                  // 自动确认
		false,                  // 独占
		false,                  // 非本地
		false,                  // 非阻塞
		nil,                    // 参数
	)
	if err != nil {
		r.putChannel(ch)
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	workers := r.cfg.ConsumerWorkers
	if workers <= 0 {
		workers = 4
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-stopCh:
					return
				case delivery, ok := <-deliveries:
					if !ok {
						logger.Warn().Int("worker", workerID).Msg("RabbitMQ投递通道已关闭")
						return
					}
					r.handleDelivery(delivery, handler)
				}
			}
		}(i)
	}

	// 所有worker退出后归还通道
	go func() {
		wg.Wait()
		r.putChannel(ch)
		logger.Info().Str("queue", r.cfg.ProfileSyncQueue).Msg("档案同步消费者已全部停止")
	}()

	logger.Info().
		Str("queue", r.cfg.ProfileSyncQueue).
		Int("workers", workers).
		Int("prefetch", prefetchCount).
		Msg("档案同步消费者已启动")
	return stopCh, nil
}

// handleDelivery 解析并处理单条投递。
// 消息体无法解析时直接丢弃，避免毒消息无限重投。
func (r *RabbitMQ) handleDelivery(delivery amqp.Delivery, handler func(event types.ProfileSyncEvent) bool) {
	var event types.ProfileSyncEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		logger.Error().Err(err).Str("message_id", delivery.MessageId).Msg("档案同步事件解析失败，丢弃消息")
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			logger.Error().Err(nackErr).Msg("丢弃消息失败")
		}
		return
	}

	if handler(event) {
		if err := delivery.Ack(false); err != nil {
			logger.Error().Err(err).Str("event_id", event.EventID).Msg("确认消息失败")
		}
	} else {
		// 处理失败，拒绝并重新入队
		if err := delivery.Nack(false, true); err != nil {
			logger.Error().Err(err).Str("event_id", event.EventID).Msg("拒绝消息失败")
		}
	}
}
