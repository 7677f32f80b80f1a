package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Consumer runs message handlers on top of a watermill router
type Consumer struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewConsumer(subscriber message.Subscriber, logger *slog.Logger) (*Consumer, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)

	return &Consumer{
		router:     router,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

// Handle registers fn for every message on topic. Returning an error nacks the
// message after the retries are exhausted.
func (c *Consumer) Handle(name, topic string, fn func(msg *message.Message) error) {
	c.router.AddNoPublisherHandler(name, topic, c.subscriber, fn)
	c.logger.Info("Registered message handler", "handler", name, "topic", topic)
}

// Run blocks until ctx is cancelled or the router stops
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once all handlers are subscribed
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}
