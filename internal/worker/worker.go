package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/goto-dispatcher/internal/config"
	"github.com/aescanero/goto-dispatcher/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handler runs dispatch requests
type Handler interface {
	Handle(req session.Request) (session.Outcome, error)
}

// Worker represents the dispatch worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	handler       Handler
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
	errorStream   string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	handler Handler,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		handler:       handler,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
		errorStream:   cfg.ErrorStream(),
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting dispatch worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("dispatch worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops reading and waits for the message in flight to be published
// and acknowledged
func (w *Worker) Stop() error {
	w.logger.Info("stopping dispatch worker", zap.String("worker_id", w.id))

	w.cancel()
	w.wg.Wait()

	w.logger.Info("dispatch worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes requests from the Redis stream
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				w.pause(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// publishTimeout bounds each write made for a message already read
const publishTimeout = 5 * time.Second

// writeContext is used for results and acks. It outlives Stop so the
// message in flight is not lost.
func (w *Worker) writeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(w.ctx), publishTimeout)
}

func (w *Worker) pause(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-w.ctx.Done():
	case <-t.C:
	}
}

// handleMessage handles a single dispatch request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing dispatch request",
		zap.String("message_id", messageID),
	)

	request, err := parseRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse dispatch request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(messageID, session.Request{}, err)
		w.acknowledgeMessage(messageID)
		return
	}

	if err := w.processRequest(messageID, request); err != nil {
		w.logger.Error("failed to process dispatch request",
			zap.String("message_id", messageID),
			zap.String("session_id", request.SessionID),
			zap.Error(err),
		)
		w.publishError(messageID, request, err)
	}

	w.acknowledgeMessage(messageID)
}

// parseRequest parses a dispatch request from its Redis message
func parseRequest(values map[string]interface{}) (session.Request, error) {
	var request session.Request

	dataStr, ok := values["data"].(string)
	if !ok {
		return request, fmt.Errorf("missing or invalid 'data' field")
	}

	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return request, fmt.Errorf("failed to unmarshal dispatch request: %w", err)
	}

	return request, nil
}

func (w *Worker) processRequest(messageID string, request session.Request) error {
	outcome, err := w.handler.Handle(request)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	if err := w.publishOutcome(messageID, outcome); err != nil {
		return fmt.Errorf("failed to publish outcome: %w", err)
	}

	return nil
}

// Result is the payload published for every handled request
type Result struct {
	session.Outcome
	MessageID string    `json:"message_id"`
	WorkerID  string    `json:"worker_id"`
	Timestamp time.Time `json:"timestamp"`
}

// publishOutcome publishes what a request did
func (w *Worker) publishOutcome(messageID string, outcome session.Outcome) error {
	data, err := json.Marshal(Result{
		Outcome:   outcome,
		MessageID: messageID,
		WorkerID:  w.id,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	ctx, cancel := w.writeContext()
	defer cancel()

	_, err = w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"session_id": outcome.SessionID,
			"data":       string(data),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published dispatch outcome",
		zap.String("session_id", outcome.SessionID),
		zap.String("dispatch_id", outcome.DispatchID),
		zap.Bool("closed", outcome.Closed),
	)

	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(messageID string, request session.Request, err error) {
	errorEvent := map[string]interface{}{
		"message_id": messageID,
		"session_id": request.SessionID,
		"kind":       request.Kind,
		"error":      err.Error(),
		"timestamp":  time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(errorEvent)
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	ctx, cancel := w.writeContext()
	defer cancel()

	_, publishErr := w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: w.errorStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	ctx, cancel := w.writeContext()
	defer cancel()

	err := w.redisClient.XAck(ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
