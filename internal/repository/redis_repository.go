package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 10

var errTxRetriesExhausted = errors.New("redis transaction retries exhausted")

// RedisRepository stores each order as JSON under order:<id> and indexes the
// order number under order-number:<number>.
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
		now:    time.Now,
	}
}

func (r *RedisRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := r.now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	claimed, err := r.client.SetNX(ctx, numberKey(order.OrderNumber), order.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !claimed {
		return fmt.Errorf("order number %s: %w", order.OrderNumber, domain.ErrConflict)
	}

	if err := r.client.Set(ctx, orderKey(order.ID), payload, 0).Err(); err != nil {
		// give the number back so a retry can use it
		r.client.Del(context.WithoutCancel(ctx), numberKey(order.OrderNumber))
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	data, err := r.client.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeOrder(data)
}

func (r *RedisRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	id, err := r.client.Get(ctx, numberKey(orderNumber)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("order %s: %w", orderNumber, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return r.GetOrderByID(ctx, id)
}

func (r *RedisRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	var illegalFrom domain.OrderStatus
	var changed bool
	order, err := r.update(ctx, id, func(o *domain.Order) bool {
		// reset on every attempt, the transaction may be retried
		illegalFrom, changed = "", false
		if !domain.CanTransitionTo(o.Status, status) {
			illegalFrom = o.Status
			return false
		}
		if o.Status == status {
			return false
		}
		o.Status = status
		changed = true
		return true
	})
	if err != nil {
		return nil, false, err
	}
	if illegalFrom != "" {
		return order, false, fmt.Errorf("%s -> %s: %w", illegalFrom, status, domain.ErrIllegalTransition)
	}
	return order, changed, nil
}

func (r *RedisRepository) SetPaymentReference(ctx context.Context, id, reference string) error {
	_, err := r.update(ctx, id, func(o *domain.Order) bool {
		o.PaymentReference = reference
		return true
	})
	return err
}

// update runs mutate inside a WATCH/MULTI transaction on the order key and
// retries when another writer touched the key in between.
func (r *RedisRepository) update(ctx context.Context, id string, mutate func(*domain.Order) bool) (*domain.Order, error) {
	key := orderKey(id)
	var result *domain.Order

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("redis get failed: %w", err)
		}

		order, err := decodeOrder(data)
		if err != nil {
			return err
		}

		if !mutate(order) {
			result = order
			return nil
		}
		order.UpdatedAt = r.now().UTC()

		payload, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshal order failed: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = order
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("order %s: %w", id, errTxRetriesExhausted)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func decodeOrder(data []byte) (*domain.Order, error) {
	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order failed: %w", err)
	}
	return &order, nil
}

func orderKey(id string) string {
	return fmt.Sprintf("order:%s", id)
}

func numberKey(orderNumber string) string {
	return fmt.Sprintf("order-number:%s", orderNumber)
}
