// Package messaging publica las transiciones de alertas de stock fuera del proceso.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var _ inventory.AlertNotifier = (*RedisAlertPublisher)(nil)

// AlertMessage cuerpo JSON publicado en el canal de alertas.
type AlertMessage struct {
	Type            string     `json:"type"` // RAISED | CLEARED
	AlertID         string     `json:"alert_id"`
	ProductID       string     `json:"product_id"`
	CurrentQuantity int64      `json:"current_quantity"`
	Threshold       int64      `json:"threshold"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ClearedAt       *time.Time `json:"cleared_at,omitempty"`
	PublishedAt     time.Time  `json:"published_at"`
}

// NewAlertMessage arma el mensaje de una transición.
func NewAlertMessage(tr entity.AlertTransition, at time.Time) AlertMessage {
	return AlertMessage{
		Type:            tr.Type,
		AlertID:         tr.Alert.ID,
		ProductID:       tr.Alert.ProductID,
		CurrentQuantity: tr.Alert.CurrentQuantity,
		Threshold:       tr.Alert.Threshold,
		Status:          tr.Alert.Status,
		CreatedAt:       tr.Alert.CreatedAt,
		ClearedAt:       tr.Alert.ClearedAt,
		PublishedAt:     at,
	}
}

// RedisAlertPublisher notificador que hace PUBLISH de cada transición en un canal de Redis.
type RedisAlertPublisher struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	log        *logger.Logger
	now        func() time.Time
}

// NewRedisAlertPublisher abre el cliente y verifica la conexión con PING.
func NewRedisAlertPublisher(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisAlertPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis %s: %w", cfg.Addr, err)
	}

	p := NewRedisAlertPublisherWithClient(client, cfg.AlertsChannel, log)
	p.ownsClient = true
	return p, nil
}

// NewRedisAlertPublisherWithClient usa un cliente existente; quien lo creó se encarga de cerrarlo.
func NewRedisAlertPublisherWithClient(client *redis.Client, channel string, log *logger.Logger) *RedisAlertPublisher {
	return &RedisAlertPublisher{
		client:  client,
		channel: channel,
		log:     log.Component("redis-alerts"),
		now:     time.Now,
	}
}

// Notify publica las transiciones en orden dentro de un pipeline.
func (p *RedisAlertPublisher) Notify(ctx context.Context, transitions []entity.AlertTransition) error {
	if len(transitions) == 0 {
		return nil
	}
	at := p.now().UTC()
	pipe := p.client.Pipeline()
	for _, tr := range transitions {
		data, err := json.Marshal(NewAlertMessage(tr, at))
		if err != nil {
			return fmt.Errorf("serializar alerta %s: %w", tr.Alert.ID, err)
		}
		pipe.Publish(ctx, p.channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publicar alertas en %s: %w", p.channel, err)
	}
	p.log.Debug().Int("count", len(transitions)).Str("channel", p.channel).Msg("alertas publicadas")
	return nil
}

// Close cierra el cliente solo si lo abrió este publicador.
func (p *RedisAlertPublisher) Close() error {
	if !p.ownsClient {
		return nil
	}
	return p.client.Close()
}
