package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type stubChannel struct {
	declared   []string
	published  []published
	publishErr error
	closed     int
}

func (c *stubChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared = append(c.declared, name+":"+kind)
	return nil
}

func (c *stubChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *stubChannel) Close() error {
	c.closed++
	return nil
}

type stubConnection struct {
	ch      *stubChannel
	chanErr error
	closed  bool
}

func (c *stubConnection) Channel() (Channel, error) {
	if c.chanErr != nil {
		return nil, c.chanErr
	}
	return c.ch, nil
}

func (c *stubConnection) Close() error {
	c.closed = true
	return nil
}

func TestPublish_OrderConfirmed(t *testing.T) {
	ch := &stubChannel{}
	p := NewPublisher(&stubConnection{ch: ch})

	err := p.Publish(context.Background(), OrderConfirmed{
		SessionID: "s-1",
		OrderID:   1001,
		Total:     decimal.RequireFromString("24.90"),
	})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, Exchange, got.exchange)
	assert.Equal(t, KeyOrderConfirmed, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, float64(1001), body["order_id"])
	assert.Equal(t, "24.9", body["total"])

	assert.Equal(t, []string{Exchange + ":topic"}, ch.declared)
	assert.Equal(t, 1, ch.closed)
}

func TestPublish_Errors(t *testing.T) {
	p := NewPublisher(&stubConnection{chanErr: errors.New("connection is closed")})
	assert.Error(t, p.Publish(context.Background(), RatingUnsubscribed{RatingUUID: "abc"}))

	ch := &stubChannel{publishErr: errors.New("channel closed")}
	p = NewPublisher(&stubConnection{ch: ch})
	err := p.Publish(context.Background(), RatingSubmitted{RatingUUID: "abc", Rating: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyRatingSubmitted)
	assert.Equal(t, 1, ch.closed)
}

func TestClose(t *testing.T) {
	conn := &stubConnection{ch: &stubChannel{}}
	require.NoError(t, NewPublisher(conn).Close())
	assert.True(t, conn.closed)

	assert.NoError(t, Nop{}.Publish(context.Background(), RatingSubmitted{}))
}
