package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/baki-ledger/pkg/redis"
)

type EventType string

const (
	TransactionAdded   EventType = "transaction.added"
	TransactionDeleted EventType = "transaction.deleted"
	CustomerRenamed    EventType = "customer.renamed"
	CustomerMerged     EventType = "customer.merged"
	CustomerDeleted    EventType = "customer.deleted"
)

// Event is one committed ledger change. Data is the JSON body of the
// affected record.
type Event struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	CustomerID    int64           `json:"customer_id"`
	TransactionID int64           `json:"transaction_id,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	At            time.Time       `json:"at"`
}

type Config struct {
	Stream string
	// MaxLen caps the stream length; zero keeps every event.
	MaxLen int64
}

// Feed appends ledger events to a redis stream and reads them back in order.
type Feed struct {
	adapter redis.RedisAdapter
	config  Config
}

func New(adapter redis.RedisAdapter, config Config) (*Feed, error) {
	if config.Stream == "" {
		return nil, fmt.Errorf("feed stream name is required")
	}
	return &Feed{
		adapter: adapter,
		config:  config,
	}, nil
}

// Publish appends an event. data, when non-nil, is marshalled as the payload.
func (f *Feed) Publish(ctx context.Context, typ EventType, customerID, transactionID int64, data interface{}) (string, error) {
	values := map[string]interface{}{
		"type":           string(typ),
		"customer_id":    customerID,
		"transaction_id": transactionID,
		"at":             time.Now().UnixMilli(),
	}
	if data != nil {
		body, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("failed to marshal event payload: %w", err)
		}
		values["data"] = string(body)
	}

	id, err := f.adapter.XAdd(ctx, f.config.Stream, f.config.MaxLen, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", typ, err)
	}
	return id, nil
}

// Read returns up to count events after the given stream id ("0" reads from
// the start). The id of the last returned event is the next cursor.
func (f *Feed) Read(ctx context.Context, after string, count int64) ([]Event, error) {
	if after == "" {
		after = "0"
	}
	messages, err := f.adapter.XRead(ctx, f.config.Stream, after, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	events := make([]Event, 0, len(messages))
	for _, msg := range messages {
		events = append(events, toEvent(msg))
	}
	return events, nil
}

func (f *Feed) Len(ctx context.Context) (int64, error) {
	return f.adapter.XLen(ctx, f.config.Stream)
}

func toEvent(msg redis.StreamMessage) Event {
	ev := Event{ID: msg.ID}
	for k, v := range msg.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "type":
			ev.Type = EventType(s)
		case "customer_id":
			ev.CustomerID, _ = strconv.ParseInt(s, 10, 64)
		case "transaction_id":
			ev.TransactionID, _ = strconv.ParseInt(s, 10, 64)
		case "at":
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
				ev.At = time.UnixMilli(ms)
			}
		case "data":
			ev.Data = json.RawMessage(s)
		}
	}
	return ev
}
