// Package events publishes affiliate click events to Kafka, avro-encoded.
package events

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ClickSchemaTextV1 = `{
	"type": "record",
	"namespace": "keyu.storefront",
	"name": "affiliate_click",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "product_name", "type": "string"},
		{"name": "category", "type": ["null", "string"], "default": null},
		{"name": "affiliate_url", "type": "string"},
		{"name": "referrer", "type": "string"},
		{"name": "user_agent", "type": "string"},
		{"name": "request_id", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type ClickV1 struct {
	EventID      string    `avro:"event_id"`
	ProductID    string    `avro:"product_id"`
	ProductName  string    `avro:"product_name"`
	Category     *string   `avro:"category"`
	AffiliateURL string    `avro:"affiliate_url"`
	Referrer     string    `avro:"referrer"`
	UserAgent    string    `avro:"user_agent"`
	RequestID    string    `avro:"request_id"`
	OccurredAt   time.Time `avro:"occurred_at"`
}

// ClickV1Avro parses the click schema. It panics on a malformed schema,
// which is a programming error.
func ClickV1Avro() avro.Schema {
	return avro.MustParse(ClickSchemaTextV1)
}

// Encoder turns a value into its wire form.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

type AvroSerde struct {
	schema avro.Schema
}

func NewAvroSerde(s avro.Schema) AvroSerde {
	return AvroSerde{schema: s}
}

func (s AvroSerde) Encode(v any) ([]byte, error) {
	return avro.Marshal(s.schema, v)
}

func (s AvroSerde) Decode(data []byte, v any) error {
	return avro.Unmarshal(s.schema, data, v)
}
