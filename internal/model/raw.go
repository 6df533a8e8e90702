package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// RawRecord is one stream record as returned by the upstream API.
// Every field is optional.
type RawRecord struct {
	ID                 FlexID          `json:"id"`
	Name               string          `json:"name"`
	Symbol             string          `json:"symbol"`
	Description        string          `json:"description"`
	NumParticipants    Number          `json:"num_participants"`
	ReplyCount         Number          `json:"reply_count"`
	IsCurrentlyLive    bool            `json:"is_currently_live"`
	Thumbnail          string          `json:"thumbnail"`
	ImageURI           string          `json:"image_uri"`
	USDMarketCap       Number          `json:"usd_market_cap"`
	Holders            Number          `json:"holders"`
	ChatMembers        Number          `json:"chat_members"`
	Twitter            string          `json:"twitter"`
	Website            string          `json:"website"`
	CreatedTimestamp   Number          `json:"created_timestamp"`
	LastTradeTimestamp Number          `json:"last_trade_timestamp"`
	Chart              json.RawMessage `json:"chart,omitempty"`
}

// Number is a lenient numeric field. It accepts JSON numbers, numeric
// strings and null. Any other value decodes as absent instead of failing
// the enclosing record.
type Number struct {
	decimal.NullDecimal
}

// NewNumber returns a present Number.
func NewNumber(v float64) Number {
	return Number{decimal.NewNullDecimal(decimal.NewFromFloat(v))}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	var d decimal.NullDecimal
	if err := d.UnmarshalJSON(b); err != nil {
		n.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	n.NullDecimal = d
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Decimal.String()), nil
}

// Int64 returns the value truncated toward zero, or 0 when absent.
func (n Number) Int64() int64 {
	if !n.Valid {
		return 0
	}
	return n.Decimal.IntPart()
}

// Float64 returns the value, or 0 when absent.
func (n Number) Float64() float64 {
	if !n.Valid {
		return 0
	}
	return n.Decimal.InexactFloat64()
}

// IsZero reports whether the value is absent or equal to zero.
func (n Number) IsZero() bool {
	return !n.Valid || n.Decimal.IsZero()
}

// FlexID is an identifier that arrives either as a JSON string or number.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*id = ""
			return nil
		}
		*id = FlexID(s)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		*id = ""
		return nil
	}
	if d.IsInteger() {
		*id = FlexID(strconv.FormatInt(d.IntPart(), 10))
		return nil
	}
	*id = FlexID(d.String())
	return nil
}
