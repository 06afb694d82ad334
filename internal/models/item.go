package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and limits travel as JSON numbers, as the expense service sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Item is a single priced line entry copied from the expense service.
// Items are immutable value copies; a category only ever replaces its list wholesale.
//
// An item decoded from JSON keeps its original bytes and encodes back to them
// unchanged, including fields this type does not model. The typed fields are
// read from those bytes on a best-effort basis. Entries that are not JSON
// objects are not records and contribute nothing to totals.
type Item struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt string          `json:"created_at,omitempty"`

	raw json.RawMessage
}

// itemRecord drops Item's methods so it can be encoded with the default rules.
type itemRecord Item

const createdAtKey = "created_at"

// RawItem wraps an entry received as data. Objects are decoded as records.
func RawItem(data []byte) Item {
	var i Item
	_ = i.UnmarshalJSON(data)
	return i
}

// IsRecord reports whether the item is an object (or was built in Go).
func (i Item) IsRecord() bool {
	return i.raw == nil || isObject(i.raw)
}

// Raw returns the bytes the item was decoded from, or nil for items built in Go.
func (i Item) Raw() json.RawMessage { return i.raw }

// Total returns price × quantity. Non-record entries are worth zero.
func (i Item) Total() decimal.Decimal {
	if !i.IsRecord() {
		return decimal.Zero
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CreatedTime parses CreatedAt. ok is false when it is missing or malformed.
func (i Item) CreatedTime() (t time.Time, ok bool) {
	if i.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, i.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WithCreatedAt returns a copy of a record stamped with ts. Every other byte of
// a decoded record is left as it was. Non-record entries are returned as is.
func (i Item) WithCreatedAt(ts string) Item {
	if !i.IsRecord() {
		return i
	}
	i.CreatedAt = ts
	if i.raw == nil {
		return i
	}

	stamp, _ := json.Marshal(ts)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(i.raw, &fields); err != nil {
		return i
	}
	if _, exists := fields[createdAtKey]; exists {
		// An empty or null value is replaced in place of the key.
		fields[createdAtKey] = stamp
		i.raw, _ = json.Marshal(fields)
		return i
	}

	body := bytes.TrimSpace(i.raw)
	body = bytes.TrimSpace(body[:len(body)-1])
	out := make([]byte, 0, len(body)+len(stamp)+len(createdAtKey)+6)
	out = append(out, body...)
	if len(fields) > 0 {
		out = append(out, ',')
	}
	out = append(out, '"')
	out = append(out, createdAtKey...)
	out = append(out, '"', ':')
	out = append(out, stamp...)
	out = append(out, '}')
	i.raw = out
	return i
}

// MarshalJSON implements json.Marshaler.
func (i Item) MarshalJSON() ([]byte, error) {
	if i.raw != nil {
		return i.raw, nil
	}
	return json.Marshal(itemRecord(i))
}

// UnmarshalJSON implements json.Unmarshaler. It never fails: the bytes are
// always kept, and fields of an unexpected type are left at their zero value.
func (i *Item) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*i = Item{raw: append(json.RawMessage(nil), trimmed...)}
	if !isObject(trimmed) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}
	i.ID = stringField(fields["id"])
	i.Name = stringField(fields["name"])
	i.CreatedAt = stringField(fields[createdAtKey])
	if v, ok := fields["price"]; ok {
		_ = json.Unmarshal(v, &i.Price)
	}
	if q, ok := intField(fields["quantity"]); ok {
		i.Quantity = q
	} else if q, ok := intField(fields["qty"]); ok {
		// Some producers use the short spelling.
		i.Quantity = q
	}
	return nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 1 && trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}'
}

func stringField(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// intField reads an integer given either as a JSON number or a numeric string.
func intField(v json.RawMessage) (int, bool) {
	if len(v) == 0 {
		return 0, false
	}
	var n int
	if json.Unmarshal(v, &n) == nil {
		return n, true
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ItemList is the ordered item sequence stored as a JSON column.
type ItemList []Item

// MarshalJSON encodes a nil list as [] rather than null.
func (l ItemList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Item(l))
}

// Value implements driver.Valuer.
func (l ItemList) Value() (driver.Value, error) {
	data, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *ItemList) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = ItemList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ItemList", value)
	}

	items := ItemList{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decoding item list: %w", err)
	}
	*l = items
	return nil
}
