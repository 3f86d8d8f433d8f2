package event

import (
	"fmt"
	"math/big"
	"net"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tinylib/msgp/msgp"
)

// UUIDExtensionType is the MessagePack extension type carrying UUIDs.
const UUIDExtensionType int8 = 10

func init() {
	msgp.RegisterExtension(UUIDExtensionType, func() msgp.Extension {
		return new(uuidExt)
	})
}

// uuidExt encodes a UUID as a 16 byte MessagePack extension.
type uuidExt [16]byte

func (u *uuidExt) ExtensionType() int8 { return UUIDExtensionType }

func (u *uuidExt) Len() int { return len(u) }

func (u *uuidExt) MarshalBinaryTo(b []byte) error {
	copy(b, u[:])
	return nil
}

func (u *uuidExt) UnmarshalBinary(b []byte) error {
	if len(b) != len(u) {
		return fmt.Errorf("uuid extension has %d bytes", len(b))
	}
	copy(u[:], b)

	return nil
}

// Envelope is the wire form of a published event. The entity itself is not
// transported; Columns carries its converted column values.
type Envelope struct {
	ID      uuid.UUID
	Type    Type
	Table   string
	Time    time.Time
	Columns map[string]any
}

// Envelope field keys.
const (
	keyID      = "id"
	keyType    = "type"
	keyTable   = "table"
	keyTime    = "time"
	keyColumns = "columns"
)

// EncodeEnvelope encodes the envelope of e as a MessagePack map.
//
// Column values are normalized to MessagePack friendly forms: 16 byte
// arrays become UUID extensions, map keys become strings, and big
// integers and IP addresses are encoded as their string form.
func EncodeEnvelope(e Event) ([]byte, error) {
	id := uuidExt(e.ID)

	b := msgp.AppendMapHeader(nil, 5)
	b = msgp.AppendString(b, keyID)
	b, err := msgp.AppendExtension(b, &id)
	if err != nil {
		return nil, err
	}
	b = msgp.AppendString(b, keyType)
	b = msgp.AppendString(b, e.Type.String())
	b = msgp.AppendString(b, keyTable)
	b = msgp.AppendString(b, e.Table)
	b = msgp.AppendString(b, keyTime)
	b = msgp.AppendTime(b, e.Time)
	b = msgp.AppendString(b, keyColumns)

	if e.Columns == nil {
		return msgp.AppendNil(b), nil
	}

	columns := make([]string, 0, len(e.Columns))
	for name := range e.Columns {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	b = msgp.AppendMapHeader(b, uint32(len(columns))) //nolint:gosec // column count fits
	for _, name := range columns {
		b = msgp.AppendString(b, name)
		b, err = msgp.AppendIntf(b, normalize(e.Columns[name]))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
	}

	return b, nil
}

// DecodeEnvelope decodes an envelope written by EncodeEnvelope. Unknown
// keys are skipped. UUID values decode to uuid.UUID.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope

	n, b, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}

	for range n {
		var key string
		key, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return env, fmt.Errorf("decode envelope key: %w", err)
		}

		switch key {
		case keyID:
			var id uuidExt
			b, err = msgp.ReadExtensionBytes(b, &id)
			env.ID = uuid.UUID(id)
		case keyType:
			var name string
			name, b, err = msgp.ReadStringBytes(b)
			if err == nil {
				env.Type, err = ParseType(name)
			}
		case keyTable:
			env.Table, b, err = msgp.ReadStringBytes(b)
		case keyTime:
			env.Time, b, err = msgp.ReadTimeBytes(b)
		case keyColumns:
			if msgp.IsNil(b) {
				b, err = msgp.ReadNilBytes(b)
				break
			}
			env.Columns, b, err = msgp.ReadMapStrIntfBytes(b, nil)
			if err == nil {
				for name, v := range env.Columns {
					env.Columns[name] = denormalize(v)
				}
			}
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return env, fmt.Errorf("decode envelope %s: %w", key, err)
		}
	}

	return env, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case [16]byte:
		u := uuidExt(x)
		return &u
	case uuid.UUID:
		u := uuidExt(x)
		return &u
	case *big.Int:
		return x.String()
	case net.IP:
		return x.String()
	case time.Duration:
		return int64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[keyString(k)] = normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Len() == 16 && rv.Type().Elem().Kind() == reflect.Uint8 {
		var u uuidExt
		reflect.Copy(reflect.ValueOf(u[:]), rv)
		return &u
	}

	return v
}

func keyString(k any) string {
	switch x := k.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case uuid.UUID:
		return x.String()
	}

	return fmt.Sprint(k)
}

func denormalize(v any) any {
	switch x := v.(type) {
	case *uuidExt:
		return uuid.UUID(*x)
	case []any:
		for i, e := range x {
			x[i] = denormalize(e)
		}
	case map[string]any:
		for k, e := range x {
			x[k] = denormalize(e)
		}
	}

	return v
}
