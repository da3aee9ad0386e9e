package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
)

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	InFlight   bool
	OccurredAt time.Time
}

// IdempotencyStore keeps one record per key. Reserve inserts an in-flight
// marker and reports false when the key already exists.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Reserve(ctx context.Context, key string, at time.Time) (bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
	Release(ctx context.Context, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	ErrRequestInFlight  = errors.New("middleware: request with this idempotency key is still being processed")
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
)

// Idempotency replays the stored result of a successful command with the
// same key. Failed attempts release the key so the caller can retry.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(commands.Idempotent)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			key = idempotencyRecordKey(ctx, cmd.Key(), key)

			reserved, err := store.Reserve(ctx, key, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			if !reserved {
				return replay(ctx, store, codec, idCmd, key)
			}

			result, err := nextFn(ctx, cmd)
			if err != nil {
				if relErr := store.Release(context.WithoutCancel(ctx), key); relErr != nil {
					return nil, errors.Join(err, relErr)
				}
				return nil, err
			}
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(context.WithoutCancel(ctx), record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

// idempotencyRecordKey scopes the client key to the command and the caller,
// so two users picking the same key never see each other's results. The
// caller is length-prefixed because user IDs may contain the separator.
func idempotencyRecordKey(ctx context.Context, command, key string) string {
	caller := ""
	if p, ok := access.PrincipalFrom(ctx); ok {
		caller = p.UserID
	}
	return command + ":" + strconv.Itoa(len(caller)) + ":" + caller + ":" + key
}

func replay(ctx context.Context, store IdempotencyStore, codec ResultCodec, cmd commands.Idempotent, key string) (any, error) {
	rec, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || rec.InFlight {
		return nil, ErrRequestInFlight
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
