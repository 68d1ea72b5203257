// Package event is an in-process, synchronous domain event bus keyed by
// payload type. Services fire after their transaction commits; a listener
// panic is logged and never reaches the firing operation.
//
//	event.Listen(func(ctx context.Context, e services.OrderCreated) { ... })
//	event.Fire(ctx, services.OrderCreated{Order: order})
package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/eadens/cakeworld/pkg/logger"
)

type listener func(ctx context.Context, payload any)

var (
	mu        sync.RWMutex
	listeners = map[reflect.Type][]listener{}
)

// Listen subscribes fn to events of type T. Listeners run in subscription
// order.
func Listen[T any](fn func(ctx context.Context, e T)) {
	t := reflect.TypeFor[T]()
	mu.Lock()
	defer mu.Unlock()
	listeners[t] = append(listeners[t], func(ctx context.Context, p any) { fn(ctx, p.(T)) })
}

// Fire calls every listener of T before returning.
func Fire[T any](ctx context.Context, e T) {
	t := reflect.TypeFor[T]()
	mu.RLock()
	ls := append([]listener(nil), listeners[t]...)
	mu.RUnlock()

	for _, l := range ls {
		deliver(ctx, t, l, e)
	}
}

func deliver(ctx context.Context, t reflect.Type, l listener, e any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", t.String(), "panic", fmt.Sprint(r))
		}
	}()
	l(ctx, e)
}

// Flush drops every listener.
func Flush() {
	mu.Lock()
	listeners = map[reflect.Type][]listener{}
	mu.Unlock()
}
