package repository

import (
	"context"
	"strings"
)

// KV is the key-value persistence the local fallback store and the session
// mirrors are written against. Get reports found=false for absent keys.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

type namespacedKV struct {
	kv     KV
	prefix string
}

// Namespace scopes every key of kv under prefix + ".".
func Namespace(kv KV, prefix string) KV {
	prefix = strings.TrimSuffix(prefix, ".") + "."
	if ns, ok := kv.(*namespacedKV); ok {
		return &namespacedKV{kv: ns.kv, prefix: ns.prefix + prefix}
	}
	return &namespacedKV{kv: kv, prefix: prefix}
}

func (n *namespacedKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *namespacedKV) Set(ctx context.Context, key string, value []byte) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *namespacedKV) Remove(ctx context.Context, key string) error {
	return n.kv.Remove(ctx, n.prefix+key)
}
