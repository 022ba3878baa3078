package cache

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound      = errors.New("cache entry not found")
	ErrAlreadyExists = errors.New("cache entry already exists")
)

type Condition int

const (
	PutUnconditional Condition = iota
	PutIfNoneMatch
)

type PutOptions struct {
	Condition Condition
}

func Unconditional() PutOptions { return PutOptions{Condition: PutUnconditional} }
func IfNoneMatch() PutOptions   { return PutOptions{Condition: PutIfNoneMatch} }

// ListCache is a flat key-value store. Keys may contain slashes; List returns the
// keys under prefix with the prefix trimmed, sorted.
type ListCache interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key, value string, opts PutOptions) error
	List(ctx context.Context, prefix string, token string) ([]string, error)
}
