package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("ai provider unavailable")

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func Register(name string, factory ProviderFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

// ProviderOption names one entry of the fallback chain.
type ProviderOption struct {
	Name  string
	Model string
	Args  interface{}
}

type OracleOptions struct {
	Providers []ProviderOption
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// NewOracleFromOptions builds providers in order, chains them as fallbacks
// and puts the response cache in front.
func NewOracleFromOptions(opts OracleOptions) (*Oracle, error) {
	if len(opts.Providers) == 0 {
		return nil, fmt.Errorf("at least one ai provider is required")
	}
	entries := make([]GeneratorEntry, 0, len(opts.Providers))
	for _, item := range opts.Providers {
		p, err := NewProvider(item.Name, item.Args)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", item.Name, err)
		}
		entries = append(entries, GeneratorEntry{
			Name:      p.Name() + "/" + item.Model,
			Generator: NewGenerator(p, item.Model),
		})
	}
	gen := WrapLruCacheToGenerator(NewGroupGenerator(entries), opts.CacheSize, opts.CacheTTL)
	return NewOracle(gen, opts.Timeout), nil
}
