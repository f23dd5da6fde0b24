// loader.go - Picks the accounting map source configured at startup

package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// Source loads an accounting map
type Source interface {
	LoadAccountingMap(ctx context.Context) (*ledger.AccountingMap, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (*ledger.AccountingMap, error)

func (f SourceFunc) LoadAccountingMap(ctx context.Context) (*ledger.AccountingMap, error) {
	return f(ctx)
}

var (
	_ Source = FileSource{}
	_ Source = (*MongoStore)(nil)
)

// FileSource reads an accounting map from a YAML file
type FileSource struct {
	Path string
}

func (f FileSource) LoadAccountingMap(context.Context) (*ledger.AccountingMap, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounting map file: %w", err)
	}
	defer file.Close()
	return ledger.LoadAccountingMapYAML(file)
}

// DefaultSource returns the built-in table
var DefaultSource = SourceFunc(func(context.Context) (*ledger.AccountingMap, error) {
	return ledger.DefaultAccountingMap(), nil
})

// LoaderConfig names the optional accounting map sources
type LoaderConfig struct {
	File       string
	MongoURI   string
	MongoDB    string
	Collection string
}

// LoadAccountingMap tries the YAML file, then MongoDB, then the built-in
// table. A configured source that fails is an error; nothing is silently
// replaced by the default. The returned store is nil unless MongoDB was used
// and must be closed by the caller.
func LoadAccountingMap(ctx context.Context, cfg LoaderConfig) (*ledger.AccountingMap, *MongoStore, error) {
	switch {
	case cfg.File != "":
		am, err := FileSource{Path: cfg.File}.LoadAccountingMap(ctx)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("file", cfg.File).Int("categories", am.Len()).Msg("📚 Accounting map loaded from file")
		return am, nil, nil

	case cfg.MongoURI != "":
		store, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		am, err := store.LoadAccountingMap(ctx)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		log.Info().Str("collection", cfg.Collection).Int("categories", am.Len()).Msg("📚 Accounting map loaded from MongoDB")
		return am, store, nil
	}

	am, err := DefaultSource.LoadAccountingMap(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("categories", am.Len()).Msg("📚 Using built-in accounting map")
	return am, nil, nil
}
