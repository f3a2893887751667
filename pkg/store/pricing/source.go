package pricing

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Source supplies price entries, from a file, an object store or a billing table.
type Source interface {
	Name() string
	LoadPrices(ctx context.Context) ([]domain.PriceEntry, error)
}

type staticSource struct{}

// NewStaticSource serves the built-in price table.
func NewStaticSource() Source {
	return staticSource{}
}

func (staticSource) Name() string { return "builtin" }

func (staticSource) LoadPrices(context.Context) ([]domain.PriceEntry, error) {
	return DefaultEntries(), nil
}

// sheet is the on-disk price sheet layout. JSON sheets decode through the same path.
type sheet struct {
	Currency string       `yaml:"currency" json:"currency"`
	Prices   []sheetEntry `yaml:"prices" json:"prices"`
}

type sheetEntry struct {
	ResourceType string  `yaml:"resource_type" json:"resource_type"`
	SKU          string  `yaml:"sku" json:"sku"`
	SizeGB       int     `yaml:"size_gb" json:"size_gb"`
	Region       string  `yaml:"region" json:"region"`
	MonthlyPrice float64 `yaml:"monthly_price" json:"monthly_price"`
	Unit         string  `yaml:"unit" json:"unit"`
	Currency     string  `yaml:"currency" json:"currency"`
}

// DecodeSheet reads a YAML (or JSON) price sheet.
func DecodeSheet(r io.Reader) ([]domain.PriceEntry, error) {
	var sh sheet
	if err := yaml.NewDecoder(r).Decode(&sh); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode price sheet: %w", err)
	}

	entries := make([]domain.PriceEntry, 0, len(sh.Prices))
	for _, p := range sh.Prices {
		currency := p.Currency
		if currency == "" {
			currency = sh.Currency
		}
		entries = append(entries, domain.PriceEntry{
			ResourceType: p.ResourceType,
			SKU:          p.SKU,
			SizeGB:       p.SizeGB,
			Region:       p.Region,
			MonthlyPrice: p.MonthlyPrice,
			Unit:         p.Unit,
			Currency:     currency,
		})
	}
	return entries, nil
}

type fileSource struct {
	path string
}

func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (f *fileSource) Name() string { return "file:" + f.path }

func (f *fileSource) LoadPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price sheet: %w", err)
	}
	defer file.Close()

	return DecodeSheet(file)
}
