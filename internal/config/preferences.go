package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

var DefaultCarriers = []orders.Carrier{
	{Slug: "cdek", Name: "CDEK"},
	{Slug: "russian-post", Name: "Russian Post"},
	{Slug: "dhl", Name: "DHL"},
	{Slug: "fedex", Name: "FedEx"},
	{Slug: "usps", Name: "USPS"},
	{Slug: "china-post", Name: "China Post"},
	{Slug: "boxberry", Name: "Boxberry"},
}

var DefaultStores = []orders.Store{
	{Slug: "AliExpress", Name: "AliExpress"},
	{Slug: "Ozon", Name: "Ozon"},
	{Slug: "Wildberries", Name: "Wildberries"},
	{Slug: "Amazon", Name: "Amazon"},
	{Slug: "eBay", Name: "eBay"},
	{Slug: "YandexMarket", Name: "Yandex Market"},
}

var DefaultCurrencies = []string{"RUB", "USD", "EUR"}

// Preferences toggles which built-in catalog entries are offered. A missing key means visible.
type Preferences struct {
	Carriers   map[string]bool `mapstructure:"carrier_visibility" json:"carrier_visibility"`
	Stores     map[string]bool `mapstructure:"store_visibility" json:"store_visibility"`
	Currencies map[string]bool `mapstructure:"currency_visibility" json:"currency_visibility"`
}

// LoadPreferences reads a YAML/JSON preferences file; a missing file yields defaults.
func LoadPreferences(path string) (Preferences, error) {
	var p Preferences
	if path == "" {
		return p, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return p, fmt.Errorf("read preferences: %w", err)
	}
	if err := v.Unmarshal(&p); err != nil {
		return p, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

// visible looks keys up case-insensitively; viper lower-cases map keys.
func visible(m map[string]bool, key string) bool {
	if v, ok := m[key]; ok {
		return v
	}
	if v, ok := m[strings.ToLower(key)]; ok {
		return v
	}
	return true
}

// CarrierOptions merges visible defaults with the user's own carriers, sorted by slug.
// A user carrier replaces a default with the same slug.
func (p Preferences) CarrierOptions(user []orders.Carrier) []orders.Carrier {
	return merge(DefaultCarriers, user, p.Carriers, func(c orders.Carrier) string { return c.Slug })
}

func (p Preferences) StoreOptions(user []orders.Store) []orders.Store {
	return merge(DefaultStores, user, p.Stores, func(s orders.Store) string { return s.Slug })
}

func (p Preferences) CurrencyOptions() []string {
	var out []string
	for _, c := range DefaultCurrencies {
		if visible(p.Currencies, c) {
			out = append(out, c)
		}
	}
	return out
}

func merge[T any](defaults, user []T, vis map[string]bool, slug func(T) string) []T {
	bySlug := make(map[string]T)
	for _, d := range defaults {
		if visible(vis, slug(d)) {
			bySlug[slug(d)] = d
		}
	}
	for _, u := range user {
		bySlug[slug(u)] = u
	}
	out := make([]T, 0, len(bySlug))
	for _, v := range bySlug {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return strings.Compare(slug(a), slug(b)) })
	return out
}
