package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/nir-assistant/server/internal/agent/model"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// CountryClient fetches country records from the REST Countries API. When the
// given name is not a country (e.g. a city), it resolves the country through
// the geocoder and retries once.
type CountryClient struct {
	baseURL  string
	client   *http.Client
	geocoder *Geocoder
}

func NewCountryClient(baseURL string, timeout time.Duration, geocoder *Geocoder) *CountryClient {
	return &CountryClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		geocoder: geocoder,
	}
}

type countryRecord struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital    []string `json:"capital"`
	Region     string   `json:"region"`
	Subregion  string   `json:"subregion"`
	CCA2       string   `json:"cca2"`
	Currencies map[string]struct {
		Name string `json:"name"`
	} `json:"currencies"`
	Languages map[string]string `json:"languages"`
	Timezones []string          `json:"timezones"`
}

// Info returns the condensed country record for a country name or location,
// or nil when nothing matches.
func (c *CountryClient) Info(ctx context.Context, nameOrLocation string) (*model.CountryInfo, error) {
	record, err := c.lookup(ctx, nameOrLocation)
	if err == nil && record != nil {
		return parseCountry(record), nil
	}

	countryName, geoErr := c.geocoder.CountryOf(ctx, nameOrLocation)
	if geoErr != nil || countryName == "" {
		if err != nil {
			return nil, err
		}
		return nil, geoErr
	}

	record, err = c.lookup(ctx, countryName)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return parseCountry(record), nil
}

// CodeOf returns the ISO 3166-1 alpha-2 code for a country name, or "" when
// the name cannot be matched.
func (c *CountryClient) CodeOf(ctx context.Context, countryName string) (string, error) {
	record, err := c.lookup(ctx, countryName)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return strings.ToUpper(record.CCA2), nil
}

func (c *CountryClient) lookup(ctx context.Context, name string) (*countryRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	endpoint := c.baseURL + "/name/" + url.PathEscape(name) + "?fullText=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build country request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logx.Warn().Err(err).Str("country", name).Msg("country lookup failed")
		return nil, fmt.Errorf("country request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("country request: status %d", resp.StatusCode)
	}

	var records []countryRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode country response: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func parseCountry(record *countryRecord) *model.CountryInfo {
	name := record.Name.Common
	if name == "" {
		name = "Unknown"
	}

	capital := "Unknown"
	if len(record.Capital) > 0 {
		capital = record.Capital[0]
	}

	region := record.Region
	if region == "" {
		region = "Unknown"
	}
	if record.Subregion != "" {
		region = region + ", " + record.Subregion
	}

	currency := "Unknown"
	if len(record.Currencies) > 0 {
		codes := make([]string, 0, len(record.Currencies))
		for code := range record.Currencies {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		currency = fmt.Sprintf("%s (%s)", record.Currencies[codes[0]].Name, codes[0])
	}

	languages := make([]string, 0, len(record.Languages))
	for _, lang := range record.Languages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	if len(languages) == 0 {
		languages = []string{"Unknown"}
	}

	timezone := "Unknown"
	if len(record.Timezones) > 0 {
		timezone = record.Timezones[0]
	}

	return &model.CountryInfo{
		Name:      name,
		Capital:   capital,
		Region:    region,
		Currency:  currency,
		Languages: languages,
		Timezone:  timezone,
	}
}
