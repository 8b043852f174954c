package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/prompts"
	logx "github.com/nir-assistant/server/pkg/logger"
)

const (
	visaEstimateTemperature = 0.1
	visaSourceFreeAPI       = "Travel Buddy API"
	visaSourceLLM           = "llm"
	maxVisaNotesLength      = 500
)

// countryCodes maps common country names to ISO 3166-1 alpha-2 codes so the
// frequent cases skip the REST Countries round-trip.
var countryCodes = map[string]string{
	"israel": "IL", "japan": "JP",
	"united states": "US", "usa": "US", "us": "US", "u.s.": "US", "u.s.a.": "US",
	"united kingdom": "GB", "uk": "GB",
	"france": "FR", "germany": "DE", "spain": "ES", "italy": "IT",
	"canada": "CA", "australia": "AU", "china": "CN", "india": "IN",
	"brazil": "BR", "mexico": "MX", "thailand": "TH", "singapore": "SG",
	"south korea": "KR", "korea": "KR", "hong kong": "HK",
	"uae": "AE", "united arab emirates": "AE",
	"turkey": "TR", "egypt": "EG", "south africa": "ZA",
	"argentina": "AR", "chile": "CL", "peru": "PE", "colombia": "CO",
	"vietnam": "VN", "indonesia": "ID", "philippines": "PH", "malaysia": "MY",
	"new zealand": "NZ", "netherlands": "NL", "belgium": "BE",
	"switzerland": "CH", "austria": "AT", "sweden": "SE", "norway": "NO",
	"denmark": "DK", "finland": "FI", "poland": "PL", "portugal": "PT",
	"greece": "GR", "russia": "RU", "ukraine": "UA",
}

// categoryStatus maps Travel Buddy visa categories to requirement codes.
var categoryStatus = map[string]string{
	"VF":  model.VisaNotRequired,
	"VOA": model.VisaOnArrival,
	"EV":  model.VisaEVisa,
	"VR":  model.VisaRequired,
	"NA":  model.VisaNoAdmission,
}

// textKeywords classify a free-text visa answer when JSON parsing fails.
// Checked in this order; first hit wins.
var textKeywords = []struct {
	status   string
	keywords []string
}{
	{model.VisaNotRequired, []string{"no visa", "visa-free", "visa exempt"}},
	{model.VisaRequired, []string{"visa required", "need a visa"}},
	{model.VisaOnArrival, []string{"visa on arrival", "voa"}},
	{model.VisaEVisa, []string{"evisa", "e-visa"}},
}

var visaJSONPattern = regexp.MustCompile(`\{[^{}]*"visa_required"[^{}]*\}`)

// VisaClient resolves visa requirements through the free Travel Buddy API,
// falling back to an LLM-derived estimate when the API cannot answer.
type VisaClient struct {
	baseURL string
	client  *http.Client
	country *CountryClient
	chat    einomodel.BaseChatModel
}

func NewVisaClient(baseURL string, timeout time.Duration, country *CountryClient, chat einomodel.BaseChatModel) *VisaClient {
	return &VisaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		country: country,
		chat:    chat,
	}
}

// Requirements returns the visa record for an origin/destination pair, or nil
// when neither the free API nor the LLM estimate produced anything.
func (v *VisaClient) Requirements(ctx context.Context, origin, destination string) (*model.VisaInfo, error) {
	info, err := v.fetchFreeAPI(ctx, origin, destination)
	if err != nil {
		logx.Warn().Err(err).Str("origin", origin).Str("destination", destination).
			Msg("free visa API failed, falling back to LLM estimate")
	}
	if info != nil {
		return info, nil
	}

	return v.fetchLLMEstimate(ctx, origin, destination)
}

func (v *VisaClient) fetchFreeAPI(ctx context.Context, origin, destination string) (*model.VisaInfo, error) {
	originCode, err := v.countryCode(ctx, origin)
	if err != nil || originCode == "" {
		return nil, err
	}
	destCode, err := v.countryCode(ctx, destination)
	if err != nil || destCode == "" {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/visa/%s/%s", v.baseURL, originCode, destCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build visa request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("visa request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("visa request: status %d", resp.StatusCode)
	}

	var out struct {
		Category struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"category"`
		Duration int `json:"dur"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode visa response: %w", err)
	}

	status, ok := categoryStatus[out.Category.Code]
	if !ok {
		status = model.VisaStatusUnknown
	}

	info := &model.VisaInfo{
		OriginCountry:      origin,
		DestinationCountry: destination,
		Requirement:        status,
		StatusDescription:  model.DescribeVisaStatus(status),
		Notes:              buildVisaNotes(out.Category.Name, out.Duration),
		Source:             visaSourceFreeAPI,
	}
	if out.Duration > 0 {
		info.StayDuration = fmt.Sprintf("%d days", out.Duration)
	}
	return info, nil
}

func (v *VisaClient) countryCode(ctx context.Context, name string) (string, error) {
	if code, ok := countryCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code, nil
	}
	return v.country.CodeOf(ctx, name)
}

func buildVisaNotes(categoryName string, duration int) string {
	notes := categoryName
	if duration > 0 {
		if notes != "" {
			notes += fmt.Sprintf(" for up to %d days", duration)
		} else {
			notes = fmt.Sprintf("Up to %d days", duration)
		}
	}
	return notes
}

func (v *VisaClient) fetchLLMEstimate(ctx context.Context, origin, destination string) (*model.VisaInfo, error) {
	if v.chat == nil {
		return nil, nil
	}

	prompt, err := prompts.VisaEstimate(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	out, err := v.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		einomodel.WithTemperature(visaEstimateTemperature))
	if err != nil {
		logx.Warn().Err(err).Msg("visa LLM estimate failed")
		return nil, err
	}

	content := strings.TrimSpace(out.Content)
	if fragment := visaJSONPattern.FindString(content); fragment != "" {
		content = fragment
	}

	var parsed struct {
		VisaRequired string `json:"visa_required"`
		VisaType     string `json:"visa_type"`
		StayDuration string `json:"stay_duration"`
		Notes        string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return parseVisaFromText(out.Content, origin, destination), nil
	}

	status := strings.ToLower(strings.TrimSpace(parsed.VisaRequired))
	if status == "" {
		status = model.VisaStatusUnknown
	}
	desc := model.DescribeVisaStatus(status)
	if parsed.VisaType != "" && parsed.VisaType != "null" {
		desc = fmt.Sprintf("%s (%s)", desc, parsed.VisaType)
	}

	return &model.VisaInfo{
		OriginCountry:      origin,
		DestinationCountry: destination,
		Requirement:        status,
		StatusDescription:  desc,
		StayDuration:       parsed.StayDuration,
		Notes:              parsed.Notes,
		Source:             visaSourceLLM,
	}, nil
}

// parseVisaFromText classifies an unstructured LLM answer by keyword search.
func parseVisaFromText(text, origin, destination string) *model.VisaInfo {
	lower := strings.ToLower(text)
	status := model.VisaStatusUnknown

	for _, entry := range textKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				status = entry.status
				break
			}
		}
		if status != model.VisaStatusUnknown {
			break
		}
	}

	notes := text
	if len(notes) > maxVisaNotesLength {
		notes = notes[:maxVisaNotesLength]
	}
	if notes == "" {
		notes = "Visa information from LLM"
	}

	return &model.VisaInfo{
		OriginCountry:      origin,
		DestinationCountry: destination,
		Requirement:        status,
		StatusDescription:  model.DescribeVisaStatus(status),
		Notes:              notes,
		Source:             visaSourceLLM,
	}
}
