package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const WeatherToolID = "weather"

// WeatherTool answers the occasional small-talk weather question via
// OpenWeatherMap so the general responder can weave it into a reply.
type WeatherTool struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
}

type openWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func NewWeatherTool(apiKey string, baseURL string) *WeatherTool {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	return &WeatherTool{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   gocache.New(10*time.Minute, 20*time.Minute),
	}
}

func (t *WeatherTool) ID() string {
	return WeatherToolID
}

func (t *WeatherTool) Invoke(ctx context.Context, input string) (string, error) {
	city := strings.TrimSpace(input)
	if city == "" {
		return "", fmt.Errorf("city is required")
	}
	if t.apiKey == "" {
		return "", fmt.Errorf("weather api key not configured")
	}

	cacheKey := "weather:" + strings.ToLower(city)
	if cached, found := t.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		t.baseURL, url.QueryEscape(city), t.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather api error: status %d", resp.StatusCode)
	}

	var owm openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	description := "clear"
	if len(owm.Weather) > 0 {
		description = owm.Weather[0].Description
	}

	summary := fmt.Sprintf("Weather in %s, %s: %.1f°C, %s, humidity %d%%, wind %.1f m/s",
		owm.Name, owm.Sys.Country, owm.Main.Temp, description, owm.Main.Humidity, owm.Wind.Speed)

	t.cache.Set(cacheKey, summary, gocache.DefaultExpiration)
	return summary, nil
}
