package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const GithubCatalogToolID = "github-catalog"

// GithubCatalogTool lists the portfolio owner's public repositories so the
// project tour responder can reference live repo metadata (stars, language,
// last push) instead of stale corpus text.
type GithubCatalogTool struct {
	username string
	baseURL  string
	client   *http.Client
	cache    *gocache.Cache
}

type githubRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	HTMLURL     string `json:"html_url"`
	PushedAt    string `json:"pushed_at"`
	Fork        bool   `json:"fork"`
}

func NewGithubCatalogTool(username string, baseURL string) *GithubCatalogTool {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GithubCatalogTool{
		username: username,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    gocache.New(10*time.Minute, 20*time.Minute),
	}
}

func (t *GithubCatalogTool) ID() string {
	return GithubCatalogToolID
}

// Invoke fetches the repo catalog. The input query is unused beyond logging;
// the catalog is small enough to hand over whole.
func (t *GithubCatalogTool) Invoke(ctx context.Context, input string) (string, error) {
	cacheKey := "catalog:" + t.username
	if cached, found := t.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	url := fmt.Sprintf("%s/users/%s/repos?sort=pushed&per_page=30", t.baseURL, t.username)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var repos []githubRepo
	if err := json.Unmarshal(bodyBytes, &repos); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	catalog := formatCatalog(repos)
	t.cache.Set(cacheKey, catalog, gocache.DefaultExpiration)
	return catalog, nil
}

func formatCatalog(repos []githubRepo) string {
	var builder strings.Builder
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		builder.WriteString(fmt.Sprintf("- %s", repo.Name))
		if repo.Language != "" {
			builder.WriteString(fmt.Sprintf(" (%s)", repo.Language))
		}
		if repo.Stars > 0 {
			builder.WriteString(fmt.Sprintf(" [%d stars]", repo.Stars))
		}
		if repo.Description != "" {
			builder.WriteString(": " + repo.Description)
		}
		builder.WriteString(fmt.Sprintf(" %s\n", repo.HTMLURL))
	}
	if builder.Len() == 0 {
		return "No public repositories found."
	}
	return builder.String()
}
