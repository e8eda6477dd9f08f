package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

const githubAPIBase = "https://api.github.com"

// GitHubLookup implements EnrichmentLookup against the GitHub REST API.
// It derives a set of proven programming languages from the user's public
// repositories. Failures here are always non-critical for the analysis.
type GitHubLookup struct {
	Token   string // optional, raises the rate limit when set
	BaseURL string
	Client  *http.Client
}

var _ EnrichmentLookup = &GitHubLookup{}

func NewGitHubLookup(token string) *GitHubLookup {
	return &GitHubLookup{
		Token:   token,
		BaseURL: githubAPIBase,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type githubUser struct {
	Login       string `json:"login"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
}

type githubRepo struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Fork     bool   `json:"fork"`
}

func (g *GitHubLookup) Lookup(ctx context.Context, identifier string) (*EnrichmentData, error) {
	if identifier == "" {
		return nil, fmt.Errorf("empty github username")
	}

	var user githubUser
	if err := g.get(ctx, fmt.Sprintf("%s/users/%s", g.BaseURL, identifier), &user); err != nil {
		return nil, fmt.Errorf("github user lookup: %w", err)
	}

	var repos []githubRepo
	if err := g.get(ctx, fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=updated", g.BaseURL, identifier), &repos); err != nil {
		return nil, fmt.Errorf("github repos lookup: %w", err)
	}

	// Count languages over non-fork repos; forks say little about the user
	langCounts := make(map[string]int)
	for _, repo := range repos {
		if repo.Fork || repo.Language == "" {
			continue
		}
		langCounts[repo.Language]++
	}

	languages := make([]string, 0, len(langCounts))
	for lang := range langCounts {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		if langCounts[languages[i]] != langCounts[languages[j]] {
			return langCounts[languages[i]] > langCounts[languages[j]]
		}
		return languages[i] < languages[j]
	})

	return &EnrichmentData{
		Identifier:  user.Login,
		ProfileURL:  user.HTMLURL,
		PublicRepos: user.PublicRepos,
		Languages:   languages,
	}, nil
}

func (g *GitHubLookup) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	res, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("github response code %d, body %s", res.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
