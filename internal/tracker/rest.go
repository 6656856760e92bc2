package tracker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type restClient struct {
	cfg         Config
	httpClient  *http.Client
	lastRequest time.Time
}

func newRestClient(cfg Config) Client {
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = 10 * time.Second
	}
	return &restClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (c *restClient) throttle(isMetadata bool) {
	// Metadata requests (sprint listings) are allowed to "burst" sequentially
	// to avoid artificial delay while resolving references.
	if isMetadata {
		c.lastRequest = time.Now()
		return
	}

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling tracker request")
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

func (c *restClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Fallback to session cookies
	cookies := []struct {
		name  string
		value string
	}{
		{"atlassian.xsrf.token", c.cfg.XsrfToken},
		{"JSESSIONID", c.cfg.SessionID},
		{"seraph.rememberme.cookie", c.cfg.RememberMe},
	}

	var cookiePairs []string
	for _, cookie := range cookies {
		if cookie.value != "" {
			// We build the string manually to avoid net/http's strict RFC 6265
			// validation which would drop valid cookies containing double quotes.
			cookiePairs = append(cookiePairs, fmt.Sprintf("%s=%s", cookie.name, cookie.value))
		}
	}

	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
}

func (c *restClient) get(rawURL string, isMetadata bool, out any) error {
	c.throttle(isMetadata)

	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return err
	}

	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("tracker authentication failed (401/403), check your token or session cookies")
		case http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			if retryAfter != "" {
				return fmt.Errorf("tracker rate limit exceeded (429), retry after %s seconds", retryAfter)
			}
			return fmt.Errorf("tracker rate limit exceeded (429)")
		default:
			return fmt.Errorf("tracker API returned status %d", resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode tracker response: %w", err)
	}
	return nil
}

func (c *restClient) ListSprints(boardID int) ([]SprintDTO, error) {
	listURL := fmt.Sprintf("%s/rest/greenhopper/1.0/sprintquery/%d?includeHistoricSprints=true&includeFutureSprints=true",
		c.cfg.BaseURL, boardID)
	log.Debug().Int("board", boardID).Msg("Requesting sprint listing from tracker")

	var result SprintListResponse
	if err := c.get(listURL, true, &result); err != nil {
		if err == errNotFound {
			return nil, fmt.Errorf("board %d not found", boardID)
		}
		return nil, err
	}
	return result.Sprints, nil
}

func (c *restClient) GetSprintReport(boardID int, sprintID int) (*SprintReportDTO, error) {
	params := url.Values{}
	params.Set("rapidViewId", fmt.Sprintf("%d", boardID))
	params.Set("sprintId", fmt.Sprintf("%d", sprintID))

	reportURL := fmt.Sprintf("%s/rest/greenhopper/1.0/rapid/charts/sprintreport?%s", c.cfg.BaseURL, params.Encode())
	log.Info().Int("board", boardID).Int("sprint", sprintID).Msg("Requesting sprint report from tracker")

	var result SprintReportDTO
	if err := c.get(reportURL, false, &result); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (c *restClient) SearchIssues(jql string) ([]IssueDTO, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", "500")
	params.Set("fields", "summary,assignee,status,resolution,priority,created,updated,customfield_10300,customfield_10002")

	searchURL := fmt.Sprintf("%s/rest/api/2/search?%s", c.cfg.BaseURL, params.Encode())
	log.Info().Msg("Requesting issues from tracker")
	log.Debug().Str("jql", jql).Msg("Tracker search details")

	var result SearchResponse
	if err := c.get(searchURL, false, &result); err != nil {
		return nil, err
	}
	return result.Issues, nil
}

// errNotFound is internal to the client; callers see nil results instead.
var errNotFound = fmt.Errorf("tracker: not found")
