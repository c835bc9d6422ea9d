package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/m04kA/stancastle-booking/pkg/fallback"
)

// zoom ждёт локальное время без смещения плюс отдельное поле timezone
const startTimeLayout = "2006-01-02T15:04:05"

// Config учётные данные Zoom
type Config struct {
	BaseURL  string
	TokenURL string
	UserID   string

	// Server-to-Server OAuth
	AccountID    string
	ClientID     string
	ClientSecret string

	// AccessToken статический токен, запасной вариант
	AccessToken string

	Timeout time.Duration
}

// Client создает встречи через REST API Zoom
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	loc        *time.Location

	primary  *namedSource
	fallback *namedSource

	log Logger
}

type namedSource struct {
	name string
	ts   oauth2.TokenSource
}

// NewClient собирает стратегию токенов: OAuth основной, статический запасной.
// Если задан только один способ, запасного нет
func NewClient(cfg Config, loc *time.Location, log Logger) (*Client, error) {
	var sources []*namedSource

	if cfg.AccountID != "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			EndpointParams: url.Values{
				"grant_type": {"account_credentials"},
				"account_id": {cfg.AccountID},
			},
			AuthStyle: oauth2.AuthStyleInHeader,
		}
		sources = append(sources, &namedSource{name: "oauth", ts: cc.TokenSource(context.Background())})
	}
	if cfg.AccessToken != "" {
		sources = append(sources, &namedSource{
			name: "static",
			ts:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}),
		})
	}
	if len(sources) == 0 {
		return nil, ErrNotConfigured
	}

	userID := cfg.UserID
	if userID == "" {
		userID = "me"
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userID:     userID,
		loc:        loc,
		primary:    sources[0],
		log:        log,
	}
	if len(sources) > 1 {
		c.fallback = sources[1]
	}
	return c, nil
}

// CreateMeeting создает встречу. 401 или недоступный токен у основного
// способа приводят ровно к одной попытке с запасным
func (c *Client) CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	strategy := fallback.Strategy[*Meeting]{
		Primary: func(ctx context.Context) (*Meeting, error) {
			return c.createWith(ctx, c.primary, req)
		},
		Retryable: fallback.On(ErrUnauthorized, ErrTokenUnavailable),
	}
	if c.fallback != nil {
		strategy.Fallback = func(ctx context.Context) (*Meeting, error) {
			return c.createWith(ctx, c.fallback, req)
		}
		strategy.OnFallback = func(err error) {
			c.log.Warn("Zoom: %s token failed (%v), retrying with %s token", c.primary.name, err, c.fallback.name)
		}
	}

	return strategy.Do(ctx)
}

func (c *Client) createWith(ctx context.Context, src *namedSource, req MeetingRequest) (*Meeting, error) {
	tok, err := src.ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTokenUnavailable, src.name, err)
	}

	body, err := json.Marshal(createMeetingBody{
		Topic:     req.Topic,
		Type:      meetingTypeScheduled,
		StartTime: req.Start.In(c.loc).Format(startTimeLayout),
		Timezone:  c.loc.String(),
		Duration:  req.DurationMinutes,
		Settings:  meetingSettings{JoinBeforeHost: true},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", ErrCreateMeeting, err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/meetings", c.baseURL, url.PathEscape(c.userID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateMeeting, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateMeeting, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s token rejected", ErrUnauthorized, src.name)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrCreateMeeting, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out createMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCreateMeeting, err)
	}
	if out.JoinURL == "" {
		return nil, fmt.Errorf("%w: empty join_url", ErrCreateMeeting)
	}

	return &Meeting{ID: strconv.FormatInt(out.ID, 10), JoinURL: out.JoinURL}, nil
}
