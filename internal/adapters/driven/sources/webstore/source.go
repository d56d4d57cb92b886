// Package webstore scrapes order-history pages from a retailer
// storefront over HTTP: form login (with an optional one-time-password
// step), then paginated order listing, emitting one raw status per card.
package webstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/parcelcal/parcelcal/internal/adapters/driven/auth"
	"github.com/parcelcal/parcelcal/internal/core/domain"
	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
	"github.com/parcelcal/parcelcal/internal/logx"
)

// Paths relative to the storefront base URL. Every storefront we scrape
// uses this account layout.
const (
	loginPath  = "/account/login"
	ordersPath = "/account/orders"
)

const userAgent = "parcelcal/1.0"

// Config configures one storefront source.
type Config struct {
	Name       string
	BaseURL    string
	Email      string
	Password   string
	TOTPSecret string
	MaxPages   int
}

// Source is a retailer storefront scraped over HTTP.
type Source struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	totp    *auth.TOTP
	log     logx.Logger

	mu            sync.Mutex
	authenticated bool
}

var _ driven.Source = (*Source)(nil)

// New creates a storefront source. The client carries a cookie jar so
// the login session persists across the pagination requests.
func New(cfg Config, log logx.Logger) (*Source, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source %s: %w: base_url is required", cfg.Name, domain.ErrInvalidInput)
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if log == nil {
		log = logx.Nop()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	s := &Source{
		cfg: cfg,
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		// One request per second with a small burst keeps us under the
		// storefronts' anti-bot thresholds.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		log:     log.With(logx.String("source", cfg.Name)),
	}
	if cfg.TOTPSecret != "" {
		s.totp = auth.NewTOTP(cfg.TOTPSecret)
	}
	return s, nil
}

// Name returns the configured source name.
func (s *Source) Name() string {
	return s.cfg.Name
}

// Authenticate performs the form login, including the one-time-password
// step when the account challenges for it.
func (s *Source) Authenticate(ctx context.Context) error {
	if s.cfg.Email == "" || s.cfg.Password == "" {
		return fmt.Errorf("source %s: %w", s.cfg.Name, domain.ErrMissingCredentials)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated {
		return nil
	}

	loginPage, err := s.get(ctx, loginPath)
	if err != nil {
		return fmt.Errorf("source %s: loading login page: %w", s.cfg.Name, err)
	}

	// Hidden fields (CSRF token and friends) must round-trip with the
	// credential post.
	form, err := extractFormFields(loginPage)
	if err != nil {
		return fmt.Errorf("source %s: parsing login page: %w", s.cfg.Name, err)
	}
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	values.Set("email", s.cfg.Email)
	values.Set("password", s.cfg.Password)

	body, err := s.postForm(ctx, loginPath, values)
	if err != nil {
		return fmt.Errorf("source %s: submitting credentials: %w", s.cfg.Name, err)
	}

	if pageHasOTPChallenge(body) {
		if s.totp == nil {
			return fmt.Errorf("source %s: account requires a one-time password but no totp_secret is configured: %w",
				s.cfg.Name, domain.ErrAuthFailed)
		}
		code, err := s.totp.Code()
		if err != nil {
			return fmt.Errorf("source %s: generating one-time password: %w", s.cfg.Name, err)
		}
		otpValues := url.Values{}
		otpValues.Set("otp", code)
		body, err = s.postForm(ctx, loginPath, otpValues)
		if err != nil {
			return fmt.Errorf("source %s: submitting one-time password: %w", s.cfg.Name, err)
		}
	}

	if !pageLooksSignedIn(body) {
		return fmt.Errorf("source %s: %w", s.cfg.Name, domain.ErrAuthFailed)
	}

	s.authenticated = true
	s.log.Debug("authenticated")
	return nil
}

// Statuses streams raw order statuses from the history pages. Fetching
// is lazy: pages are requested as the consumer drains the channel, and
// both channels close when pagination ends or the context is cancelled.
func (s *Source) Statuses(ctx context.Context) (<-chan domain.RawStatus, <-chan error) {
	statuses := make(chan domain.RawStatus)
	errs := make(chan error, 1)

	go func() {
		defer close(statuses)
		defer close(errs)

		for page := 1; page <= s.cfg.MaxPages; page++ {
			body, err := s.get(ctx, fmt.Sprintf("%s?page=%d", ordersPath, page))
			if err != nil {
				errs <- fmt.Errorf("source %s: fetching orders page %d: %w", s.cfg.Name, page, err)
				return
			}

			cards, err := extractOrders(body)
			if err != nil {
				errs <- fmt.Errorf("source %s: parsing orders page %d: %w", s.cfg.Name, page, err)
				return
			}
			if len(cards) == 0 {
				// Past the last page of history.
				return
			}
			s.log.Debug("scraped orders page",
				logx.Int("page", page), logx.Int("cards", len(cards)))

			for _, card := range cards {
				raw := domain.RawStatus{
					OrderID:    card.orderID,
					Items:      card.items,
					StatusText: card.statusText,
					DetailLink: s.absoluteURL(card.detailLink),
					Source:     s.cfg.Name,
				}
				select {
				case statuses <- raw:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
	}()

	return statuses, errs
}

// Release drops the session so the next run starts from a fresh login.
// Safe to call more than once.
func (s *Source) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.client.CloseIdleConnections()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	s.client.Jar = jar
	return nil
}

// get fetches a path under the base URL, honoring the rate limit.
func (s *Source) get(ctx context.Context, path string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	return s.do(req)
}

// postForm posts form values to a path under the base URL.
func (s *Source) postForm(ctx context.Context, path string, values url.Values) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Source) do(req *http.Request) (string, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// absoluteURL resolves a scraped href against the storefront base.
func (s *Source) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return s.cfg.BaseURL + href
}
