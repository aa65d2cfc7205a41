// ABOUTME: HTTP client for the PNCP public procurement API
// ABOUTME: Token-bucket rate limiting, backoff retries, and page-size fallback
package pncp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL  = "https://pncp.gov.br/api/consulta/v1/contratacoes/publicacao"
	defaultItemsURL = "https://pncp.gov.br/api/pncp/v1/orgaos/%s/compras/%d/%d/itens"
	userAgent       = "atadesk/1.0"

	jitterMax = 200 * time.Millisecond
)

// pageSizeCandidates are tried in order until the server accepts one.
// Zero means omit tamanhoPagina and take the server default.
var pageSizeCandidates = []int{500, 200, 100, 50, 0}

// Modalidades maps PNCP contracting modality codes to their names.
var Modalidades = map[int]string{
	1:  "Leilão - Eletrônico",
	2:  "Diálogo Competitivo",
	3:  "Concurso",
	4:  "Concorrência - Eletrônica",
	5:  "Concorrência - Presencial",
	6:  "Pregão - Eletrônico",
	7:  "Pregão - Presencial",
	8:  "Dispensa de Licitação",
	9:  "Inexigibilidade",
	10: "Manifestação de Interesse",
	11: "Pré-qualificação",
	12: "Credenciamento",
	13: "Leilão - Presencial",
}

// Config holds client settings, all overridable through PNCP_* environment
// variables.
type Config struct {
	BaseURL    string
	ItemsURL   string
	RPS        float64
	Burst      float64
	MaxRetries int
	Timeout    time.Duration
	CacheDir   string
	CacheOnly  bool
	CacheTTL   time.Duration
}

// ConfigFromEnv builds a Config from the environment, falling back to the
// defaults for anything unset or malformed.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:    defaultBaseURL,
		ItemsURL:   defaultItemsURL,
		RPS:        15,
		Burst:      30,
		MaxRetries: 4,
		Timeout:    25 * time.Second,
		CacheDir:   "./cache",
		CacheTTL:   7 * 24 * time.Hour,
	}

	if v := os.Getenv("PNCP_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("PNCP_ITEMS_URL"); v != "" {
		cfg.ItemsURL = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("PNCP_RPS"), 64); err == nil && v > 0 {
		cfg.RPS = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("PNCP_RPS_BURST"), 64); err == nil && v > 0 {
		cfg.Burst = v
	}
	if v, err := strconv.Atoi(os.Getenv("PNCP_MAX_RETRIES")); err == nil && v >= 0 {
		cfg.MaxRetries = v
	}
	if v, err := strconv.Atoi(os.Getenv("PNCP_READ_TIMEOUT")); err == nil && v > 0 {
		cfg.Timeout = time.Duration(v) * time.Second
	}
	if v := os.Getenv("PNCP_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	cfg.CacheOnly = os.Getenv("PNCP_CACHE_ONLY") == "1"

	return cfg
}

// Contratacao is a procurement record from the publication feed.
type Contratacao struct {
	NumeroControlePNCP string `json:"numeroControlePNCP"`
	ObjetoCompra       string `json:"objetoCompra"`
	ModalidadeID       int    `json:"modalidadeId"`
	AnoCompra          int    `json:"anoCompra"`
	SequencialCompra   int    `json:"sequencialCompra"`
	DataPublicacaoPncp string `json:"dataPublicacaoPncp"`
	OrgaoEntidade      struct {
		CNPJ        string `json:"cnpj"`
		RazaoSocial string `json:"razaoSocial"`
	} `json:"orgaoEntidade"`
}

// Item is one line of a procurement. Money fields stay json.Number so the
// decimal text survives untouched until conversion to centavos.
type Item struct {
	NumeroItem            int         `json:"numeroItem"`
	Descricao             string      `json:"descricao"`
	Quantidade            json.Number `json:"quantidade"`
	ValorUnitarioEstimado json.Number `json:"valorUnitarioEstimado"`
	ValorTotalEstimado    json.Number `json:"valorTotalEstimado"`
}

type pageResponse struct {
	Data         []Contratacao `json:"data"`
	TotalPaginas int           `json:"totalPaginas"`
}

// ControlNumber is the parsed form of a numeroControlePNCP, which arrives
// as "CNPJ-1-SEQUENTIAL/YEAR".
type ControlNumber struct {
	CNPJ string
	Ano  int
	Seq  int
}

// ParseControlNumber splits a control number into its CNPJ, year and
// sequential parts.
func ParseControlNumber(raw string) (ControlNumber, error) {
	var cn ControlNumber

	left, year, ok := strings.Cut(raw, "/")
	if !ok {
		return cn, fmt.Errorf("control number %q: missing year separator", raw)
	}

	parts := strings.Split(left, "-")
	if len(parts) < 2 {
		return cn, fmt.Errorf("control number %q: missing sequential separator", raw)
	}
	cn.CNPJ = parts[0]

	seq := strings.TrimLeft(parts[len(parts)-1], "0")
	if seq == "" {
		seq = "0"
	}

	var err error
	if cn.Ano, err = strconv.Atoi(year); err != nil {
		return cn, fmt.Errorf("control number %q: bad year: %w", raw, err)
	}
	if cn.Seq, err = strconv.Atoi(seq); err != nil {
		return cn, fmt.Errorf("control number %q: bad sequential: %w", raw, err)
	}

	return cn, nil
}

// EditalURL returns the public portal link for the procurement.
func (cn ControlNumber) EditalURL() string {
	return fmt.Sprintf("https://pncp.gov.br/app/editais/%s/%d/%d", cn.CNPJ, cn.Ano, cn.Seq)
}

// Window is an inclusive date range for the publication query.
type Window struct {
	From time.Time
	To   time.Time
}

// SplitMonthly divides [from, to] into calendar-month windows. The API
// rejects long ranges, so every query goes out one month at a time.
func SplitMonthly(from, to time.Time) ([]Window, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("window end %s before start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	var out []Window
	cur := from
	for !cur.After(to) {
		// Last day of cur's month
		monthEnd := time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, cur.Location()).AddDate(0, 0, -1)
		if monthEnd.After(to) {
			monthEnd = to
		}
		out = append(out, Window{From: cur, To: monthEnd})
		cur = monthEnd.AddDate(0, 0, 1)
	}
	return out, nil
}

// tokenBucket throttles outgoing requests. Tokens refill continuously at
// the configured rate up to the burst capacity.
type tokenBucket struct {
	mu       sync.Mutex
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
}

func newTokenBucket(rate, capacity float64) *tokenBucket {
	return &tokenBucket{
		rate:     rate,
		capacity: capacity,
		tokens:   capacity,
		last:     time.Now(),
	}
}

func (b *tokenBucket) acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(b.last).Seconds()
		if elapsed > 0 {
			b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.rate)
			b.last = now
		}
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Client talks to the PNCP consultation API.
type Client struct {
	cfg    Config
	http   *http.Client
	bucket *tokenBucket
	cache  *Cache

	mu        sync.Mutex
	pageSizes map[int]int // accepted tamanhoPagina per modalidade
}

// NewClient builds a client. The cache may be nil, in which case every
// request goes to the network.
func NewClient(cfg Config, cache *Cache) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		bucket:    newTokenBucket(cfg.RPS, cfg.Burst),
		cache:     cache,
		pageSizes: make(map[int]int),
	}
}

// getWithBackoff performs a rate-limited GET, retrying 429 and 5xx with
// increasing waits. Other 4xx responses fail immediately.
func (c *Client) getWithBackoff(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	full := rawURL
	if len(params) > 0 {
		full = rawURL + "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.bucket.acquire(ctx); err != nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(rand.Float64() * float64(jitterMax))):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "*/*")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.http.Do(req)
		status := 0
		var body []byte
		if err == nil {
			status = resp.StatusCode
			body, _ = io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			resp.Body.Close()
		}

		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}

		retryable := err != nil || status == http.StatusTooManyRequests || status >= 500
		if !retryable {
			return nil, &HTTPError{Status: status, URL: full, Body: truncate(string(body), 400)}
		}
		if attempt >= c.cfg.MaxRetries {
			if err != nil {
				return nil, fmt.Errorf("GET %s: %w", full, err)
			}
			return nil, &HTTPError{Status: status, URL: full, Body: truncate(string(body), 400)}
		}

		wait := time.Duration((math.Pow(1.4, float64(attempt+1)) + float64(attempt+1)*0.25) * float64(time.Second))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// HTTPError carries the status and a trimmed body of a failed request.
type HTTPError struct {
	Status int
	URL    string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.Status, e.URL, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (c *Client) baseParams(w Window, modalidade, page int) url.Values {
	params := url.Values{}
	params.Set("dataInicial", w.From.Format("20060102"))
	params.Set("dataFinal", w.To.Format("20060102"))
	params.Set("codigoModalidadeContratacao", strconv.Itoa(modalidade))
	params.Set("pagina", strconv.Itoa(page))
	return params
}

// fetchPage requests one page, probing page sizes on the first call for a
// modalidade and reusing the accepted size afterwards.
func (c *Client) fetchPage(ctx context.Context, w Window, modalidade, page int) (*pageResponse, error) {
	c.mu.Lock()
	size, known := c.pageSizes[modalidade]
	c.mu.Unlock()

	if known {
		params := c.baseParams(w, modalidade, page)
		if size > 0 {
			params.Set("tamanhoPagina", strconv.Itoa(size))
		}
		body, err := c.getWithBackoff(ctx, c.cfg.BaseURL, params)
		if err != nil {
			return nil, err
		}
		return decodePage(body)
	}

	var lastErr error
	for _, candidate := range pageSizeCandidates {
		params := c.baseParams(w, modalidade, page)
		if candidate > 0 {
			params.Set("tamanhoPagina", strconv.Itoa(candidate))
		}
		body, err := c.getWithBackoff(ctx, c.cfg.BaseURL, params)
		if err != nil {
			var httpErr *HTTPError
			// 400 means the size was rejected; try the next candidate
			if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
				lastErr = err
				continue
			}
			return nil, err
		}
		c.mu.Lock()
		c.pageSizes[modalidade] = candidate
		c.mu.Unlock()
		return decodePage(body)
	}
	return nil, fmt.Errorf("no accepted page size for modalidade %d: %w", modalidade, lastErr)
}

func decodePage(body []byte) (*pageResponse, error) {
	var page pageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode publication page: %w", err)
	}
	return &page, nil
}

// FetchContratacoes returns every publication record of a modalidade in the
// window, walking all pages. Cached windows are served without touching the
// network.
func (c *Client) FetchContratacoes(ctx context.Context, w Window, modalidade int) ([]Contratacao, error) {
	cacheKey := fmt.Sprintf("contratacoes:m%d:%s:%s",
		modalidade, w.From.Format("20060102"), w.To.Format("20060102"))

	if c.cache != nil {
		var cached []Contratacao
		hit, err := c.cache.Get(cacheKey, &cached)
		if err == nil && hit {
			return cached, nil
		}
	}
	if c.cfg.CacheOnly {
		return nil, nil
	}

	first, err := c.fetchPage(ctx, w, modalidade, 1)
	if err != nil {
		return nil, err
	}

	all := first.Data
	for page := 2; page <= first.TotalPaginas; page++ {
		next, err := c.fetchPage(ctx, w, modalidade, page)
		if err != nil {
			return nil, err
		}
		all = append(all, next.Data...)
	}

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, all, c.cfg.CacheTTL); err != nil {
			return all, nil // cache failures never fail the fetch
		}
	}
	return all, nil
}

// FetchItems returns the item lines of one procurement. The endpoint
// answers either a bare array or an object with a data field.
func (c *Client) FetchItems(ctx context.Context, cn ControlNumber) ([]Item, error) {
	cacheKey := fmt.Sprintf("itens:%s:%d:%d", cn.CNPJ, cn.Ano, cn.Seq)

	if c.cache != nil {
		var cached []Item
		hit, err := c.cache.Get(cacheKey, &cached)
		if err == nil && hit {
			return cached, nil
		}
	}
	if c.cfg.CacheOnly {
		return nil, nil
	}

	body, err := c.getWithBackoff(ctx, fmt.Sprintf(c.cfg.ItemsURL, cn.CNPJ, cn.Ano, cn.Seq), nil)
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapped struct {
			Data []Item `json:"data"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to decode items for %s: %w", cn.EditalURL(), err)
		}
		items = wrapped.Data
	}

	if c.cache != nil {
		_ = c.cache.Set(cacheKey, items, c.cfg.CacheTTL)
	}
	return items, nil
}
