// Package anbima fetches the ANBIMA term structure (ETTJ) and turns it into
// PRE and NTN-B rate curves.
package anbima

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
)

// DefaultURL is the ETTJ query page.
const DefaultURL = "https://www.anbima.com.br/informacoes/est-termo/CZ.asp"

// errNoData marks a reference date without a published curve.
var errNoData = errors.New("no curve published for reference date")

// Curves is the term structure published for one reference date.
type Curves struct {
	ReferenceDate time.Time
	Pre           curve.Curve
	NTNB          curve.Curve
}

// Market returns the curves in the form the cash-flow builder consumes.
func (c Curves) Market() cashflow.MarketCurves {
	return cashflow.MarketCurves{Pre: c.Pre, NTNB: c.NTNB}
}

// Info summarizes both curves.
func (c Curves) Info() []curve.Info {
	return []curve.Info{c.Pre.Info(), c.NTNB.Info()}
}

// Client queries the ANBIMA ETTJ page.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	logger      *zap.Logger

	mu    sync.Mutex
	cache map[string]Curves
}

// NewClient returns a client. Zero values select the defaults.
func NewClient(logger *zap.Logger, baseURL string, timeout time.Duration, maxAttempts int) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = constants.DefaultMarketTimeoutSeconds * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = constants.DefaultCurveAttempts
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		logger:      logger,
		cache:       make(map[string]Curves),
	}
}

// FetchCurves tries referenceDate and then each prior calendar day, up to
// the configured number of attempts. ok is false when no attempt produced a
// curve; the caller then keeps its fixed rates.
func (c *Client) FetchCurves(ctx context.Context, referenceDate time.Time) (Curves, bool) {
	referenceDate = datetime.Truncate(referenceDate)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		date := referenceDate.AddDate(0, 0, -attempt)
		key := date.Format(constants.DateLayout)

		c.mu.Lock()
		cached, hit := c.cache[key]
		c.mu.Unlock()
		if hit {
			return cached, true
		}

		curves, err := c.fetch(ctx, date)
		if err != nil {
			c.logger.Debug(fmt.Sprintf("no ETTJ for %s: %v", key, err),
				zap.String("op", "anbima.FetchCurves"),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		c.mu.Lock()
		c.cache[key] = curves
		c.mu.Unlock()

		c.logger.Info("ETTJ curve loaded",
			zap.String("op", "anbima.FetchCurves"),
			zap.String("referenceDate", key),
			zap.Int("preVertices", curves.Pre.Len()),
			zap.Int("ntnbVertices", curves.NTNB.Len()),
		)
		return curves, true
	}

	c.logger.Warn(fmt.Sprintf("ETTJ curve unavailable after %d attempts from %s", c.maxAttempts,
		referenceDate.Format(constants.DateLayout)),
		zap.String("op", "anbima.FetchCurves"),
	)
	return Curves{}, false
}

func (c *Client) fetch(ctx context.Context, date time.Time) (Curves, error) {
	form := url.Values{}
	form.Set("Idioma", "PT")
	form.Set("Dt_Ref", date.Format(constants.BrazilianDateLayout))
	form.Set("saida", "html")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Curves{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Curves{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Curves{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	curves, err := ParseETTJ(resp.Body)
	if err != nil {
		return Curves{}, err
	}
	curves.ReferenceDate = date
	return curves, nil
}

// ParseETTJ reads the first HTML table whose header has a "Vertice" column
// and builds the PRE ("Prefixados") and NTN-B ("IPCA" or "ETTJ IPCA") curves from it.
// Vertices use Brazilian thousands separators ("1.008") and rates decimal
// commas ("10,6523"); rows with blank cells are skipped.
func ParseETTJ(r io.Reader) (Curves, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Curves{}, fmt.Errorf("failed to parse ETTJ page: %w", err)
	}

	var pre, ntnb []curve.Vertex
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		vertexCol, preCol, ipcaCol := -1, -1, -1
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("th, td")
			if vertexCol < 0 {
				cells.Each(func(i int, cell *goquery.Selection) {
					switch h := header(cell.Text()); {
					case strings.HasPrefix(h, "vertice"):
						vertexCol = i
					case h == "prefixados" || h == "pre":
						preCol = i
					case h == "ipca" || strings.HasSuffix(h, " ipca"):
						ipcaCol = i
					}
				})
				return
			}

			vertex, ok := parseVertex(cellText(cells, vertexCol))
			if !ok {
				return
			}
			if rate, err := indexation.ParseDecimal(cellText(cells, preCol)); err == nil {
				pre = append(pre, curve.Vertex{BusinessDays: vertex, Rate: rate})
			}
			if rate, err := indexation.ParseDecimal(cellText(cells, ipcaCol)); err == nil {
				ntnb = append(ntnb, curve.Vertex{BusinessDays: vertex, Rate: rate})
			}
		})
		return vertexCol < 0
	})

	if len(pre) == 0 && len(ntnb) == 0 {
		return Curves{}, errNoData
	}

	preCurve, err := curve.New(curve.Pre, pre)
	if err != nil {
		return Curves{}, err
	}
	ntnbCurve, err := curve.New(curve.NTNB, ntnb)
	if err != nil {
		return Curves{}, err
	}
	return Curves{Pre: preCurve, NTNB: ntnbCurve}, nil
}

// header normalizes a header cell: "Vértice" -> "vertice".
func header(s string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripAccents, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func cellText(cells *goquery.Selection, i int) string {
	if i < 0 || i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}

func parseVertex(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
