// Package bcb fetches the monthly IPCA variation series from the Banco
// Central do Brasil time-series service (SGS) and chains it into index
// levels the indexation engine can consume.
package bcb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
)

// DefaultURL is the SGS endpoint of series 433 (IPCA, monthly % change).
const DefaultURL = "https://api.bcb.gov.br/dados/serie/bcdata.sgs.433/dados"

// BaseLevel is the level assigned to the month before the first observation.
const BaseLevel = 1000.0

// ErrNoObservations is returned when the response holds no usable record.
var ErrNoObservations = errors.New("no IPCA observations in response")

// Observation is one published monthly variation.
type Observation struct {
	Month time.Time
	// Percent is the monthly change in percent.
	Percent float64
}

// Client queries the SGS service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient returns a client; an empty baseURL or zero timeout selects the
// defaults.
func NewClient(logger *zap.Logger, baseURL string, timeout time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = constants.DefaultMarketTimeoutSeconds * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchIndexLevels returns index levels covering the variations published
// between from and to. The variation of month X is keyed at X+1, the month
// whose anniversary first applies it.
func (c *Client) FetchIndexLevels(ctx context.Context, from, to time.Time) (indexation.IndexSeries, error) {
	observations, err := c.FetchVariations(ctx, from, to)
	if err != nil {
		return nil, err
	}
	series := ChainLevels(observations)

	c.logger.Info(fmt.Sprintf("loaded %d IPCA observations", len(observations)),
		zap.String("op", "bcb.FetchIndexLevels"),
		zap.String("from", from.Format(constants.DateLayout)),
		zap.String("to", to.Format(constants.DateLayout)),
	)
	return series, nil
}

// FetchVariations downloads the raw monthly variations.
func (c *Client) FetchVariations(ctx context.Context, from, to time.Time) ([]Observation, error) {
	query := url.Values{}
	query.Set("formato", "xml")
	query.Set("dataInicial", from.Format(constants.BrazilianDateLayout))
	query.Set("dataFinal", to.Format(constants.BrazilianDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("IPCA request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read IPCA response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("IPCA request returned status %d", resp.StatusCode)
	}

	observations, err := ParseVariations(body)
	if err != nil {
		c.logger.Error("failed to parse IPCA response",
			zap.String("op", "bcb.FetchVariations"),
			zap.Error(err),
		)
		return nil, err
	}
	return observations, nil
}

// ParseVariations reads every element carrying <data> and <valor> children
// (dd/mm/yyyy date, decimal value). Records with an unreadable date or value
// are skipped. Observations are returned in month order.
func ParseVariations(raw []byte) ([]Observation, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("invalid IPCA XML: %w", err)
	}

	byMonth := make(map[string]Observation)
	for _, rec := range doc.FindElements("//*[data]") {
		dateEl, valueEl := rec.SelectElement("data"), rec.SelectElement("valor")
		if dateEl == nil || valueEl == nil {
			continue
		}
		date, err := time.Parse(constants.BrazilianDateLayout, strings.TrimSpace(dateEl.Text()))
		if err != nil {
			continue
		}
		pct, err := indexation.ParseDecimal(valueEl.Text())
		if err != nil {
			continue
		}
		month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[datetime.YearMonth(month)] = Observation{Month: month, Percent: pct}
	}
	if len(byMonth) == 0 {
		return nil, ErrNoObservations
	}

	observations := make([]Observation, 0, len(byMonth))
	for _, o := range byMonth {
		observations = append(observations, o)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Month.Before(observations[j].Month)
	})
	return observations, nil
}

// charsetReader decodes the Latin-1 payloads SGS declares; other labels are
// read as UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return input, nil
}

// ChainLevels compounds consecutive variations from BaseLevel, keyed one
// month after the month each variation was observed. Chaining stops at the
// first missing month; later months fall back to the projected rate.
func ChainLevels(observations []Observation) indexation.IndexSeries {
	series := make(indexation.IndexSeries, len(observations)+1)
	if len(observations) == 0 {
		return series
	}
	level := BaseLevel
	series[datetime.YearMonth(observations[0].Month)] = level
	for i, o := range observations {
		if i > 0 && !observations[i-1].Month.AddDate(0, 1, 0).Equal(o.Month) {
			break
		}
		level *= 1 + o.Percent/constants.PercentageMultiplier
		series[datetime.YearMonth(o.Month.AddDate(0, 1, 0))] = level
	}
	return series
}
