package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/quotes"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/netx"
)

// QuoteSource fetches one random quote.
type QuoteSource interface {
	RandomQuote(ctx context.Context) (*models.Quote, error)
}

// HTTPQuoteSource reads quotes from an API that answers with a JSON list of
// {"quote", "author", "categories"} objects.
type HTTPQuoteSource struct {
	URL    string
	APIKey string
	Client netx.HTTPClient
}

type quoteResponse struct {
	Quote      string   `json:"quote"`
	Author     string   `json:"author"`
	Categories []string `json:"categories"`
}

func (s *HTTPQuoteSource) RandomQuote(ctx context.Context) (*models.Quote, error) {
	const op = "quotes.fetch"
	if s.URL == "" {
		return nil, common.New(common.KindValidation, op, "quote endpoint is not configured")
	}

	var headers map[string]string
	if s.APIKey != "" {
		headers = map[string]string{"X-Api-Key": s.APIKey}
	}
	var resp []quoteResponse
	if err := netx.GetJSON(ctx, s.Client, s.URL, headers, &resp); err != nil {
		return nil, remoteErr(op, err)
	}
	if len(resp) == 0 || strings.TrimSpace(resp[0].Quote) == "" {
		return nil, common.New(common.KindRemoteUnavailable, op, "no quotes returned")
	}

	q := &models.Quote{Text: resp[0].Quote, Author: resp[0].Author}
	if len(resp[0].Categories) > 0 {
		q.Category = resp[0].Categories[0]
	}
	return q, nil
}

// QuoteService serves the quote of the moment with an offline fallback.
type QuoteService struct {
	source QuoteSource
	repo   quotes.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewQuoteService(source QuoteSource, repo quotes.Repository, l logging.Logger) *QuoteService {
	return &QuoteService{
		source: source,
		repo:   repo,
		logger: l.With("module", "quote_service"),
		now:    time.Now,
	}
}

// FetchNewQuote fetches and caches a new quote. When the source fails it
// falls back to the latest cached quote, and with an empty cache it caches
// and returns models.DefaultQuote. Errors are reserved for local storage
// faults and cancellation.
func (s *QuoteService) FetchNewQuote(ctx context.Context) (*models.Quote, error) {
	q, err := s.source.RandomQuote(ctx)
	if err == nil {
		q.FetchedAt = s.now().UnixMilli()
		if err := s.repo.Insert(ctx, q); err != nil {
			return nil, err
		}
		return q, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	s.logger.Warn(ctx, "quote fetch failed", "kind", common.KindOf(err), "error", err)

	cached, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		s.logger.Debug(ctx, "returning cached quote", "id", cached.ID)
		return cached, nil
	}

	def := models.DefaultQuote
	def.FetchedAt = s.now().UnixMilli()
	if err := s.repo.Insert(ctx, &def); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "no cached quote, returning default")
	return &def, nil
}

// DeleteOldQuotes removes quotes fetched before ts.
func (s *QuoteService) DeleteOldQuotes(ctx context.Context, ts time.Time) (int, error) {
	n, err := s.repo.DeleteOlderThan(ctx, ts.UnixMilli())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "old quotes removed", "count", n)
	}
	return n, nil
}
