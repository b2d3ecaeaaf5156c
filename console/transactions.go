package console

import (
	"context"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/form"
	"github.com/goliatone/go-pos-console/resourcecache"
)

// Exporter downloads transaction reports.
type Exporter interface {
	Export(ctx context.Context, format api.ExportFormat, query url.Values) (api.Export, error)
}

// ExportTransactions downloads the report for search. Missing dates default
// to the first day of now's year and today.
func ExportTransactions(ctx context.Context, ex Exporter, search form.TransactionSearch, format api.ExportFormat, now time.Time) (api.Export, error) {
	search = search.WithDefaults(now)
	if err := form.Check(search); err != nil {
		return api.Export{}, err
	}

	f := filter.New()
	f.Text = search.UserName
	f.Dates = map[string]filter.DateRange{"transDate": search.DateRange()}

	query := filter.Transactions.Encode(f)
	query.Del(filter.PageParam)
	query.Del(filter.SizeParam)
	return ex.Export(ctx, format, query)
}

// TransactionSummary is the data of the transaction detail view.
type TransactionSummary struct {
	Transaction api.Transaction
	Table       string
	Status      string
	Total       decimal.Decimal
}

// TransactionDetail loads one transaction through the detail cache.
func TransactionDetail(ctx context.Context, txs *resourcecache.CachedResource[api.Transaction], id string) (View, error) {
	tx, err := txs.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{
		Name: RouteTransactionDetail,
		Data: TransactionSummary{
			Transaction: tx,
			Table:       tx.TableName(),
			Status:      tx.Status(),
			Total:       tx.Total(),
		},
	}, nil
}
