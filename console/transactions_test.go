package console

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/form"
)

type recordingExporter struct {
	format api.ExportFormat
	query  url.Values
}

func (r *recordingExporter) Export(ctx context.Context, format api.ExportFormat, query url.Values) (api.Export, error) {
	r.format, r.query = format, query
	return api.Export{
		Filename: api.ExportFilename(query.Get("startTransDate"), query.Get("endTransDate"), format),
		Data:     []byte("id,total\n"),
	}, nil
}

func TestExportTransactionsDefaultsPeriod(t *testing.T) {
	ex := &recordingExporter{}
	now := time.Date(2024, time.March, 7, 15, 4, 0, 0, time.UTC)

	out, err := ExportTransactions(context.Background(), ex, form.TransactionSearch{UserName: "kasir"}, api.CSV, now)
	require.NoError(t, err)

	assert.Equal(t, api.CSV, ex.format)
	assert.Equal(t, url.Values{
		"userName":       {"kasir"},
		"startTransDate": {"2024-01-01"},
		"endTransDate":   {"2024-03-07"},
	}, ex.query)
	assert.Equal(t, "wmb_transaction_from_2024-01-01_to_2024-03-07.csv", out.Filename)
}

func TestExportTransactionsRejectsBadPeriod(t *testing.T) {
	ex := &recordingExporter{}
	search := form.TransactionSearch{StartTransDate: "2024-03-07", EndTransDate: "2024-03-01"}

	_, err := ExportTransactions(context.Background(), ex, search, api.PDF, time.Now())
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Nil(t, ex.query)
}
