package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goliatone/go-pos-console/cart"
)

// ExportFormat is a transaction report format.
type ExportFormat string

const (
	CSV ExportFormat = "csv"
	PDF ExportFormat = "pdf"
)

func (f ExportFormat) contentType() string {
	if f == PDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Export is a downloaded report.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Transactions is the /transactions resource. Transactions are never updated
// or deleted from the console.
type Transactions struct {
	*Resource[Transaction]
}

// NewTransactions returns the transactions resource.
func NewTransactions(c *Client) Transactions {
	return Transactions{Resource: NewResource[Transaction](c, "/transactions")}
}

// SubmitOrder creates a transaction from a cart order.
func (t Transactions) SubmitOrder(ctx context.Context, order cart.Order) error {
	_, err := t.Create(ctx, order)
	return err
}

// Export downloads a report for the filter in query. The filename follows
// wmb_transaction_from_<start>_to_<end>.<format>.
func (t Transactions) Export(ctx context.Context, format ExportFormat, query url.Values) (Export, error) {
	if format != CSV && format != PDF {
		return Export{}, fmt.Errorf("api: unsupported export format %q", format)
	}

	resp, err := t.client.send(ctx, request{
		method: http.MethodGet,
		path:   t.path + "/" + string(format),
		query:  query,
		accept: format.contentType(),
	})
	if err != nil {
		return Export{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Export{}, fmt.Errorf("read export: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = format.contentType()
	}

	return Export{
		Filename:    ExportFilename(query.Get("startTransDate"), query.Get("endTransDate"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ExportFilename returns the suggested download name of a report.
func ExportFilename(start, end string, format ExportFormat) string {
	return fmt.Sprintf("wmb_transaction_from_%s_to_%s.%s", start, end, format)
}

// Services groups the API resources used by the console.
type Services struct {
	Auth         *Auth
	Menus        Menus
	Tables       *Resource[Table]
	Users        *Resource[User]
	Transactions Transactions
}

// NewServices returns every resource bound to c.
func NewServices(c *Client) Services {
	return Services{
		Auth:         NewAuth(c),
		Menus:        NewMenus(c),
		Tables:       NewResource[Table](c, "/tables"),
		Users:        NewResource[User](c, "/users"),
		Transactions: NewTransactions(c),
	}
}
