package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/shopspring/decimal"
)

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// MenuInput is the menu part of a create or update request. An empty ID creates.
type MenuInput struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Menus is the /menus resource. Writes are multipart: a "menu" JSON field and an
// optional "image" file.
type Menus struct {
	*Resource[Menu]
}

// NewMenus returns the menus resource.
func NewMenus(c *Client) Menus {
	return Menus{Resource: NewResource[Menu](c, "/menus")}
}

// Save creates in when in.ID is empty and updates it otherwise.
func (m Menus) Save(ctx context.Context, in MenuInput, image *Upload) (Menu, error) {
	var out Menu

	body, contentType, err := menuForm(in, image)
	if err != nil {
		return out, err
	}

	method := http.MethodPost
	if in.ID != "" {
		method = http.MethodPut
	}

	req := request{
		method:      method,
		path:        m.path,
		body:        body,
		contentType: contentType,
		accept:      "application/json",
	}
	_, err = m.client.call(ctx, req, &out)
	return out, err
}

func menuForm(in MenuInput, image *Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	menu, err := json.Marshal(in)
	if err != nil {
		return nil, "", fmt.Errorf("marshal menu: %w", err)
	}
	if err := w.WriteField("menu", string(menu)); err != nil {
		return nil, "", fmt.Errorf("write menu field: %w", err)
	}

	if image != nil && image.Data != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
		ct := image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header.Set("Content-Type", ct)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, image.Data); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
