package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"coffeelink/models"
)

// Login exchanges credentials for a token and the user's role.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.Post(ctx, "/login", models.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates an account. A duplicate email is a conflict.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.Post(ctx, "/register", req, nil)
}

// ListProducts returns one page of the catalog. Backends without pagination
// answer with a bare array, which is returned as a single page. Identical
// queries issued at the same time with the same token share one backend call.
func (c *Client) ListProducts(ctx context.Context, q models.ProductQuery) (models.ProductPage, error) {
	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	// The token is read once so the coalesced request and its key agree.
	fixed := c.WithToken(TokenFunc(func() string { return token }))
	ch := c.group.DoChan(token+"|productos?"+q.Key(), func() (any, error) {
		var raw json.RawMessage
		if err := fixed.Get(context.WithoutCancel(ctx), "/productos", q.Values(), &raw); err != nil {
			return models.ProductPage{}, err
		}
		return decodeProductPage(raw)
	})

	select {
	case <-ctx.Done():
		return models.ProductPage{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.ProductPage{}, res.Err
		}
		page := res.Val.(models.ProductPage)
		page.Content = append([]models.Product(nil), page.Content...)
		return page, nil
	}
}

func decodeProductPage(raw json.RawMessage) (models.ProductPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.ProductPage{TotalPages: 1}, nil
	}
	if trimmed[0] == '[' {
		var products []models.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return models.ProductPage{}, fmt.Errorf("decode product list: %w", err)
		}
		return models.ProductPage{Content: products, TotalPages: 1}, nil
	}
	var page models.ProductPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return models.ProductPage{}, fmt.Errorf("decode product page: %w", err)
	}
	return page, nil
}

// CreateProduct adds a product. Admin only.
func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	var out models.Product
	err := c.Post(ctx, "/productos", in, &out)
	return out, err
}

// UpdateProduct replaces the product with the given id. Admin only.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (models.Product, error) {
	var out models.Product
	err := c.Put(ctx, "/productos/"+strconv.FormatInt(id, 10), in, &out)
	return out, err
}

// DeleteProduct removes the product with the given id. Admin only.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.Delete(ctx, "/productos/"+strconv.FormatInt(id, 10), nil)
}

// Purchase orders quantity units of a product. The backend answers 409 when
// the stock is insufficient.
func (c *Client) Purchase(ctx context.Context, productID int64, quantity int) (models.PurchaseResponse, error) {
	var out models.PurchaseResponse
	err := c.Post(ctx, "/comprar/"+strconv.FormatInt(productID, 10), models.PurchaseRequest{Cantidad: quantity}, &out)
	return out, err
}
