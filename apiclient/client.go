// Package apiclient talks to the dashboard REST API with the fiber HTTP agent.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"admin-dashboard/menutree"
	"admin-dashboard/models"
	"admin-dashboard/services"

	"github.com/gofiber/fiber/v2"
)

// APIError is a response the server answered with success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type Client struct {
	// BaseURL includes the route prefix, e.g. http://localhost:9000/api.
	BaseURL string
	Token   string
	Timeout time.Duration
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: 30 * time.Second}
}

type result struct {
	code int
	body []byte
	errs []error
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var agent *fiber.Agent
	switch method {
	case fiber.MethodGet:
		agent = fiber.Get(target)
	case fiber.MethodPost:
		agent = fiber.Post(target)
	case fiber.MethodPut:
		agent = fiber.Put(target)
	case fiber.MethodDelete:
		agent = fiber.Delete(target)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if c.Token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.Token)
	}
	if body != nil {
		agent.JSON(body)
	}
	if c.Timeout > 0 {
		agent.Timeout(c.Timeout)
	}
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	done := make(chan result, 1)
	go func() {
		code, raw, errs := agent.Bytes()
		done <- result{code: code, body: raw, errs: errs}
	}()

	var res result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if len(res.errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, res.errs[0])
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return &APIError{Status: res.code, Message: strings.TrimSpace(string(res.body))}
	}
	if !env.Success || res.code >= fiber.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{Status: res.code, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Login stores the issued token on the client for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	var out struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return out.User, nil
}

// FetchMenu returns the dashboard's items flat, in tree pre-order.
func (c *Client) FetchMenu(ctx context.Context, dashboardID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := c.do(ctx, fiber.MethodGet, "/menu", url.Values{"dashboardId": {dashboardID}}, nil, &items)
	return items, err
}

func (c *Client) FetchTree(ctx context.Context, dashboardID string) ([]*menutree.Node, error) {
	var forest []*menutree.Node
	err := c.do(ctx, fiber.MethodGet, "/menu/tree", url.Values{"dashboardId": {dashboardID}}, nil, &forest)
	return forest, err
}

func (c *Client) FetchNav(ctx context.Context, dashboardID string) (menutree.NavMainData, error) {
	var nav menutree.NavMainData
	err := c.do(ctx, fiber.MethodGet, "/menu/nav", url.Values{"dashboardId": {dashboardID}}, nil, &nav)
	return nav, err
}

func (c *Client) CreateItem(ctx context.Context, in services.CreateMenuItemInput) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.do(ctx, fiber.MethodPost, "/menu", nil, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem sends only the fields set in the input; parentId is sent (as
// null for a move to the root level) only when ParentID.Set is true.
func (c *Client) UpdateItem(ctx context.Context, in services.UpdateMenuItemInput) (*models.MenuItem, error) {
	body := map[string]interface{}{"id": in.ID}
	if in.Title != nil {
		body["title"] = *in.Title
	}
	if in.Icon != nil {
		body["icon"] = *in.Icon
	}
	if in.Href != nil {
		body["href"] = *in.Href
	}
	if in.URL != nil {
		body["url"] = in.URL
	}
	if in.ParentID.Set {
		body["parentId"] = in.ParentID.Ptr()
	}
	if in.OrderIndex != nil {
		body["orderIndex"] = *in.OrderIndex
	}
	if in.IsActive != nil {
		body["isActive"] = *in.IsActive
	}

	var item models.MenuItem
	if err := c.do(ctx, fiber.MethodPut, "/menu", nil, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string, cascade bool) (*services.DeleteMenuItemResult, error) {
	var result services.DeleteMenuItemResult
	query := url.Values{"id": {id}, "cascade": {strconv.FormatBool(cascade)}}
	if err := c.do(ctx, fiber.MethodDelete, "/menu", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SeedDefaults makes sure the dashboard has its Overview item.
func (c *Client) SeedDefaults(ctx context.Context, dashboardID string) (*models.MenuItem, error) {
	var item models.MenuItem
	body := map[string]string{"dashboardId": dashboardID}
	if err := c.do(ctx, fiber.MethodPost, "/menu/defaults", nil, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) ListDashboards(ctx context.Context) ([]models.Dashboard, error) {
	var dashboards []models.Dashboard
	err := c.do(ctx, fiber.MethodGet, "/dashboards", nil, nil, &dashboards)
	return dashboards, err
}
