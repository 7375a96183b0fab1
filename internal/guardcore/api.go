package guardcore

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// API groups every backend operation by resource. All groups share one Client.
type API struct {
	client *Client

	Guards        *GuardsAPI
	Stats         *StatsAPI
	Nodes         *NodesAPI
	Services      *ServicesAPI
	Admins        *AdminsAPI
	Subscriptions *SubscriptionsAPI
}

// NewAPI builds the façade over client.
func NewAPI(client *Client) *API {
	return &API{
		client:        client,
		Guards:        &GuardsAPI{client: client},
		Stats:         &StatsAPI{client: client},
		Nodes:         &NodesAPI{client: client},
		Services:      &ServicesAPI{client: client},
		Admins:        &AdminsAPI{client: client},
		Subscriptions: &SubscriptionsAPI{client: client},
	}
}

// Client returns the underlying HTTP client.
func (a *API) Client() *Client {
	return a.client
}

// CheckHealth calls the backend root.
func (a *API) CheckHealth(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := a.client.Get(ctx, "/", nil, &out)
	return out, err
}

// Result is the loose acknowledgement returned by delete and bulk endpoints.
type Result map[string]any

type usernamesBody struct {
	Usernames []string `json:"usernames"`
}

type codeBody struct {
	Code *string `json:"code,omitempty"`
}

func pathID(v int64) string {
	return strconv.FormatInt(v, 10)
}

func seg(v string) string {
	return url.PathEscape(v)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// GuardsAPI exposes the public subscription endpoints keyed by access secret.
type GuardsAPI struct{ client *Client }

// GetSubscription retrieves the raw subscription payload for secret.
func (g *GuardsAPI) GetSubscription(ctx context.Context, secret string) (map[string]any, error) {
	var out map[string]any
	err := g.client.Get(ctx, "/guards/"+seg(secret), nil, &out)
	return out, err
}

// GetSubscriptionInfo retrieves the subscription owning secret.
func (g *GuardsAPI) GetSubscriptionInfo(ctx context.Context, secret string) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	if err := g.client.Get(ctx, "/guards/"+seg(secret)+"/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscriptionUsages retrieves usage logs for secret.
func (g *GuardsAPI) GetSubscriptionUsages(ctx context.Context, secret string) (*SubscriptionUsageLogsResponse, error) {
	var out SubscriptionUsageLogsResponse
	if err := g.client.Get(ctx, "/guards/"+seg(secret)+"/usages", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StatsAPI reads dashboard statistics.
type StatsAPI struct{ client *Client }

// GetStats retrieves the dashboard totals and usage rankings.
func (s *StatsAPI) GetStats(ctx context.Context) (*StatsResponse, error) {
	var out StatsResponse
	if err := s.client.Get(ctx, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMostUsageSubscriptions retrieves the heaviest subscriptions within r.
func (s *StatsAPI) GetMostUsageSubscriptions(ctx context.Context, r DateRange) (*MostUsageSubscription, error) {
	var out MostUsageSubscription
	if err := s.client.Get(ctx, "/api/stats/subscriptions/most_usage", r.params(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUsageStats retrieves usage totals within r.
func (s *StatsAPI) GetUsageStats(ctx context.Context, r DateRange) (UsageStatsResponse, error) {
	var out UsageStatsResponse
	err := s.client.Get(ctx, "/api/stats/usage", r.params(), &out)
	return out, err
}

// GetAgentStats retrieves client agent counts.
func (s *StatsAPI) GetAgentStats(ctx context.Context) (*AgentStatsResponse, error) {
	var out AgentStatsResponse
	if err := s.client.Get(ctx, "/api/stats/agents", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLastReachedSubscriptions retrieves subscriptions that recently hit a limit.
func (s *StatsAPI) GetLastReachedSubscriptions(ctx context.Context, q *LastReachedQuery) ([]LastReachedSubscriptionDetail, error) {
	var out []LastReachedSubscriptionDetail
	err := s.client.Get(ctx, "/api/stats/subscriptions/reacheds", q.params(), &out)
	return out, err
}

// NodesAPI manages nodes.
type NodesAPI struct{ client *Client }

// GetAll retrieves every node.
func (n *NodesAPI) GetAll(ctx context.Context) ([]NodeResponse, error) {
	var out []NodeResponse
	err := n.client.Get(ctx, "/api/nodes", nil, &out)
	return out, err
}

// GetByID retrieves one node.
func (n *NodesAPI) GetByID(ctx context.Context, nodeID int64) (*NodeResponse, error) {
	return n.one(ctx, http.MethodGet, "/api/nodes/"+pathID(nodeID), nil)
}

// Create adds a node.
func (n *NodesAPI) Create(ctx context.Context, data NodeCreate) (*NodeResponse, error) {
	return n.one(ctx, http.MethodPost, "/api/nodes", data)
}

// Update changes a node.
func (n *NodesAPI) Update(ctx context.Context, nodeID int64, data NodeUpdate) (*NodeResponse, error) {
	return n.one(ctx, http.MethodPut, "/api/nodes/"+pathID(nodeID), data)
}

// Delete removes a node.
func (n *NodesAPI) Delete(ctx context.Context, nodeID int64) (Result, error) {
	var out Result
	err := n.client.Delete(ctx, "/api/nodes/"+pathID(nodeID), nil, nil, &out)
	return out, err
}

// Enable turns a node on.
func (n *NodesAPI) Enable(ctx context.Context, nodeID int64) (*NodeResponse, error) {
	return n.one(ctx, http.MethodPost, "/api/nodes/"+pathID(nodeID)+"/enable", nil)
}

// Disable turns a node off.
func (n *NodesAPI) Disable(ctx context.Context, nodeID int64) (*NodeResponse, error) {
	return n.one(ctx, http.MethodPost, "/api/nodes/"+pathID(nodeID)+"/disable", nil)
}

// GetStats retrieves node counts.
func (n *NodesAPI) GetStats(ctx context.Context) (*NodeStatsResponse, error) {
	var out NodeStatsResponse
	if err := n.client.Get(ctx, "/api/nodes/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *NodesAPI) one(ctx context.Context, method, endpoint string, body any) (*NodeResponse, error) {
	var out NodeResponse
	if err := n.client.doJSON(ctx, method, endpoint, body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServicesAPI manages services, the node groups assigned to subscriptions.
type ServicesAPI struct{ client *Client }

// GetAll retrieves every service.
func (s *ServicesAPI) GetAll(ctx context.Context) ([]ServiceResponse, error) {
	var out []ServiceResponse
	err := s.client.Get(ctx, "/api/services", nil, &out)
	return out, err
}

// GetByID retrieves one service.
func (s *ServicesAPI) GetByID(ctx context.Context, serviceID int64) (*ServiceResponse, error) {
	return s.one(ctx, http.MethodGet, "/api/services/"+pathID(serviceID), nil)
}

// Create adds a service.
func (s *ServicesAPI) Create(ctx context.Context, data ServiceCreate) (*ServiceResponse, error) {
	return s.one(ctx, http.MethodPost, "/api/services", data)
}

// Update changes a service.
func (s *ServicesAPI) Update(ctx context.Context, serviceID int64, data ServiceUpdate) (*ServiceResponse, error) {
	return s.one(ctx, http.MethodPut, "/api/services/"+pathID(serviceID), data)
}

// Delete removes a service.
func (s *ServicesAPI) Delete(ctx context.Context, serviceID int64) (Result, error) {
	var out Result
	err := s.client.Delete(ctx, "/api/services/"+pathID(serviceID), nil, nil, &out)
	return out, err
}

func (s *ServicesAPI) one(ctx context.Context, method, endpoint string, body any) (*ServiceResponse, error) {
	var out ServiceResponse
	if err := s.client.doJSON(ctx, method, endpoint, body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminsAPI manages admins and the signed-in admin's own account.
type AdminsAPI struct{ client *Client }

// Login exchanges credentials for a token. A non-empty totpCode is sent as
// the totp_code query parameter.
func (a *AdminsAPI) Login(ctx context.Context, creds LoginCredentials, totpCode string) (*AdminToken, error) {
	form := Params{
		"username":   creds.Username,
		"password":   creds.Password,
		"grant_type": "password",
	}
	var out AdminToken
	if err := a.client.PostForm(ctx, "/api/admins/token", form, Params{"totp_code": optional(totpCode)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAll retrieves every admin.
func (a *AdminsAPI) GetAll(ctx context.Context) ([]AdminResponse, error) {
	var out []AdminResponse
	err := a.client.Get(ctx, "/api/admins", nil, &out)
	return out, err
}

// GetByUsername retrieves one admin.
func (a *AdminsAPI) GetByUsername(ctx context.Context, username string) (*AdminResponse, error) {
	return a.one(ctx, http.MethodGet, "/api/admins/"+seg(username), nil)
}

// GetCurrent retrieves the signed-in admin.
func (a *AdminsAPI) GetCurrent(ctx context.Context) (*AdminResponse, error) {
	return a.one(ctx, http.MethodGet, "/api/admins/current", nil)
}

// Create adds an admin.
func (a *AdminsAPI) Create(ctx context.Context, data AdminCreate) (*AdminResponse, error) {
	return a.one(ctx, http.MethodPost, "/api/admins", data)
}

// Update changes another admin.
func (a *AdminsAPI) Update(ctx context.Context, username string, data AdminUpdate) (*AdminResponse, error) {
	return a.one(ctx, http.MethodPut, "/api/admins/"+seg(username), data)
}

// UpdateCurrent updates the signed-in admin. code is the TOTP code when
// two-factor is enabled.
func (a *AdminsAPI) UpdateCurrent(ctx context.Context, data AdminCurrentUpdate, code string) (*AdminResponse, error) {
	body := struct {
		Data AdminCurrentUpdate `json:"data"`
		Code *string            `json:"code,omitempty"`
	}{Data: data, Code: optional(code)}
	return a.one(ctx, http.MethodPut, "/api/admins/current", body)
}

// Delete removes an admin.
func (a *AdminsAPI) Delete(ctx context.Context, username string) (Result, error) {
	var out Result
	err := a.client.Delete(ctx, "/api/admins/"+seg(username), nil, nil, &out)
	return out, err
}

// Enable reactivates an admin.
func (a *AdminsAPI) Enable(ctx context.Context, username string) (*AdminResponse, error) {
	return a.one(ctx, http.MethodPost, "/api/admins/"+seg(username)+"/enable", nil)
}

// Disable deactivates an admin.
func (a *AdminsAPI) Disable(ctx context.Context, username string) (*AdminResponse, error) {
	return a.one(ctx, http.MethodPost, "/api/admins/"+seg(username)+"/disable", nil)
}

// RevokeAPIKey issues a new API key for an admin.
func (a *AdminsAPI) RevokeAPIKey(ctx context.Context, username string) (*AdminResponse, error) {
	return a.one(ctx, http.MethodPost, "/api/admins/"+seg(username)+"/revoke", nil)
}

// RevokeTotp resets the signed-in admin's TOTP secret and returns the new provisioning data.
func (a *AdminsAPI) RevokeTotp(ctx context.Context, code string) (*TotpProvisioningResponse, error) {
	var out TotpProvisioningResponse
	if err := a.client.Post(ctx, "/api/admins/current/totp/revoke", codeBody{Code: optional(code)}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTotp confirms a TOTP code for the signed-in admin.
func (a *AdminsAPI) VerifyTotp(ctx context.Context, code string) error {
	return a.client.Post(ctx, "/api/admins/current/totp/verify", codeBody{Code: &code}, nil, nil)
}

// RevokeCurrentAPIKey issues a new API key for the signed-in admin.
func (a *AdminsAPI) RevokeCurrentAPIKey(ctx context.Context) (*AdminResponse, error) {
	return a.one(ctx, http.MethodPost, "/api/admins/current/revoke", nil)
}

// GetUsages retrieves usage logs for an admin.
func (a *AdminsAPI) GetUsages(ctx context.Context, username string) (*AdminUsageLogsResponse, error) {
	return a.usages(ctx, "/api/admins/"+seg(username)+"/usages")
}

// GetCurrentUsages retrieves usage logs for the signed-in admin.
func (a *AdminsAPI) GetCurrentUsages(ctx context.Context) (*AdminUsageLogsResponse, error) {
	return a.usages(ctx, "/api/admins/current/usages")
}

// GetBackup downloads the signed-in admin's backup archive.
func (a *AdminsAPI) GetBackup(ctx context.Context) ([]byte, error) {
	return a.client.Download(ctx, "/api/admins/current/backup", nil)
}

// GetSubscriptions retrieves the subscriptions owned by an admin.
func (a *AdminsAPI) GetSubscriptions(ctx context.Context, username string) ([]SubscriptionResponse, error) {
	var out []SubscriptionResponse
	err := a.client.Get(ctx, "/api/admins/"+seg(username)+"/subscriptions", nil, &out)
	return out, err
}

// DeleteSubscriptions removes every subscription owned by an admin.
func (a *AdminsAPI) DeleteSubscriptions(ctx context.Context, username string) (Result, error) {
	var out Result
	err := a.client.Delete(ctx, "/api/admins/"+seg(username)+"/subscriptions", nil, nil, &out)
	return out, err
}

// ActivateSubscriptions enables every subscription owned by an admin.
func (a *AdminsAPI) ActivateSubscriptions(ctx context.Context, username string) (Result, error) {
	var out Result
	err := a.client.Post(ctx, "/api/admins/"+seg(username)+"/subscriptions/activate", nil, nil, &out)
	return out, err
}

// DeactivateSubscriptions disables every subscription owned by an admin.
func (a *AdminsAPI) DeactivateSubscriptions(ctx context.Context, username string) (Result, error) {
	var out Result
	err := a.client.Post(ctx, "/api/admins/"+seg(username)+"/subscriptions/deactivate", nil, nil, &out)
	return out, err
}

func (a *AdminsAPI) one(ctx context.Context, method, endpoint string, body any) (*AdminResponse, error) {
	var out AdminResponse
	if err := a.client.doJSON(ctx, method, endpoint, body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminsAPI) usages(ctx context.Context, endpoint string) (*AdminUsageLogsResponse, error) {
	var out AdminUsageLogsResponse
	if err := a.client.Get(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubscriptionsAPI manages subscriptions. Batch methods take usernames.
type SubscriptionsAPI struct{ client *Client }

// GetAll retrieves subscriptions matching filters. A nil filters lists all.
func (s *SubscriptionsAPI) GetAll(ctx context.Context, filters *SubscriptionFilters) ([]SubscriptionResponse, error) {
	var out []SubscriptionResponse
	err := s.client.Get(ctx, "/api/subscriptions", filters.params(), &out)
	return out, err
}

// GetCount counts subscriptions matching filters.
func (s *SubscriptionsAPI) GetCount(ctx context.Context, filters *SubscriptionCountFilters) (int64, error) {
	var out int64
	err := s.client.Get(ctx, "/api/subscriptions/count", filters.params(), &out)
	return out, err
}

// GetByUsername retrieves one subscription.
func (s *SubscriptionsAPI) GetByUsername(ctx context.Context, username string) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	if err := s.client.Get(ctx, "/api/subscriptions/"+seg(username), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates subscriptions in one batch.
func (s *SubscriptionsAPI) Create(ctx context.Context, data []SubscriptionCreate) ([]SubscriptionResponse, error) {
	var out []SubscriptionResponse
	err := s.client.Post(ctx, "/api/subscriptions", data, nil, &out)
	return out, err
}

// Update changes one subscription.
func (s *SubscriptionsAPI) Update(ctx context.Context, username string, data SubscriptionUpdate) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	if err := s.client.Put(ctx, "/api/subscriptions/"+seg(username), data, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes subscriptions.
func (s *SubscriptionsAPI) Delete(ctx context.Context, usernames []string) (Result, error) {
	var out Result
	err := s.client.Delete(ctx, "/api/subscriptions", usernamesBody{Usernames: usernames}, nil, &out)
	return out, err
}

// Enable reactivates subscriptions.
func (s *SubscriptionsAPI) Enable(ctx context.Context, usernames []string) ([]SubscriptionResponse, error) {
	return s.batch(ctx, "/api/subscriptions/enable", usernames)
}

// Disable deactivates subscriptions.
func (s *SubscriptionsAPI) Disable(ctx context.Context, usernames []string) ([]SubscriptionResponse, error) {
	return s.batch(ctx, "/api/subscriptions/disable", usernames)
}

// Revoke rotates the access keys of subscriptions.
func (s *SubscriptionsAPI) Revoke(ctx context.Context, usernames []string) ([]SubscriptionResponse, error) {
	return s.batch(ctx, "/api/subscriptions/revoke", usernames)
}

// Reset zeroes the usage of subscriptions.
func (s *SubscriptionsAPI) Reset(ctx context.Context, usernames []string) ([]SubscriptionResponse, error) {
	return s.batch(ctx, "/api/subscriptions/reset", usernames)
}

// GetUsages retrieves usage logs for one subscription.
func (s *SubscriptionsAPI) GetUsages(ctx context.Context, username string) (*SubscriptionUsageLogsResponse, error) {
	var out SubscriptionUsageLogsResponse
	if err := s.client.Get(ctx, "/api/subscriptions/"+seg(username)+"/usages", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats retrieves subscription totals.
func (s *SubscriptionsAPI) GetStats(ctx context.Context) (*SubscriptionStatsResponse, error) {
	var out SubscriptionStatsResponse
	if err := s.client.Get(ctx, "/api/subscriptions/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscriptionStatusStats retrieves subscription counts by status.
func (s *SubscriptionsAPI) GetSubscriptionStatusStats(ctx context.Context) (*SubscriptionStatusStatsResponse, error) {
	var out SubscriptionStatusStatsResponse
	if err := s.client.Get(ctx, "/api/stats/subscriptions/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkAddService attaches a service to every subscription.
func (s *SubscriptionsAPI) BulkAddService(ctx context.Context, serviceID int64) (Result, error) {
	var out Result
	err := s.client.Post(ctx, "/api/subscriptions/services/"+pathID(serviceID), nil, nil, &out)
	return out, err
}

// BulkRemoveService detaches a service from every subscription.
func (s *SubscriptionsAPI) BulkRemoveService(ctx context.Context, serviceID int64) (Result, error) {
	var out Result
	err := s.client.Delete(ctx, "/api/subscriptions/services/"+pathID(serviceID), nil, nil, &out)
	return out, err
}

func (s *SubscriptionsAPI) batch(ctx context.Context, endpoint string, usernames []string) ([]SubscriptionResponse, error) {
	var out []SubscriptionResponse
	err := s.client.Post(ctx, endpoint, usernamesBody{Usernames: usernames}, nil, &out)
	return out, err
}
