package guardcore

// Timestamps are kept as the strings the backend sends; see ParseTimestamp.

type AdminRole string

const (
	RoleOwner    AdminRole = "owner"
	RoleSeller   AdminRole = "seller"
	RoleReseller AdminRole = "reseller"
)

type PlaceholderCategory string

const (
	PlaceholderInfo     PlaceholderCategory = "info"
	PlaceholderLimited  PlaceholderCategory = "limited"
	PlaceholderExpired  PlaceholderCategory = "expired"
	PlaceholderDisabled PlaceholderCategory = "disabled"
)

type NodeCategory string

const (
	NodeMarzban    NodeCategory = "marzban"
	NodeMarzneshin NodeCategory = "marzneshin"
	NodeRustneshin NodeCategory = "rustneshin"
)

type AdminPlaceholder struct {
	Remark     string                `json:"remark"`
	UUID       string                `json:"uuid"`
	Address    string                `json:"address"`
	Port       int                   `json:"port"`
	Categories []PlaceholderCategory `json:"categories"`
}

// AdminSettings holds the optional fields shared by admin create and update
// payloads. Nil fields are omitted from the request.
type AdminSettings struct {
	Placeholders              []AdminPlaceholder `json:"placeholders,omitempty"`
	MaxLinks                  *int               `json:"max_links,omitempty"`
	ShuffleLinks              *bool              `json:"shuffle_links,omitempty"`
	AccessTitle               *string            `json:"access_title,omitempty"`
	AccessDescription         *string            `json:"access_description,omitempty"`
	TelegramID                *string            `json:"telegram_id,omitempty"`
	TelegramToken             *string            `json:"telegram_token,omitempty"`
	TelegramLoggerID          *string            `json:"telegram_logger_id,omitempty"`
	TelegramTopicID           *string            `json:"telegram_topic_id,omitempty"`
	TelegramStatus            *bool              `json:"telegram_status,omitempty"`
	TelegramSendSubscriptions *bool              `json:"telegram_send_subscriptions,omitempty"`
	DiscordWebhookStatus      *bool              `json:"discord_webhook_status,omitempty"`
	DiscordWebhookURL         *string            `json:"discord_webhook_url,omitempty"`
	DiscordSendSubscriptions  *bool              `json:"discord_send_subscriptions,omitempty"`
	ExpireWarningDays         *int               `json:"expire_warning_days,omitempty"`
	UsageWarningPercent       *int               `json:"usage_warning_percent,omitempty"`
	UsernameTag               *bool              `json:"username_tag,omitempty"`
	SupportURL                *string            `json:"support_url,omitempty"`
	UpdateInterval            *int               `json:"update_interval,omitempty"`
	Announce                  *string            `json:"announce,omitempty"`
	AnnounceURL               *string            `json:"announce_url,omitempty"`
}

type AdminCreate struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	Role         AdminRole `json:"role"`
	ServiceIDs   []int64   `json:"service_ids"`
	CreateAccess *bool     `json:"create_access,omitempty"`
	UpdateAccess *bool     `json:"update_access,omitempty"`
	RemoveAccess *bool     `json:"remove_access,omitempty"`
	CountLimit   *int64    `json:"count_limit,omitempty"`
	UsageLimit   *int64    `json:"usage_limit,omitempty"`
	AccessPrefix *string   `json:"access_prefix,omitempty"`
	AdminSettings
}

type AdminUpdate struct {
	Password     *string `json:"password,omitempty"`
	CreateAccess *bool   `json:"create_access,omitempty"`
	UpdateAccess *bool   `json:"update_access,omitempty"`
	RemoveAccess *bool   `json:"remove_access,omitempty"`
	CountLimit   *int64  `json:"count_limit,omitempty"`
	UsageLimit   *int64  `json:"usage_limit,omitempty"`
	ServiceIDs   []int64 `json:"service_ids,omitempty"`
	AccessPrefix *string `json:"access_prefix,omitempty"`
	AdminSettings
}

type AdminCurrentUpdate struct {
	Password *string `json:"password,omitempty"`
	AdminSettings
}

type AdminResponse struct {
	ID                        int64              `json:"id"`
	Enabled                   bool               `json:"enabled"`
	Username                  string             `json:"username"`
	Role                      AdminRole          `json:"role"`
	ServiceIDs                []int64            `json:"service_ids"`
	CreateAccess              *bool              `json:"create_access"`
	UpdateAccess              *bool              `json:"update_access"`
	RemoveAccess              *bool              `json:"remove_access"`
	CountLimit                *int64             `json:"count_limit"`
	CurrentCount              *int64             `json:"current_count"`
	LeftCount                 *int64             `json:"left_count"`
	ReachedCountLimit         *bool              `json:"reached_count_limit"`
	UsageLimit                *int64             `json:"usage_limit"`
	CurrentUsage              *int64             `json:"current_usage"`
	LeftUsage                 *int64             `json:"left_usage"`
	ReachedUsageLimit         *bool              `json:"reached_usage_limit"`
	Placeholders              []AdminPlaceholder `json:"placeholders"`
	MaxLinks                  *int               `json:"max_links"`
	ShuffleLinks              *bool              `json:"shuffle_links"`
	APIKey                    string             `json:"api_key"`
	AccessTitle               *string            `json:"access_title"`
	AccessPrefix              *string            `json:"access_prefix"`
	AccessDescription         *string            `json:"access_description"`
	TelegramID                *string            `json:"telegram_id"`
	TelegramToken             *string            `json:"telegram_token"`
	TelegramLoggerID          *string            `json:"telegram_logger_id"`
	TelegramTopicID           *string            `json:"telegram_topic_id"`
	TelegramStatus            *bool              `json:"telegram_status"`
	TelegramSendSubscriptions *bool              `json:"telegram_send_subscriptions"`
	TotpEnabled               bool               `json:"totp_enabled"`
	TotpStatus                *bool              `json:"totp_status,omitempty"`
	DiscordWebhookStatus      *bool              `json:"discord_webhook_status"`
	DiscordWebhookURL         *string            `json:"discord_webhook_url"`
	DiscordSendSubscriptions  *bool              `json:"discord_send_subscriptions"`
	ExpireWarningDays         *int               `json:"expire_warning_days"`
	UsageWarningPercent       *int               `json:"usage_warning_percent"`
	UsernameTag               *bool              `json:"username_tag"`
	SupportURL                *string            `json:"support_url"`
	UpdateInterval            *int               `json:"update_interval"`
	Announce                  *string            `json:"announce"`
	AnnounceURL               *string            `json:"announce_url"`
	LastLoginAt               *string            `json:"last_login_at"`
	LastOnlineAt              *string            `json:"last_online_at"`
	LastBackupAt              *string            `json:"last_backup_at"`
	CreatedAt                 string             `json:"created_at"`
	UpdatedAt                 string             `json:"updated_at"`
}

type AdminToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type TotpProvisioningResponse struct {
	Secret          *string `json:"secret,omitempty"`
	ProvisioningURI *string `json:"provisioning_uri,omitempty"`
	ExpiresAt       *string `json:"expires_at,omitempty"`
}

type UsageLog struct {
	Usage     int64  `json:"usage"`
	CreatedAt string `json:"created_at"`
}

type AdminUsageLogsResponse struct {
	Admin  AdminResponse `json:"admin"`
	Usages []UsageLog    `json:"usages"`
}

type LoginCredentials struct {
	Username string
	Password string
}

type NodeCreate struct {
	Remark       string       `json:"remark"`
	Category     NodeCategory `json:"category"`
	Username     string       `json:"username"`
	Password     string       `json:"password"`
	Host         string       `json:"host"`
	OffsetLink   *int         `json:"offset_link,omitempty"`
	BatchSize    *int         `json:"batch_size,omitempty"`
	Priority     *int         `json:"priority,omitempty"`
	UsageRate    *float64     `json:"usage_rate,omitempty"`
	ScriptURL    *string      `json:"script_url,omitempty"`
	ScriptSecret *string      `json:"script_secret,omitempty"`
}

type NodeResponse struct {
	ID           int64        `json:"id"`
	Enabled      bool         `json:"enabled"`
	Remark       string       `json:"remark"`
	Category     NodeCategory `json:"category"`
	Username     string       `json:"username"`
	Password     string       `json:"password"`
	Host         string       `json:"host"`
	CurrentUsage int64        `json:"current_usage"`
	LastUsedAt   *string      `json:"last_used_at"`
	UsageRate    *float64     `json:"usage_rate"`
	OffsetLink   int          `json:"offset_link"`
	BatchSize    int          `json:"batch_size"`
	Priority     int          `json:"priority"`
	ScriptURL    *string      `json:"script_url"`
	ScriptSecret *string      `json:"script_secret"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

type NodeStatsResponse struct {
	TotalNodes    int64 `json:"total_nodes"`
	ActiveNodes   int64 `json:"active_nodes"`
	InactiveNodes int64 `json:"inactive_nodes"`
}

type NodeUpdate struct {
	Remark       *string  `json:"remark,omitempty"`
	Username     *string  `json:"username,omitempty"`
	Password     *string  `json:"password,omitempty"`
	Host         *string  `json:"host,omitempty"`
	OffsetLink   *int     `json:"offset_link,omitempty"`
	BatchSize    *int     `json:"batch_size,omitempty"`
	Priority     *int     `json:"priority,omitempty"`
	UsageRate    *float64 `json:"usage_rate,omitempty"`
	ScriptURL    *string  `json:"script_url,omitempty"`
	ScriptSecret *string  `json:"script_secret,omitempty"`
}

type ServiceCreate struct {
	Remark  string  `json:"remark"`
	NodeIDs []int64 `json:"node_ids"`
}

type ServiceResponse struct {
	ID         int64   `json:"id"`
	Remark     string  `json:"remark"`
	NodeIDs    []int64 `json:"node_ids"`
	UsersCount *int64  `json:"users_count,omitempty"`
}

type ServiceUpdate struct {
	Remark  *string `json:"remark,omitempty"`
	NodeIDs []int64 `json:"node_ids,omitempty"`
}

type AutoRenewalCreate struct {
	LimitExpire int64 `json:"limit_expire"`
	LimitUsage  int64 `json:"limit_usage"`
	ResetUsage  *bool `json:"reset_usage,omitempty"`
}

type AutoRenewalResponse struct {
	ID          int64  `json:"id"`
	LimitExpire *int64 `json:"limit_expire"`
	LimitUsage  *int64 `json:"limit_usage"`
	ResetUsage  bool   `json:"reset_usage"`
}

type AutoRenewalUpdate struct {
	ID          int64  `json:"id"`
	LimitExpire *int64 `json:"limit_expire,omitempty"`
	LimitUsage  *int64 `json:"limit_usage,omitempty"`
	ResetUsage  *bool  `json:"reset_usage,omitempty"`
}

type SubscriptionCreate struct {
	Username          string              `json:"username"`
	LimitUsage        int64               `json:"limit_usage"`
	LimitExpire       int64               `json:"limit_expire"`
	ServiceIDs        []int64             `json:"service_ids"`
	AccessKey         *string             `json:"access_key,omitempty"`
	Note              *string             `json:"note,omitempty"`
	TelegramID        *string             `json:"telegram_id,omitempty"`
	DiscordWebhookURL *string             `json:"discord_webhook_url,omitempty"`
	AutoDeleteDays    *int                `json:"auto_delete_days,omitempty"`
	AutoRenewals      []AutoRenewalCreate `json:"auto_renewals,omitempty"`
}

type SubscriptionResponse struct {
	ID                int64                 `json:"id"`
	Username          string                `json:"username"`
	OwnerUsername     string                `json:"owner_username"`
	AccessKey         string                `json:"access_key"`
	Enabled           bool                  `json:"enabled"`
	Activated         bool                  `json:"activated"`
	Reached           bool                  `json:"reached"`
	Limited           bool                  `json:"limited"`
	Expired           bool                  `json:"expired"`
	IsActive          bool                  `json:"is_active"`
	IsOnline          bool                  `json:"is_online"`
	Link              string                `json:"link"`
	LimitUsage        int64                 `json:"limit_usage"`
	ResetUsage        int64                 `json:"reset_usage"`
	TotalUsage        int64                 `json:"total_usage"`
	CurrentUsage      int64                 `json:"current_usage"`
	LimitExpire       int64                 `json:"limit_expire"`
	AutoDeleteDays    int                   `json:"auto_delete_days"`
	ServiceIDs        []int64               `json:"service_ids"`
	Note              *string               `json:"note"`
	TelegramID        *string               `json:"telegram_id"`
	DiscordWebhookURL *string               `json:"discord_webhook_url"`
	OnlineAt          *string               `json:"online_at"`
	LastResetAt       *string               `json:"last_reset_at"`
	LastRevokeAt      *string               `json:"last_revoke_at"`
	LastRequestAt     *string               `json:"last_request_at"`
	LastClientAgent   *string               `json:"last_client_agent"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
	AutoRenewals      []AutoRenewalResponse `json:"auto_renewals"`
}

type SubscriptionStatsResponse struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Inactive     int64 `json:"inactive"`
	Disabled     int64 `json:"disabled"`
	Expired      int64 `json:"expired"`
	Limited      int64 `json:"limited"`
	HasRevoked   int64 `json:"has_revoked"`
	HasReseted   int64 `json:"has_reseted"`
	TotalRemoved int64 `json:"total_removed"`
	TotalUsage   int64 `json:"total_usage"`
}

type SubscriptionStatusStatsResponse struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	Disabled      int64 `json:"disabled"`
	Expired       int64 `json:"expired"`
	Limited       int64 `json:"limited"`
	Pending       int64 `json:"pending"`
	Available     int64 `json:"available"`
	Unavailable   int64 `json:"unavailable"`
	Online        int64 `json:"online"`
	Offline       int64 `json:"offline"`
	TotalUsage    int64 `json:"total_usage"`
	Last24hOnline int64 `json:"last_24h_online"`
	Last24hUsage  int64 `json:"last_24h_usage"`
}

type SubscriptionUpdate struct {
	Username          *string             `json:"username,omitempty"`
	LimitUsage        *int64              `json:"limit_usage,omitempty"`
	LimitExpire       *int64              `json:"limit_expire,omitempty"`
	ServiceIDs        []int64             `json:"service_ids,omitempty"`
	Note              *string             `json:"note,omitempty"`
	TelegramID        *string             `json:"telegram_id,omitempty"`
	DiscordWebhookURL *string             `json:"discord_webhook_url,omitempty"`
	AutoDeleteDays    *int                `json:"auto_delete_days,omitempty"`
	AutoRenewals      []AutoRenewalUpdate `json:"auto_renewals,omitempty"`
}

// SubscriptionCountFilters narrows subscription counts. Nil fields are not sent.
type SubscriptionCountFilters struct {
	Limited  *bool
	Expired  *bool
	IsActive *bool
	Enabled  *bool
	Online   *bool
}

func (f *SubscriptionCountFilters) params() Params {
	if f == nil {
		return nil
	}
	return Params{
		"limited":   f.Limited,
		"expired":   f.Expired,
		"is_active": f.IsActive,
		"enabled":   f.Enabled,
		"online":    f.Online,
	}
}

// SubscriptionFilters narrows and pages subscription listings.
type SubscriptionFilters struct {
	SubscriptionCountFilters
	OrderBy *string
	Page    *int
	Size    *int
}

func (f *SubscriptionFilters) params() Params {
	if f == nil {
		return nil
	}
	p := f.SubscriptionCountFilters.params()
	p["order_by"] = f.OrderBy
	p["page"] = f.Page
	p["size"] = f.Size
	return p
}

type SubscriptionUsageLogsResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Usages       []UsageLog           `json:"usages"`
}

type UsageSubscriptionDetail struct {
	Username string `json:"username"`
	Usage    int64  `json:"usage"`
	IsActive bool   `json:"is_active"`
}

type MostUsageSubscription struct {
	Subscriptions []UsageSubscriptionDetail `json:"subscriptions"`
	StartDate     string                    `json:"start_date"`
	EndDate       string                    `json:"end_date"`
}

type UsageDetailStats struct {
	Start  *string `json:"start,omitempty"`
	End    *string `json:"end,omitempty"`
	Remark *string `json:"remark,omitempty"`
	Step   *int64  `json:"step,omitempty"`
	Usage  int64   `json:"usage"`
}

type StatsResponse struct {
	TotalSubscriptions     int64              `json:"total_subscriptions"`
	ActiveSubscriptions    int64              `json:"active_subscriptions"`
	InactiveSubscriptions  int64              `json:"inactive_subscriptions"`
	OnlineSubscriptions    int64              `json:"online_subscriptions"`
	MostUsageSubscription  *string            `json:"most_usage_subscription,omitempty"`
	MostUsageSubscriptions []UsageDetailStats `json:"most_usage_subscriptions"`
	TotalAdmins            int64              `json:"total_admins"`
	ActiveAdmins           int64              `json:"active_admins"`
	InactiveAdmins         int64              `json:"inactive_admins"`
	MostUsageAdmins        []UsageDetailStats `json:"most_usage_admins"`
	TotalNodes             int64              `json:"total_nodes"`
	ActiveNodes            int64              `json:"active_nodes"`
	InactiveNodes          int64              `json:"inactive_nodes"`
	MostUsageNodes         []UsageDetailStats `json:"most_usage_nodes"`
	TotalLifetimeUsages    int64              `json:"total_lifetime_usages"`
	TotalDayUsages         int64              `json:"total_day_usages"`
	TotalWeekUsages        int64              `json:"total_week_usages"`
	Last24hUsages          []UsageDetailStats `json:"last_24h_usages"`
	Last7dUsages           []UsageDetailStats `json:"last_7d_usages"`
}

// UsageStatsResponse is the usage series returned by the usage stats endpoint.
type UsageStatsResponse []UsageDetailStats

// DateRange bounds stats queries. Dates are sent as given.
type DateRange struct {
	StartDate string
	EndDate   string
}

func (r DateRange) params() Params {
	return Params{"start_date": r.StartDate, "end_date": r.EndDate}
}

// LastReachedQuery pages the last reached subscriptions listing.
type LastReachedQuery struct {
	Page      *int
	Size      *int
	StartDate *string
	EndDate   *string
}

func (q *LastReachedQuery) params() Params {
	if q == nil {
		return nil
	}
	return Params{
		"page":       q.Page,
		"size":       q.Size,
		"start_date": q.StartDate,
		"end_date":   q.EndDate,
	}
}

type AgentStatsDetail struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type AgentStatsResponse struct {
	Agents []AgentStatsDetail `json:"agents"`
}

type LastReachedSubscriptionDetail struct {
	Username  string `json:"username"`
	ReachedAt string `json:"reached_at"`
	Limited   bool   `json:"limited"`
	Expired   bool   `json:"expired"`
}
