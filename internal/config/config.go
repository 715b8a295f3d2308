package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Waifu-Birthday/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Waifu Birthday"
	AppID             = "com.github.tartampluch.go-waifu-birthday"
	KeyringService    = "com.github.tartampluch.go-waifu-birthday"
	KeyringUser       = "client-id"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	IdentityFileName  = "identity.json"
	LedgerDirName     = "dispatch"
	SettingsFileName  = "config"
	SettingsFileType  = "yaml"
	EnvPrefix         = "WAIFU"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Settings Keys
// -----------------------------------------------------------------------------

const (
	FlagVersion   = "version"
	FlagDebug     = "debug"
	FlagAPIURL    = "api-url"
	FlagOutput    = "output"
	FlagFormat    = "format"
	FlagImage     = "image"
	FlagAbout     = "about"
	FlagMonth     = "month"
	FlagDay       = "day"
	FlagDescDebug = "Enable debug logging"
	FlagDescAPI   = "Base URL of the collection backend"
	FlagDescOut   = "Output format: table, json or yaml"
	FlagDescFmt   = "Feed format: ics or vcf"
	FlagDescImage = "Image URL stored with the entry"
	FlagDescAbout = "Biography stored with the entry"
	FlagDescMonth = "Manual birth month (1-12), requires --day"
	FlagDescDay   = "Manual birth day (1-31), requires --month"
	FlagShortOut  = "o"
	FlagShortFmt  = "f"

	MsgVersionOutput = "%s version %s (%s/%s)\n"

	// Viper keys.
	KeyAPIURL          = "api_url"
	KeyDebounce        = "debounce"
	KeyAlertDuration   = "alert_duration"
	KeyRefreshInterval = "refresh_interval"
	KeyFeedPort        = "feed_port"
	KeyDebug           = "debug"

	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	FormatICS   = "ics"
	FormatVCF   = "vcf"
)

// -----------------------------------------------------------------------------
// CLI Commands
// -----------------------------------------------------------------------------

const (
	CmdRoot   = "waifu-birthday"
	CmdWhoami = "whoami"
	CmdSearch = "search <term>"
	CmdList   = "list"
	CmdAdd    = "add <name>"
	CmdDelete = "delete <entry-id>"
	CmdCheck  = "check"
	CmdExport = "export"

	ShortRoot   = "Track the birthdays of your favourite characters"
	LongRoot    = "Without a subcommand the desktop app starts in the system tray."
	ShortWhoami = "Print the client identity"
	ShortSearch = "Search characters by name"
	ShortList   = "List the collection with birthday status"
	ShortAdd    = "Add a character to the collection"
	ShortDelete = "Remove an entry from the collection"
	ShortCheck  = "Run one notification pass and print the alerts"
	ShortExport = "Write the collection as an iCalendar or vCard feed"

	HeaderID     = "ID"
	HeaderName   = "NAME"
	HeaderStatus = "STATUS"
	HeaderScore  = "SCORE"

	MsgNoEntries    = "No entries in the collection."
	MsgNoResults    = "No characters found."
	MsgDeleted      = "Deleted entry %d\n"
	MsgCheckSummary = "%d alert(s) sent, %d already sent today\n"
	MsgLedgerOff    = "Dispatch ledger unavailable, alerts may repeat"
	MsgCLIRun       = "Command started"
	MsgExported     = "Feed exported"
)

// -----------------------------------------------------------------------------
// Preferences (fyne)
// -----------------------------------------------------------------------------

const (
	PrefLanguage   = "language"
	PrefPermission = "notification_permission"
	PrefLastRun    = "last_run_version"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Identity
// -----------------------------------------------------------------------------

// IdentityPrefixes is the fixed set of tag prefixes a client identity is drawn from.
var IdentityPrefixes = []string{"GGO", "SAO", "ALO", "SLF", "UNIT"}

const (
	IdentityNumberMin = 1000
	IdentityNumberMax = 9999
	FormatIdentity    = "%s-%d"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultAPIURL          = "http://localhost:8000"
	DefaultDebounce        = 600 * time.Millisecond
	DefaultAlertDuration   = 4 * time.Second
	DefaultRefreshInterval = 60 * time.Minute
	DefaultFeedPort        = "18081"
	DefaultLanguage        = "en"

	// UnknownDays is the days_until sentinel for entries without a known date.
	UnknownDays = 999

	// NotificationTag is shared by every OS-level alert so stale alerts are replaced.
	NotificationTag      = "waifu-notification"
	NotificationRenotify = true

	MinMonth = 1
	MaxMonth = 12
	MinDay   = 1
	MaxDay   = 31
	LeapDay  = 29

	// DefaultLeapYear is used to validate month/day pairs independently of the current year.
	DefaultLeapYear = 2000
)

// -----------------------------------------------------------------------------
// Backend Contract
// -----------------------------------------------------------------------------

const (
	RouteSearch    = "/search/"
	RouteDashboard = "/dashboard"
	RouteAdd       = "/add"
	RouteDelete    = "/delete/"

	HeaderUserID      = "X-User-Id"
	HeaderUserAgent   = "User-Agent"
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	MimeJSON          = "application/json"

	StatusUnknownDate = "Unknown Date"
	StatusToday       = "🎉 Birthday Today!"
	FormatStatusDays  = "in %d days"
)

// -----------------------------------------------------------------------------
// Feed Server
// -----------------------------------------------------------------------------

const (
	RouteCalendar = "/birthdays.ics"
	RouteVCard    = "/collection.vcf"
	AddrSeparator = ":"

	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeVCard           = "text/vcard; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"
	AllowedMethods      = "GET, HEAD"
	RetryAfterSeconds   = "10"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	ICalVersion   = "2.0"
	ICalProdid    = "-//Waifu Birthday//Collection//EN"
	ICalCalName   = "Waifu Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "waifubirthday"
	ICalRRule     = "FREQ=YEARLY"
	ICalTrigger   = "-P1D"

	// Day 60 of the year is Feb 29 in leap years and Mar 1 otherwise.
	ICalRRuleLeapDay = "FREQ=YEARLY;BYYEARDAY=60"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRRule       = "RRULE"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardVersion = "4.0"
	FormatVBday  = "--%02d%02d"
	FormatUID    = "%d@%s"

	FallbackSummary = "Birthday: %s"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	MaxHTTPResponseSize = 8 * 1024 * 1024 // 8MB
	LedgerCacheSize     = 64 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
)

// -----------------------------------------------------------------------------
// UI Constants
// -----------------------------------------------------------------------------

const (
	IconFile = "Icon.png"

	// Window Dimensions
	MainWinWidth  = 760
	MainWinHeight = 580
	MenuWidth     = 220

	// Column Indices
	ColIDName   = 0
	ColIDStatus = 1
	ColIDAction = 2
	ColCount    = 3

	// Table Layout
	ColWidthName   = 300
	ColWidthStatus = 220
	ColWidthAction = 90

	ResultsHeight = 180

	TablePlaceholder = "Cell Content"
	SortIconAsc      = " ▲"
	SortIconDesc     = " ▼"
	FormatScore      = "%.0f"
	FormatFeedURL    = "http://%s:%s%s"

	LogMsgOpenWin  = "Opening main window"
	LogMsgSorted   = "Collection sorted"
	LogMsgLangSave = "Language preference saved"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle          = "win_title"
	TKeySearchPlaceholder = "search_placeholder"
	TKeySearchTitle       = "search_title"
	TKeyCollectionTitle   = "collection_title"
	TKeyWakingUp          = "waking_up"
	TKeyNoData            = "no_data"
	TKeyLoading           = "loading"
	TKeyBtnAdd            = "btn_add"
	TKeyBtnDelete         = "btn_delete"
	TKeyBtnConfirm        = "btn_confirm"
	TKeyBtnCancel         = "btn_cancel"
	TKeyBtnBack           = "btn_back"
	TKeyMenu              = "menu"
	TKeyMenuSearch        = "menu_search"
	TKeyMenuCollection    = "menu_collection"
	TKeyMenuSettings      = "menu_settings"
	TKeyMenuOpen          = "menu_open"
	TKeyMenuRefresh       = "menu_refresh"
	TKeyTrayStatus        = "tray_status"         // Requires Count > 0
	TKeyTrayStatusZero    = "tray_status_zero"    // Explicit key for 0
	TKeyColName           = "col_name"
	TKeyColStatus         = "col_status"
	TKeyColAction         = "col_action"
	TKeyEnableNotif       = "enable_notifications"
	TKeyNotifEnabled      = "notifications_enabled"
	TKeyPermGranted       = "perm_granted"
	TKeyPermDenied        = "perm_denied"
	TKeyPermDefault       = "perm_default"
	TKeyLblLanguage       = "lbl_language"
	TKeyHelpLanguage      = "help_language"
	TKeyLblIdentity       = "lbl_identity"
	TKeyHelpIdentity      = "help_identity"
	TKeyLblFeed           = "lbl_feed"
	TKeyHelpFeed          = "help_feed"
	TKeyLblNotif          = "lbl_notif"
	TKeyLblFooter         = "lbl_footer"          // Requires Version
	TKeyAddTitle          = "add_title"           // Requires Name
	TKeyLblMonth          = "lbl_month"
	TKeyLblDay            = "lbl_day"
	TKeyHelpManualDate    = "help_manual_date"
	TKeyHelpDetected      = "help_detected"       // Requires Month, Day
	TKeyScore             = "score"               // Requires Score
	TKeyEvtSummary        = "evt_summary"         // Requires Name
	TKeyNotifTodayTitle   = "notif_today_title"   // Requires Name
	TKeyNotifTodayBody    = "notif_today_body"
	TKeyNotifSoonTitle    = "notif_tomorrow_title"
	TKeyNotifSoonBody     = "notif_tomorrow_body" // Requires Name
	TKeyNotifOnlineTitle  = "notif_online_title"
	TKeyNotifOnlineBody   = "notif_online_body"
	TKeyPermissionPrompt  = "permission_prompt"
	TKeyErrPermission     = "err_permission_denied"
	TKeyErrUnsupported    = "err_unsupported"
	TKeyErrAdd            = "err_add"
	TKeyErrDelete         = "err_delete"
	TKeyErrDate           = "err_manual_date"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrNetwork          = "network error"
	ErrServer           = "server error"
	ErrValidation       = "validation error"
	ErrPermissionDenied = "notification permission denied"
	ErrUnsupportedEnv   = "notifications unsupported in this environment"
	ErrNameRequired     = "entry name is required"
	ErrMonthRange       = "month must be between 1 and 12"
	ErrDayRange         = "day must be between 1 and 31"
	ErrDateInvalid      = "month/day is not a calendar date"
	ErrDatePartial      = "month and day must be given together"
	ErrNotNumber        = "value must be a number"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrDecode           = "failed to decode response"
	ErrEncode           = "failed to encode request"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrVCardEncode      = "failed to encode vCard data"
	ErrIdentityStore    = "identity storage unavailable"
	ErrIdentityCorrupt  = "stored identity is malformed"
	ErrIdentityMissing  = "no identity stored"
	ErrLedgerWrite      = "failed to record dispatch"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrConfigDir        = "could not determine user config dir"
	ErrCreateDir        = "could not create app dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrSettingsRead     = "failed to read settings file"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrLocNotInit       = "localizer not initialized"
	ErrUnknownOutput    = "unknown output format"
	ErrEntryID          = "entry id must be a number"
	ErrUnknownFeed      = "unknown feed format"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages & Fallbacks
// -----------------------------------------------------------------------------

const (
	FallbackTodayTitle  = "🎉 It's %s's Birthday!"
	FallbackTodayBody   = "Don't forget to celebrate today!"
	FallbackSoonTitle   = "⏰ Heads up!"
	FallbackSoonBody    = "%s's birthday is tomorrow!"
	FallbackOnlineTitle = "System Online"
	FallbackOnlineBody  = "Notifications are now active!"
	FallbackNoData      = "NO DATA FOUND."
	FallbackTrayError   = "Waifu Birthday: Sync Error"
	FallbackTrayDefault = "Waifu Birthday (%d today)"
	FallbackTrayLabel   = "Waifu Birthday"
	TitleStartupError   = "Startup Error"
	MsgPortBusy         = "Port %s is busy or unavailable."
	FallbackWakingUp    = "WAKING UP SERVER..."

	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application stopped gracefully"
	MsgCtxCancel        = "Context cancelled, shutting down UI"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgIdentityCreated  = "Client identity created"
	MsgIdentityLoaded   = "Client identity loaded"
	MsgIdentityFallback = "Primary identity store unavailable, using fallback"
	MsgRequest          = "Backend request"
	MsgRequestFailed    = "Backend returned error status"
	MsgSearchScheduled  = "Search debounce scheduled"
	MsgSearchIssued     = "Search lookup issued"
	MsgSearchStale      = "Discarding stale search response"
	MsgSearchFailed     = "No results"
	MsgSearchCleared    = "Search cleared"
	MsgPassStarted      = "Notification pass started"
	MsgPassDone         = "Notification pass finished"
	MsgAlreadyNotified  = "Reminder already dispatched today"
	MsgOSSkipped        = "OS notification channel skipped"
	MsgOSFailed         = "OS notification failed"
	MsgLedgerFailed     = "Dispatch ledger unavailable"
	MsgRefreshFailed    = "Collection fetch failed"
	MsgRefreshDone      = "Collection fetched"
	MsgAddDone          = "Entry added"
	MsgAddFailed        = "Error adding entry"
	MsgDeleteFailed     = "Error deleting entry"
	MsgWorkerStart      = "Background worker started"
	MsgWorkerStop       = "Worker stopping due to context cancellation"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgCacheUpdated     = "Feed cache updated"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgPermission       = "Notification permission resolved"
	MsgFocusWindow      = "Focusing main window"
	MsgSyncReq          = "Sync requested"
	MsgPromptPermission = "Prompting for notification permission"
	MsgVCardRendered    = "vCard export rendered"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyMethod    = "method"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyInterval  = "interval"
	LogKeyIdentity  = "identity"
	LogKeyQuery     = "query"
	LogKeySeq       = "seq"
	LogKeyCount     = "count"
	LogKeyEntryID   = "entry_id"
	LogKeyName      = "name"
	LogKeyKind      = "kind"
	LogKeyPass      = "pass_id"
	LogKeyFired     = "fired"
	LogKeyDuration  = "duration_ms"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyPerm      = "permission"
	LogKeyStats     = "stats"
	LogKeyManual    = "manual"
	LogKeySortCol   = "sort_column"
	LogKeySortAsc   = "sort_asc"
	LogKeyCmd       = "command"
	LogKeyFormat    = "format"

	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI         = "ui"
	CompUISet      = "ui_settings"
	CompClient     = "client"
	CompIdentity   = "identity"
	CompSearch     = "search"
	CompNotify     = "notify"
	CompCollection = "collection"
	CompServer     = "server"
	CompWorker     = "worker"
	CompMain       = "main"
	CompCLI        = "cli"
	CompI18n       = "i18n"
)
