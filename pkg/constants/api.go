package constants

// HTTP and API constants
const (
	ContentTypeJSON = "application/json"

	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-KEY"

	BearerPrefix = "Bearer "

	// Response keys
	ResponseError   = "error"
	ResponseSuccess = "success"
	FieldMessage    = "message"

	// Cookies
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
)

// Query parameters
const (
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSearch = "search"

	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200
)

// Context keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)
