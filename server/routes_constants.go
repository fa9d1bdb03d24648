package server

const (
	RouteAuthRegister = "/api/v1/auth/register"
	RouteAuthLogin    = "/api/v1/auth/login"
	RouteAuthRefresh  = "/api/v1/auth/refresh"
	RouteAuthLogout   = "/api/v1/auth/logout"
	RouteAuthMe       = "/api/v1/auth/me"
	RouteHealth       = "/health"
)
