package fakebackend

import "github.com/jrsteele09/go-blog-auth/gateway"

const apiPrefix = "/api"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteLogin+"{$}", ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteRegistration+"{$}", ChainMiddleware(s.RegistrationHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteLogout+"{$}", ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteLoginGoogle+"{$}", ChainMiddleware(s.SocialLoginHandler(ProviderGoogle), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteLoginGithub+"{$}", ChainMiddleware(s.SocialLoginHandler(ProviderGithub), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+apiPrefix+gateway.RouteUser+"{$}", ChainMiddleware(s.GetUserHandler(), s.APIMiddleware(s.AuthMiddleware)...))
	s.RegisterRouteFunc("PATCH "+apiPrefix+gateway.RouteUser+"{$}", ChainMiddleware(s.UpdateUserHandler(false), s.APIMiddleware(s.AuthMiddleware)...))
	s.RegisterRouteFunc("PUT "+apiPrefix+gateway.RouteUser+"{$}", ChainMiddleware(s.UpdateUserHandler(true), s.APIMiddleware(s.AuthMiddleware)...))
	s.RegisterRouteFunc("DELETE "+apiPrefix+gateway.RouteUser+"{$}", ChainMiddleware(s.DeleteUserHandler(), s.APIMiddleware(s.AuthMiddleware)...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.AuthMiddleware)...))

	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteResetPassword+"{$}", ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteConfirmResetPassword+"{$}", ChainMiddleware(s.ConfirmResetPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteConfirmEmail+"{$}", ChainMiddleware(s.ConfirmEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+apiPrefix+gateway.RouteResendEmail+"{$}", ChainMiddleware(s.ResendEmailHandler(), s.APIMiddleware()...))
}
