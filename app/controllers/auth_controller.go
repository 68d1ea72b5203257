package controllers

import (
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.service.Register(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	setSessionCookie(c, sess.Token)
	c.Created(sess)
}

func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.service.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	setSessionCookie(c, sess.Token)
	c.Success(sess)
}

func (ac *AuthController) Logout(c *ctx.Context) {
	c.SetSessionCookie(auth.CookieName, "", -1, secureCookies())
	c.Success(map[string]bool{"success": true})
}

func (ac *AuthController) Me(c *ctx.Context) {
	user, err := ac.service.Me(c.Context(), c.Principal())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func setSessionCookie(c *ctx.Context, token string) {
	c.SetSessionCookie(auth.CookieName, token, int(config.JWTTTL().Seconds()), secureCookies())
}

func secureCookies() bool {
	return config.AppEnv() == "production"
}
