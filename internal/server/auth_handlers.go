package server

import (
	"errors"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/signup", authFormView{
		pageView: s.page(c, "Sign up"),
	})
}

// Signup registers an account. Like the rest of the site it does not log the
// new user in; they are sent to the index and sign in separately.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.SignupInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		FirstName:       c.FormValue("first_name"),
		LastName:        c.FormValue("last_name"),
		Password:        c.FormValue("password1"),
		PasswordConfirm: c.FormValue("password2"),
	}

	user, err := s.authService.Signup(c.UserContext(), in)
	if err != nil {
		errs, ok := formErrors(err)
		if !ok {
			return err
		}
		return s.render(c, fiber.StatusOK, "users/signup", authFormView{
			pageView: s.page(c, "Sign up"),
			Values: authValues{
				Username:  in.Username,
				Email:     in.Email,
				FirstName: in.FirstName,
				LastName:  in.LastName,
			},
			Errors: errs,
		})
	}

	middleware.Logger.InfoContext(c.UserContext(), "user signed up",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/login", authFormView{
		pageView: s.page(c, "Log in"),
		Next:     safeNext(c.Query("next")),
	})
}

// Login checks credentials, sets the session cookie and follows "next" when
// it points back into the site.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := safeNext(c.FormValue("next"))

	user, err := s.authService.Login(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			return err
		}
		errs := map[string]string{"__all__": service.ErrInvalidCredentials.Error()}
		return s.render(c, fiber.StatusOK, "users/login", authFormView{
			pageView: s.page(c, "Log in"),
			Values:   authValues{Username: username},
			Errors:   errs,
			Next:     next,
		})
	}

	token, exp, err := s.authService.IssueToken(user)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if next == "" {
		next = "/"
	}
	return c.Redirect(next, fiber.StatusFound)
}

// Logout revokes the session and renders the logged-out page as an anonymous visitor.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		if err := s.authService.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session revoke failed", slog.String("error", err.Error()))
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	view := s.page(c, "Logged out")
	view.Viewer = middleware.Identity{}
	return s.render(c, fiber.StatusOK, "users/logged_out", view)
}
