package command

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/session"
	"github.com/jrsteele09/go-blog-auth/social"
	"github.com/urfave/cli/v2"
)

func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether a user is signed in",
		Action: func(c *cli.Context) error {
			_, st := ready(c)
			printState(c.App.Writer, st)
			return nil
		},
	}
}

func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed in user",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the identity as JSON"},
		},
		Action: func(c *cli.Context) error {
			_, st, err := requireSignedIn(c)
			if err != nil {
				return err
			}
			return printIdentity(c.App.Writer, st.Identity, c.Bool("json"))
		},
	}
}

func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Account password (prompted when omitted)", EnvVars: []string{"BLOGAUTH_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			e, _ := ready(c)
			password, err := secret(c, "password", "Password")
			if err != nil {
				return err
			}

			effects, err := e.session.Login(c.Context, gateway.LoginCredentials{Email: c.String("email"), Password: password})
			if err != nil {
				return err
			}
			return signedIn(c, effects)
		},
	}
}

func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name", Required: true},
			&cli.StringFlag{Name: "phone", Usage: "Phone number", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)", EnvVars: []string{"BLOGAUTH_PASSWORD"}},
			&cli.StringFlag{Name: "password-confirm", Usage: "Password again (prompted when omitted)"},
		},
		Action: func(c *cli.Context) error {
			e, _ := ready(c)
			password, err := secret(c, "password", "Password")
			if err != nil {
				return err
			}
			confirm, err := secret(c, "password-confirm", "Confirm password")
			if err != nil {
				return err
			}

			effects, err := e.session.Register(c.Context, gateway.RegistrationData{
				Email:       c.String("email"),
				FirstName:   c.String("first-name"),
				LastName:    c.String("last-name"),
				PhoneNumber: c.String("phone"),
				Password1:   password,
				Password2:   confirm,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Account created. Check your email to verify it, then sign in.")
			printEffects(c.App.Writer, effects)
			return nil
		},
	}
}

func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and forget the stored credential",
		Action: func(c *cli.Context) error {
			e, _ := ready(c)
			effects, err := e.session.Logout(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Signed out.")
			printEffects(c.App.Writer, effects)
			return nil
		},
	}
}

func socialFlags(credentialFlag, credentialUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: credentialFlag, Usage: credentialUsage},
		&cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute, Usage: "How long to wait for the browser sign in"},
	}
}

func LoginGoogleCommand() *cli.Command {
	return &cli.Command{
		Name:  "login-google",
		Usage: "Sign in with a Google account",
		Flags: socialFlags("access-token", "Use this Google access token instead of running the browser flow"),
		Action: func(c *cli.Context) error {
			e, _ := ready(c)
			accessToken := c.String("access-token")
			if accessToken == "" {
				var err error
				if accessToken, err = googleAccessToken(c, e); err != nil {
					return err
				}
			}

			effects, err := e.session.LoginWithGoogle(c.Context, accessToken)
			if err != nil {
				return err
			}
			return signedIn(c, effects)
		},
	}
}

func googleAccessToken(c *cli.Context, e *env) (string, error) {
	attempt := social.NewAttempt()
	cb, err := social.Listen(e.cfg.GetRedirectAddr(), attempt.State)
	if err != nil {
		return "", err
	}
	defer cb.Close()

	flow, err := social.NewGoogleFlow(c.Context, e.cfg, cb.RedirectURL())
	if err != nil {
		return "", err
	}
	code, err := awaitCode(c, cb, "Google", flow.AuthCodeURL(attempt))
	if err != nil {
		return "", err
	}

	accessToken, identity, err := flow.Exchange(c.Context, code, attempt)
	if err != nil {
		return "", err
	}
	e.log.Debug().Str("email", identity.Email).Msg("google identity verified")
	return accessToken, nil
}

func LoginGithubCommand() *cli.Command {
	return &cli.Command{
		Name:  "login-github",
		Usage: "Sign in with a GitHub account",
		Flags: socialFlags("code", "Use this GitHub authorization code instead of running the browser flow"),
		Action: func(c *cli.Context) error {
			e, _ := ready(c)
			code := c.String("code")
			if code == "" {
				var err error
				if code, err = githubCode(c, e); err != nil {
					return err
				}
			}

			effects, err := e.session.LoginWithGithub(c.Context, code)
			if err != nil {
				return err
			}
			return signedIn(c, effects)
		},
	}
}

func githubCode(c *cli.Context, e *env) (string, error) {
	attempt := social.NewAttempt()
	cb, err := social.Listen(e.cfg.GetRedirectAddr(), attempt.State)
	if err != nil {
		return "", err
	}
	defer cb.Close()

	flow, err := social.NewGithubFlow(e.cfg, cb.RedirectURL())
	if err != nil {
		return "", err
	}
	return awaitCode(c, cb, "GitHub", flow.AuthCodeURL(attempt))
}

func awaitCode(c *cli.Context, cb *social.Callback, provider, authURL string) (string, error) {
	fmt.Fprintf(c.App.Writer, "Open this URL in your browser to sign in with %s:\n\n  %s\n\n", provider, authURL)
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	return cb.Wait(ctx)
}

func signedIn(c *cli.Context, effects []session.Effect) error {
	st := envFrom(c).session.State()
	fmt.Fprintf(c.App.Writer, "Signed in as %s.\n", st.Identity.Email)
	printEffects(c.App.Writer, effects)
	return nil
}
