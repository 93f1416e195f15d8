package command

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/internal/utils"
	"github.com/jrsteele09/go-blog-auth/routes"
	"github.com/jrsteele09/go-blog-auth/session"
	"github.com/jrsteele09/go-blog-auth/users"
	"github.com/urfave/cli/v2"
)

// PasswordCommand returns the password subcommand group.
func PasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Change or reset your password",
		Subcommands: []*cli.Command{
			{
				Name:  "change",
				Usage: "Set a new password for the signed in user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "new", Usage: "New password (prompted when omitted)"},
					&cli.StringFlag{Name: "confirm", Usage: "New password again (prompted when omitted)"},
				},
				Action: passwordChange,
			},
			{
				Name:  "reset",
				Usage: "Email a password reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
				},
				Action: passwordReset,
			},
			{
				Name:  "confirm",
				Usage: "Set a new password with the uid and token from a reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Required: true},
					&cli.StringFlag{Name: "token", Required: true},
					&cli.StringFlag{Name: "new", Usage: "New password (prompted when omitted)"},
					&cli.StringFlag{Name: "confirm", Usage: "New password again (prompted when omitted)"},
				},
				Action: passwordConfirm,
			},
		},
	}
}

func newPasswordPair(c *cli.Context) (string, string, error) {
	password, err := secret(c, "new", "New password")
	if err != nil {
		return "", "", err
	}
	confirm, err := secret(c, "confirm", "Confirm new password")
	if err != nil {
		return "", "", err
	}
	return password, confirm, nil
}

func passwordChange(c *cli.Context) error {
	e, _, err := requireSignedIn(c)
	if err != nil {
		return err
	}
	password, confirm, err := newPasswordPair(c)
	if err != nil {
		return err
	}

	if err := e.gw.ChangePassword(c.Context, gateway.PasswordChange{NewPassword1: password, NewPassword2: confirm}); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Password changed.")
	return nil
}

func passwordReset(c *cli.Context) error {
	e, _ := ready(c)
	if err := e.gw.RequestPasswordReset(c.Context, c.String("email")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "If the address has an account, a reset link is on its way.")
	return nil
}

func passwordConfirm(c *cli.Context) error {
	e, _ := ready(c)
	password, confirm, err := newPasswordPair(c)
	if err != nil {
		return err
	}

	if err := e.gw.ConfirmPasswordReset(c.Context, gateway.PasswordResetConfirm{
		UID:          c.String("uid"),
		Token:        c.String("token"),
		NewPassword1: password,
		NewPassword2: confirm,
	}); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Password reset. You can sign in with the new password.")
	printEffects(c.App.Writer, []session.Effect{session.Navigate(routes.Login)})
	return nil
}

func VerifyEmailCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-email",
		Usage:     "Confirm an email address with the key from the verification link",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("verify-email takes exactly one KEY argument")
			}
			e, _ := ready(c)
			if err := e.gw.VerifyEmail(c.Context, c.Args().First()); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Email verified.")
			return nil
		},
	}
}

func ResendVerificationCommand() *cli.Command {
	return &cli.Command{
		Name:  "resend-verification",
		Usage: "Send a new verification link",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			e, _ := ready(c)
			if err := e.gw.ResendVerificationEmail(c.Context, c.String("email")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Verification email sent.")
			return nil
		},
	}
}

// profileFields maps flags onto the identity and profile fields they set.
var profileFields = []struct {
	flag     string
	usage    string
	identity func(*users.ProfileUpdate, *string)
	profile  func(*users.ProfileFields, *string)
}{
	{flag: "first-name", identity: func(u *users.ProfileUpdate, v *string) { u.FirstName = v }},
	{flag: "last-name", identity: func(u *users.ProfileUpdate, v *string) { u.LastName = v }},
	{flag: "email", identity: func(u *users.ProfileUpdate, v *string) { u.Email = v }},
	{flag: "phone", identity: func(u *users.ProfileUpdate, v *string) { u.PhoneNumber = v }},
	{flag: "bio", profile: func(p *users.ProfileFields, v *string) { p.Bio = v }},
	{flag: "date-of-birth", usage: "YYYY-MM-DD", profile: func(p *users.ProfileFields, v *string) { p.DateOfBirth = v }},
	{flag: "location", profile: func(p *users.ProfileFields, v *string) { p.Location = v }},
	{flag: "signature", profile: func(p *users.ProfileFields, v *string) { p.Signature = v }},
	{flag: "website", profile: func(p *users.ProfileFields, v *string) { p.Website = v }},
	{flag: "linkedin", profile: func(p *users.ProfileFields, v *string) { p.LinkedIn = v }},
	{flag: "twitter", profile: func(p *users.ProfileFields, v *string) { p.Twitter = v }},
}

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	updateFlags := []cli.Flag{
		&cli.BoolFlag{Name: "replace", Usage: "Send a full update; first name, last name, email and phone are then required"},
		&cli.BoolFlag{Name: "json", Usage: "Print the stored identity as JSON"},
	}
	for _, f := range profileFields {
		updateFlags = append(updateFlags, &cli.StringFlag{Name: f.flag, Usage: f.usage})
	}

	return &cli.Command{
		Name:  "profile",
		Usage: "Edit or delete your account",
		Subcommands: []*cli.Command{
			{
				Name:   "update",
				Usage:  "Change identity or profile fields; only the flags given are sent",
				Flags:  updateFlags,
				Action: profileUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete the account permanently",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the deletion"},
				},
				Action: profileDelete,
			},
		},
	}
}

func profileUpdateFrom(c *cli.Context) users.ProfileUpdate {
	var update users.ProfileUpdate
	var fields users.ProfileFields
	profileSet := false
	for _, f := range profileFields {
		if !c.IsSet(f.flag) {
			continue
		}
		value := utils.Ptr(c.String(f.flag))
		if f.identity != nil {
			f.identity(&update, value)
			continue
		}
		f.profile(&fields, value)
		profileSet = true
	}
	if profileSet {
		update.Profile = &fields
	}
	return update
}

func profileUpdate(c *cli.Context) error {
	e, _, err := requireSignedIn(c)
	if err != nil {
		return err
	}

	update := profileUpdateFrom(c)
	write := e.gw.UpdateProfile
	if c.Bool("replace") {
		write = e.gw.ReplaceProfile
	}
	identity, err := write(c.Context, update)
	if err != nil {
		return err
	}

	e.session.UpdateIdentity(identity)
	return printIdentity(c.App.Writer, identity, c.Bool("json"))
}

func profileDelete(c *cli.Context) error {
	e, _, err := requireSignedIn(c)
	if err != nil {
		return err
	}
	if !c.Bool("yes") {
		return errors.New("refusing to delete the account without --yes")
	}

	if err := e.gw.DeleteAccount(c.Context); err != nil {
		return err
	}
	effects, err := e.session.Logout(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Account deleted.")
	printEffects(c.App.Writer, effects)
	return nil
}
