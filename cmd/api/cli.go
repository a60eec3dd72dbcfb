package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Wikid82/ballot/backend/internal/config"
	"github.com/Wikid82/ballot/backend/internal/credentials"
)

const usage = `usage:
  api                                     start the HTTP server
  api reset-password <email> <password>   set a new password and clear any lockout
  api promote-admin <email>               grant admin rights
  api demote-admin <email>                revoke admin rights
  api gen-secret                          print a random BALLOT_JWT_SECRET`

// runCommand executes one maintenance subcommand against the credential store.
func runCommand(ctx context.Context, provider credentials.Provider, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command\n%s", usage)
	}

	switch args[0] {
	case "gen-secret":
		secret, err := config.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		fmt.Fprintln(out, secret)
		return nil

	case "reset-password":
		if len(args) != 3 {
			return fmt.Errorf("reset-password takes <email> <new-password>\n%s", usage)
		}
		if err := provider.ResetPassword(ctx, args[1], args[2]); err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
		fmt.Fprintf(out, "Password updated successfully for user %s\n", args[1])
		return nil

	case "promote-admin", "demote-admin":
		if len(args) != 2 {
			return fmt.Errorf("%s takes <email>\n%s", args[0], usage)
		}
		admin := args[0] == "promote-admin"
		if err := provider.SetAdmin(ctx, args[1], admin); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		verb := "revoked"
		if admin {
			verb = "granted"
		}
		fmt.Fprintf(out, "Admin rights %s for user %s; existing tokens keep their old claim until they expire\n", verb, args[1])
		return nil
	}

	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}
