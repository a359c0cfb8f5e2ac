package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shandysiswandi/mlsgate/internal/app"
	"github.com/shandysiswandi/mlsgate/internal/console"
	identityuc "github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/spf13/cobra"
)

var (
	provisionClearance  int
	provisionWithoutMFA bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision <username>",
	Short: "Create an account non-interactively",
	Long: `Creates an account with the given clearance. The password is read from
the terminal without echo, or from the first line of stdin when it is not a
terminal. The second-factor secret is printed once and never stored in clear
anywhere else.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(*cobra.Command, []string) error {
		return checkClearanceFlag(provisionClearance)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readProvisionPassword(cmd)
		if err != nil {
			return err
		}

		return withApp(func(a *app.App) error {
			out, err := a.Identity().Provision(cmd.Context(), identityuc.ProvisionInput{
				Username:   args[0],
				Password:   password,
				Clearance:  provisionClearance,
				WithoutMFA: provisionWithoutMFA,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "User '%s' created with clearance %s.\n", out.Record.Username, out.Record.Clearance)
			if out.MFASecret != "" {
				fmt.Fprintf(w, "MFA setup key: %s\n", out.MFASecret)
				fmt.Fprintf(w, "MFA URI: %s\n", out.MFAURI)
			}
			return nil
		})
	},
}

func init() {
	provisionCmd.Flags().IntVar(&provisionClearance, "clearance", 0, "Clearance level 0-3 (UNCLASSIFIED..TOP SECRET)")
	provisionCmd.Flags().BoolVar(&provisionWithoutMFA, "without-mfa", false, "Create the account without a second factor")
}

// checkClearanceFlag fails before any password prompt. Provision checks the
// range again.
func checkClearanceFlag(n int) error {
	if _, err := blp.ParseLevel(n); err != nil {
		return fmt.Errorf("--clearance must be between 0 and 3: %w", err)
	}

	return nil
}

func readProvisionPassword(cmd *cobra.Command) (string, error) {
	if secret := console.TerminalSecret(os.Stdin, cmd.ErrOrStderr()); secret != nil {
		password, err := secret("Password: ")
		if err != nil {
			return "", err
		}
		confirm, err := secret("Confirm Password: ")
		if err != nil {
			return "", err
		}
		if password != confirm {
			return "", errors.New("passwords do not match")
		}
		return password, nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
