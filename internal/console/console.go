// Package console is the interactive operator shell: account creation,
// login and the classified file menu, driven over any reader and writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	fentity "github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	filestoreuc "github.com/shandysiswandi/mlsgate/internal/filestore/usecase"
	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	identityuc "github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/passpolicy"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
)

type Identity interface {
	Provision(ctx context.Context, in identityuc.ProvisionInput) (*identityuc.ProvisionOutput, error)
	Authenticate(ctx context.Context, in identityuc.AuthenticateInput) (*entity.AuthOutcome, error)
	CurrentCode(ctx context.Context, username string) (*identityuc.CurrentCodeOutput, error)
}

type Files interface {
	Create(ctx context.Context, in filestoreuc.CreateInput) (*fentity.File, error)
	Read(ctx context.Context, in filestoreuc.ReadInput) (*filestoreuc.ReadOutput, error)
	Append(ctx context.Context, in filestoreuc.WriteInput) error
	Write(ctx context.Context, in filestoreuc.WriteInput) error
	List(ctx context.Context) ([]filestoreuc.ListItem, error)
}

type Console struct {
	in       *bufio.Reader
	out      io.Writer
	secret   SecretReader
	identity Identity
	files    Files
}

// New builds a console. A nil secret reads secrets as ordinary lines.
func New(in io.Reader, out io.Writer, secret SecretReader, identity Identity, files Files) *Console {
	c := &Console{
		in:       bufio.NewReader(in),
		out:      out,
		identity: identity,
		files:    files,
	}

	c.secret = secret
	if c.secret == nil {
		c.secret = c.ask
	}

	return c
}

// Run shows the main menu until the operator exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	for {
		choice, err := c.mainMenu()
		if err == nil {
			switch choice {
			case "1":
				err = c.createAccount(ctx)
			case "2":
				err = c.login(ctx)
			case "3":
				c.println("Exiting program. Goodbye!")
				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			c.println("\nExiting program. Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) mainMenu() (string, error) {
	c.println("\n=== Multi-Level Secure File System ===")
	c.println("1. Account creation")
	c.println("2. Log in and start file manipulation")
	c.println("3. Exit")

	for {
		choice, err := c.ask("Select an option (1-3): ")
		if err != nil {
			return "", err
		}
		if choice == "1" || choice == "2" || choice == "3" {
			return choice, nil
		}
		c.println("Invalid choice. Please enter 1, 2, or 3.")
	}
}

func (c *Console) createAccount(ctx context.Context) error {
	for {
		username, err := c.ask("Username: ")
		if err != nil {
			return err
		}

		password, err := c.newPassword(username)
		if err != nil {
			return err
		}

		clearance, err := c.askClearance()
		if err != nil {
			return err
		}

		out, err := c.identity.Provision(ctx, identityuc.ProvisionInput{
			Username:  username,
			Password:  password,
			Clearance: int(clearance),
		})
		if err != nil {
			var pe *entity.PolicyError
			if errors.As(err, &pe) && pe.Rule == entity.RuleDuplicateUser {
				c.println("Account already exists. Please choose a different username.")
				continue
			}
			if errors.As(err, &pe) && pe.Rule == entity.RuleInvalidUsername {
				c.println("Usernames use 1-64 letters, digits, '.', '_' or '-'.")
				continue
			}
			c.println(c.message(ctx, err))
			return nil
		}

		c.printf("\nYour MFA setup key: %s\n", out.MFASecret)
		c.println("Add this setup key to an authenticator app like Google Authenticator or Authy.")
		c.println("This app will now generate 6-digit codes for your login.")

		if code, err := c.identity.CurrentCode(ctx, username); err == nil {
			c.printf("\nExample current 6-digit code (for testing): %s\n", code.Code)
		}

		c.printf("\nUser '%s' created successfully with clearance %s.\n", username, clearance)
		return nil
	}
}

// newPassword repeats until a password passes the policy and is confirmed.
func (c *Console) newPassword(username string) (string, error) {
	for {
		password, err := c.secret("Password: ")
		if err != nil {
			return "", err
		}

		if ok, rule := passpolicy.Validate(username, password); !ok {
			c.println(rule.Message())
			continue
		}

		confirm, err := c.secret("Confirm Password: ")
		if err != nil {
			return "", err
		}
		if password != confirm {
			c.println("Passwords do not match. Please try again.")
			continue
		}

		return password, nil
	}
}

func (c *Console) askClearance() (blp.Level, error) {
	for {
		raw, err := c.ask("Clearance (0=UNCLASSIFIED, 1=CONFIDENTIAL, 2=SECRET, 3=TOP SECRET): ")
		if err != nil {
			return 0, err
		}

		if n, err := strconv.Atoi(raw); err == nil {
			if level, err := blp.ParseLevel(n); err == nil {
				return level, nil
			}
		}
		c.println("Invalid clearance. Please enter a number from 0 to 3.")
	}
}

func (c *Console) login(ctx context.Context) error {
	username, err := c.ask("Username: ")
	if err != nil {
		return err
	}

	out, err := c.identity.Authenticate(ctx, identityuc.AuthenticateInput{
		Username: username,
		Password: func(context.Context) (string, error) { return c.secret("Password: ") },
		MFACode:  func(context.Context) (string, error) { return c.ask("MFA code: ") },
	})
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		c.println(c.message(ctx, err))
		return nil
	}

	switch out.Status {
	case entity.AuthAuthenticated:
		c.printf("Authentication for user %s complete. Clearance: %s.\n", username, out.Subject.Clearance)
		return c.fileMenu(subject.Set(ctx, out.Subject))
	case entity.AuthLocked:
		c.printf("Account locked. Try again in %s.\n", out.LockRemaining.Round(time.Second))
		return nil
	}

	switch out.Reason {
	case entity.ReasonInvalidInput:
		c.println("Username, password and MFA code must not be empty.")
	case entity.ReasonUnknownUser:
		c.printf("User %s not found.\n", username)
	case entity.ReasonBadPassword:
		c.printf("Authentication failed. Incorrect password. %d attempt(s) remaining.\n", out.AttemptsRemaining)
	case entity.ReasonBadMFACode:
		c.println("Invalid or expired MFA code. Login failed.")
	default:
		c.println("Authentication failed.")
	}

	return nil
}

//nolint:gocognit // one branch per menu option
func (c *Console) fileMenu(ctx context.Context) error {
	for {
		choice, err := c.ask("\nOptions: (C)reate, (A)ppend, (R)ead, (W)rite, (L)ist, (S)ave or (E)xit: ")
		if err != nil {
			return err
		}

		switch strings.ToUpper(choice) {
		case "C":
			name, err := c.ask("Filename: ")
			if err != nil {
				return err
			}
			f, err := c.files.Create(ctx, filestoreuc.CreateInput{Name: name})
			if err != nil {
				c.println(c.message(ctx, err))
				continue
			}
			c.printf("File '%s' created successfully (classification %s).\n", f.Name, f.Classification)

		case "A", "W":
			appending := strings.EqualFold(choice, "A")
			name, err := c.ask("Filename: ")
			if err != nil {
				return err
			}

			label := "Enter new file contents: "
			if appending {
				label = "Enter text to append: "
			}
			text, err := c.ask(label)
			if err != nil {
				return err
			}

			in := filestoreuc.WriteInput{Name: name, Text: text}
			if appending {
				err = c.files.Append(ctx, in)
			} else {
				err = c.files.Write(ctx, in)
			}
			if err != nil {
				c.println(c.message(ctx, err))
				continue
			}
			if appending {
				c.printf("Appended to '%s' successfully.\n", name)
			} else {
				c.printf("Wrote to '%s' successfully.\n", name)
			}

		case "R":
			name, err := c.ask("Filename: ")
			if err != nil {
				return err
			}
			out, err := c.files.Read(ctx, filestoreuc.ReadInput{Name: name})
			if err != nil {
				c.println(c.message(ctx, err))
				continue
			}
			c.println("\n=== File Contents ===")
			c.println(out.Content)
			c.println("=====================")

		case "L":
			items, err := c.files.List(ctx)
			if err != nil {
				c.println(c.message(ctx, err))
				continue
			}
			if len(items) == 0 {
				c.println("No files in system.")
				continue
			}
			for _, it := range items {
				c.printf("%s (owner: %s, classification: %s, read: %s, write: %s)\n",
					it.File.Name, it.File.Owner, it.File.Classification, yesNo(it.CanRead), yesNo(it.CanWrite))
			}

		case "S":
			c.println("The file catalog is saved after every change.")

		case "E":
			confirm, err := c.ask("Exit the FileSystem? (Y/N): ")
			if err != nil {
				return err
			}
			if strings.EqualFold(confirm, "Y") {
				c.println("Exiting FileSystem.")
				return nil
			}

		default:
			c.println("Invalid option, try again.")
		}
	}
}

// WatchCode prints the user's current code on every tick until ctx ends
// or ticks is closed.
func (c *Console) WatchCode(ctx context.Context, username string, ticks <-chan time.Time) error {
	c.printf("Showing second-factor codes for '%s'. Press Ctrl+C to exit.\n\n", username)

	for {
		code, err := c.identity.CurrentCode(ctx, username)
		if err != nil {
			return err
		}
		c.printf("\rCurrent 6-digit code: %s | expires in %2d seconds", code.Code, int(code.Remaining.Seconds()))

		select {
		case <-ctx.Done():
			c.println("\nExiting.")
			return nil
		case _, ok := <-ticks:
			if !ok {
				c.println("")
				return nil
			}
		}
	}
}

func (c *Console) ask(prompt string) (string, error) {
	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return "", err
	}

	line, err := readLine(c.in)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// message renders err for the operator. Internal failures are logged and
// shown without detail.
func (c *Console) message(ctx context.Context, err error) string {
	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Type() != goerror.TypeServer {
		return gerr.Msg()
	}

	slog.ErrorContext(ctx, "console operation failed", "error", err)
	return "Something went wrong, please try again."
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
