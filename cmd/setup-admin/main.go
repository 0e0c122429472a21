// Command setup-admin promotes an existing user to admin or creates a new
// admin account.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devicelink/core/internal/config"
	"github.com/devicelink/core/internal/database"
	"github.com/devicelink/core/internal/modules/activity"
	"github.com/devicelink/core/internal/modules/auth/account"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	username := flag.String("username", "", "Account to promote or create")
	password := flag.String("password", "", "Password for a new account (prompted when needed)")
	flag.Parse()

	if err := run(*configPath, *username, *password, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "setup-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, username, password string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Keep SQL tracing out of the prompt output.
	cfg.Env = "production"

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	logger := zap.NewNop()
	svc := account.NewService(activity.NewService(db, nil, logger), logger, account.Options{})
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "DeviceLink Admin Setup")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	if username == "" {
		if username, err = prompt(reader, out, "Enter username: "); err != nil {
			return err
		}
	}
	if username == "" {
		return errors.New("username is required")
	}

	ctx := context.Background()
	created, err := svc.EnsureAdmin(ctx, username, password)
	if errors.Is(err, account.ErrPasswordRequired) && password == "" {
		if password, err = prompt(reader, out, "Enter password (min 8 characters): "); err != nil {
			return err
		}
		created, err = svc.EnsureAdmin(ctx, username, password)
	}
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "Admin user '%s' created successfully!\n", username)
	} else {
		fmt.Fprintf(out, "User '%s' is now an admin!\n", username)
	}
	fmt.Fprintln(out, "You can now login with this admin account.")
	return nil
}

func prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
