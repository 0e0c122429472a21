package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devicelink/core/internal/client"
	"github.com/spf13/cobra"
)

type cli struct {
	in          *bufio.Reader
	out         io.Writer
	server      string
	sessionPath string
	api         *client.Client
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:           "devicelink",
		Short:         "Donate and find used devices on a DeviceLink server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.connect(cmd.Flags().Changed("server"))
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	server := os.Getenv(envServer)
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&c.server, "server", server, "Server base URL (env "+envServer+")")
	root.PersistentFlags().StringVar(&c.sessionPath, "session", defaultSessionPath(), "Where the login session is stored")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.listingsCmd(),
		c.adminCmd(),
	)
	return root
}

// connect builds the API client from the stored session. An explicit
// --server wins over the server recorded at login.
func (c *cli) connect(serverFlagSet bool) error {
	s, err := loadSession(c.sessionPath)
	if err != nil {
		return fmt.Errorf("read session %s: %w", c.sessionPath, err)
	}
	if s.Server != "" && !serverFlagSet {
		c.server = s.Server
	}
	if s.Server != "" && s.Server != c.server {
		s.Session = client.Session{}
	}
	c.api = client.New(c.server, client.WithSession(s.Session))
	return nil
}

func (c *cli) persist() error {
	return saveSession(c.sessionPath, storedSession{Server: c.server, Session: c.api.Session()})
}

func (c *cli) requireLogin() error {
	if !c.api.LoggedIn() {
		return fmt.Errorf("%w: run `devicelink login` first", client.ErrNotLoggedIn)
	}
	return nil
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}
