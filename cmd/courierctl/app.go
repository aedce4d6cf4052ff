package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"bookcourier/internal/access"
	"bookcourier/internal/catalog"
	"bookcourier/internal/client"
	"bookcourier/internal/config"
	"bookcourier/internal/domain"
	"bookcourier/internal/media"
	"bookcourier/internal/orders"
	"bookcourier/internal/session"

	"github.com/spf13/cobra"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.ClientConfig
	session *session.Session
	api     *client.Client
	roles   *access.Resolver
	nav     *access.Navigator
	orders  *orders.Service
	catalog *catalog.Service
	cdn     media.Uploader // nil without Cloudinary settings
	out     io.Writer
}

func bootApp(cmd *cobra.Command) (*app, error) {
	cfg := config.LoadClientConfig()
	hc := &http.Client{Timeout: cfg.Timeout}

	var provider session.IdentityProvider
	switch cfg.Identity {
	case "dev":
		provider = session.NewDevProvider(cfg.APIURL, hc)
	default:
		if cfg.FirebaseAPIKey == "" {
			return nil, errors.New("FIREBASE_API_KEY is required, or set COURIER_IDENTITY=dev")
		}
		fb, err := session.NewFirebaseProvider(cmd.Context(), cfg.FirebaseAPIKey, hc)
		if err != nil {
			return nil, err
		}
		provider = fb
	}
	sess, err := session.New(provider, session.FileStore{Path: cfg.SessionFile})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, session: sess, out: cmd.OutOrStdout()}
	a.api = client.New(cfg.APIURL, sess,
		client.WithHTTPClient(hc),
		client.WithUnauthorizedHandler(func(redirect string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Signed out. Continue at %s with `courierctl login`.\n", redirect)
		}),
	)
	a.roles = access.NewResolver(a.api)
	a.nav = access.NewNavigator(sess, a.roles)
	a.orders = orders.New(a.api, orders.WithNavigator(func(target string) {
		fmt.Fprintln(a.out, "->", target)
	}))
	a.catalog = catalog.New(a.api)
	if cfg.CloudinaryCloud != "" && cfg.CloudinaryPreset != "" {
		cdn, err := media.NewCloudinary(cfg.CloudinaryCloud, cfg.CloudinaryPreset, hc)
		if err != nil {
			return nil, err
		}
		a.cdn = cdn
	}
	return a, nil
}

// enter applies the route guards of the view a command stands for.
func (a *app) enter(ctx context.Context, path string) error {
	d := a.nav.Navigate(ctx, path)
	if d.Allowed {
		return nil
	}
	if d.Redirect == access.LoginPath {
		return fmt.Errorf("sign in first: run `courierctl login` (wanted %s)", d.From)
	}
	return fmt.Errorf("%s is not available for your role", path)
}

// signedIn guards actions on public views that still need an account.
func (a *app) signedIn(path string) error {
	if d := access.RequireAuth(a.session.SignedIn(), path); !d.Allowed {
		return fmt.Errorf("sign in first: run `courierctl login` (wanted %s)", d.From)
	}
	return nil
}

// role resolves the signed-in user's role fresh from the backend.
func (a *app) role(ctx context.Context) domain.Role {
	if !a.session.SignedIn() {
		return domain.RoleUser
	}
	return a.roles.Resolve(ctx, a.session.Email())
}

func (a *app) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

// run boots the app and hands it to fn.
func run(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootApp(cmd)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), a, args)
	}
}

// confirm asks a yes/no question on in. Anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// assumeYes skips confirmations when set by --yes.
var assumeYes bool

func confirmer(cmd *cobra.Command, question string) bool {
	if assumeYes {
		return true
	}
	return confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question)
}

// passwordFrom returns the --password flag or reads one line from stdin.
func passwordFrom(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
