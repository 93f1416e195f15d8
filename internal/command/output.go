package command

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-blog-auth/session"
	"github.com/jrsteele09/go-blog-auth/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}

// printEffects tells the user where the browser app would go next.
func printEffects(w io.Writer, effects []session.Effect) {
	for _, effect := range effects {
		fmt.Fprintf(w, "-> %s\n", effect)
	}
}

func printIdentity(w io.Writer, identity *users.Identity, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(identity)
	}

	fmt.Fprintf(w, "Email:   %s\n", identity.Email)
	if name := identity.FullName(); name != "" {
		fmt.Fprintf(w, "Name:    %s\n", name)
	}
	if identity.PhoneNumber != "" {
		fmt.Fprintf(w, "Phone:   %s\n", identity.PhoneNumber)
	}
	fmt.Fprintf(w, "Role:    %s\n", identity.Role.Label())
	if identity.DateJoined != nil {
		fmt.Fprintf(w, "Joined:  %s\n", identity.DateJoined.Format("2 Jan 2006"))
	}
	if p := identity.Profile; p != nil {
		if p.Bio != "" {
			fmt.Fprintf(w, "Bio:     %s\n", p.Bio)
		}
		if p.Location != nil {
			fmt.Fprintf(w, "Where:   %s\n", *p.Location)
		}
		if p.Website != nil {
			fmt.Fprintf(w, "Website: %s\n", *p.Website)
		}
		fmt.Fprintf(w, "Posts:   %d articles, %d comments\n", p.ArticleCount, p.CommentCount)
	}
	return nil
}

func printState(w io.Writer, st session.State) {
	fmt.Fprintf(w, "status: %s\n", st.Status)
	if st.Identity != nil {
		fmt.Fprintf(w, "user:   %s (%s)\n", st.Identity.Email, st.Identity.Role.Label())
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "error:  %s\n", st.LastError)
	}
}

// printMetrics writes one line per backend operation and outcome.
func printMetrics(w io.Writer, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics unavailable: %v\n", err)
		return
	}

	var lines []string
	for _, mf := range families {
		if mf.GetName() != "blog_auth_gateway_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%-24s %-18s %.0f", labels["op"], labels["outcome"], m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// secret returns the flag value, or reads one line from the app's input when it is empty.
func secret(c *cli.Context, flag, label string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	fmt.Fprintf(c.App.ErrWriter, "%s: ", label)
	line, err := envFrom(c).input.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("[secret] read %s: %w", flag, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
