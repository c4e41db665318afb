// Package render prints the access gate's views to the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/terraconstructs/rolegate/pkg/sdk"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidateFormat rejects unknown output formats.
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (expected table, json or yaml)", format)
	}
}

// Roster writes the roster in the requested format. Tables show one checkbox column per
// editable role and list any other labels verbatim.
func Roster(w io.Writer, roster []sdk.Identity, format string) error {
	if roster == nil {
		roster = []sdk.Identity{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roster)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(roster); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		out, err := pterm.DefaultTable.WithHasHeader().WithData(rosterTable(roster)).Srender()
		if err != nil {
			return fmt.Errorf("failed to render roster: %w", err)
		}
		_, err = fmt.Fprintln(w, out)
		return err
	default:
		return ValidateFormat(format)
	}
}

func rosterTable(roster []sdk.Identity) pterm.TableData {
	header := []string{"ID", "USERNAME", "EMAIL"}
	for _, role := range sdk.EditableRoles {
		header = append(header, strings.ToUpper(role))
	}
	header = append(header, "OTHER")

	data := pterm.TableData{header}
	for _, entry := range roster {
		row := []string{strconv.FormatInt(entry.ID, 10), entry.Username, entry.Email}
		for _, role := range sdk.EditableRoles {
			row = append(row, Checkbox(entry.Roles.Has(role)))
		}
		other := "-"
		if unknown := entry.Roles.Unknown(); len(unknown) > 0 {
			other = strings.Join(unknown, ", ")
		}
		data = append(data, append(row, other))
	}
	return data
}

// Checkbox renders a role membership cell.
func Checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

// View writes the rendering decision of the access gate: a loading or error notice, the
// restricted dashboard, or the roster editor.
func View(w io.Writer, view sdk.View) error {
	var b strings.Builder

	switch view.State {
	case sdk.GateLoading:
		b.WriteString(pterm.Info.Sprintln("Loading..."))
		_, err := io.WriteString(w, b.String())
		return err
	case sdk.GateError:
		b.WriteString(pterm.Error.Sprintln(errorText(view)))
		b.WriteString(pterm.Info.Sprintln("Run `rolectl auth login` to sign in."))
		_, err := io.WriteString(w, b.String())
		return err
	}

	if view.HasError() {
		b.WriteString(pterm.Error.Sprintln(view.Error))
	}
	if !view.Verified {
		b.WriteString(pterm.Warning.Sprintln("Showing cached account details; the identity service could not confirm them."))
	}

	if !view.Privileged {
		b.WriteString(pterm.DefaultSection.Sprintln("Dashboard"))
		b.WriteString(Identity(view.Identity))
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(pterm.DefaultSection.Sprintln("User Management"))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return Roster(w, view.Roster, FormatTable)
}

// Identity renders the signed-in account.
func Identity(identity *sdk.Identity) string {
	if identity == nil {
		return pterm.Warning.Sprintln("No account information available.")
	}
	var b strings.Builder
	b.WriteString(pterm.Info.Sprintf("Signed in as %s (%s)\n", identity.Username, identity.Email))
	roles := identity.Roles.String()
	if roles == "" {
		roles = "none"
	}
	b.WriteString(pterm.Info.Sprintf("Roles: %s\n", roles))
	return b.String()
}

func errorText(view sdk.View) string {
	if view.Error != "" {
		return view.Error
	}
	return "No active session."
}
