package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/stablebuilds/quoter/internal/business"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/ops"
	"github.com/stablebuilds/quoter/internal/web"
)

// maxStdinBytes bounds JSON read from stdin.
const maxStdinBytes = 1 << 20

// maxLogoBytes bounds the logo file accepted by "business set".
const maxLogoBytes = 2 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *ops.Services) *cli.App {
	app := &cli.App{
		Name:    "quoter",
		Usage:   "Local quotation workbench",
		Version: Version,
		Commands: []*cli.Command{
			draftCmd(svc),
			quotationCmd(svc),
			clientCmd(svc),
			businessCmd(svc),
			serveCmd(svc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// draftCmd groups the working-quotation commands.
func draftCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Edit the working quotation",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Start a fresh quotation with the next folio",
				Action: func(c *cli.Context) error {
					return output(ops.DraftNew(c.Context, svc))
				},
			},
			{
				Name:  "show",
				Usage: "Show the working quotation",
				Action: func(c *cli.Context) error {
					return output(ops.DraftShow(c.Context, svc))
				},
			},
			{
				Name:  "add",
				Usage: "Append a line item",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Item description"},
					&cli.StringFlag{Name: "qty", Aliases: []string{"q"}, Value: "1", Usage: "Quantity"},
					&cli.StringFlag{Name: "price", Aliases: []string{"p"}, Value: "0", Usage: "Unit price"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.DraftAddItem(c.Context, svc, ops.ItemInput{
						Name:      c.String("name"),
						Quantity:  c.String("qty"),
						UnitPrice: c.String("price"),
					}))
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove the line item at a zero-based index",
				ArgsUsage: "<index>",
				Action: func(c *cli.Context) error {
					arg, err := positional(c, "index")
					if err != nil {
						return outputError(err)
					}
					if arg == "" {
						return outputError(errors.NewInvalidRequest("index is required"))
					}
					index, err := parseIndex(arg)
					if err != nil {
						return outputError(err)
					}
					return output(ops.DraftRemoveItem(c.Context, svc, ops.DraftRemoveItemInput{Index: index}))
				},
			},
			{
				Name:  "items",
				Usage: "Replace every line item (reads a JSON array from stdin)",
				Action: func(c *cli.Context) error {
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("items must be piped via stdin"))
					}
					data, err := readStdin(maxStdinBytes)
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					var items []ops.ItemInput
					if err := json.Unmarshal([]byte(data), &items); err != nil {
						return outputError(errors.NewInvalidRequest(fmt.Sprintf("items must be a JSON array: %v", err)))
					}
					return output(ops.DraftSetItems(c.Context, svc, ops.DraftSetItemsInput{Items: items}))
				},
			},
			{
				Name:  "config",
				Usage: "Set tax rate, discount or deposit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tax", Usage: "Tax rate percent"},
					&cli.StringFlag{Name: "discount-mode", Usage: "Discount mode: percentage|fixed"},
					&cli.StringFlag{Name: "discount", Usage: "Discount value"},
					&cli.StringFlag{Name: "deposit", Usage: "Deposit amount"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.DraftConfigure(c.Context, svc, ops.DraftConfigureInput{
						TaxRatePercent: optional(c, "tax"),
						DiscountMode:   optional(c, "discount-mode"),
						DiscountValue:  optional(c, "discount"),
						Deposit:        optional(c, "deposit"),
					}))
				},
			},
			{
				Name:  "meta",
				Usage: "Set client, date, payment method or notes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client", Aliases: []string{"c"}, Usage: "Client ID (empty detaches the client)"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Issue date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "payment", Usage: "Payment method"},
					&cli.StringFlag{Name: "notes", Usage: "Notes (markdown)"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.DraftSetMeta(c.Context, svc, ops.MetaInput{
						ClientID:      optionalString(c, "client"),
						Date:          optionalString(c, "date"),
						PaymentMethod: optionalString(c, "payment"),
						Notes:         optionalString(c, "notes"),
					}))
				},
			},
			{
				Name:  "undo",
				Usage: "Undo the last change",
				Action: func(c *cli.Context) error {
					return output(ops.DraftUndo(c.Context, svc))
				},
			},
			{
				Name:  "redo",
				Usage: "Redo the last undone change",
				Action: func(c *cli.Context) error {
					return output(ops.DraftRedo(c.Context, svc))
				},
			},
			{
				Name:  "validate",
				Usage: "Check whether the working quotation can be approved",
				Action: func(c *cli.Context) error {
					return output(ops.DraftValidate(c.Context, svc))
				},
			},
			{
				Name:  "save",
				Usage: "Save the working quotation and start the next one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Value: "draft", Usage: "Status: draft|approved"},
					&cli.BoolFlag{Name: "force", Usage: "Approve even when validation fails"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.DraftSave(c.Context, svc, ops.DraftSaveInput{
						Status: c.String("status"),
						Force:  c.Bool("force"),
					}))
				},
			},
			{
				Name:      "load",
				Usage:     "Make a stored quotation the working one",
				ArgsUsage: "<folio>",
				Action: func(c *cli.Context) error {
					folio, err := positional(c, "folio")
					if err != nil {
						return outputError(err)
					}
					return output(ops.DraftLoad(c.Context, svc, ops.DraftLoadInput{Folio: folio}))
				},
			},
			{
				Name:  "export",
				Usage: "Write the working quotation as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.quoter/exports/<folio>.json)"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.ExportDraft(c.Context, svc, ops.ExportDraftInput{Path: c.String("path")}))
				},
			},
			{
				Name:  "import",
				Usage: "Replace the working quotation from a JSON export",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.ImportDraft(c.Context, svc, ops.ImportDraftInput{Path: c.String("path")}))
				},
			},
			{
				Name:  "discard",
				Usage: "Drop the working quotation without saving",
				Action: func(c *cli.Context) error {
					return output(ops.DraftDiscard(c.Context, svc))
				},
			},
		},
	}
}

// quotationCmd groups the stored-quotation commands.
func quotationCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "quotation",
		Usage: "Browse stored quotations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored quotations, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status: draft|approved"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Skip first N results"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.ListQuotations(c.Context, svc, ops.ListQuotationsInput{
						Status: c.String("status"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					}))
				},
			},
			{
				Name:      "show",
				Usage:     "Show one stored quotation",
				ArgsUsage: "<folio>",
				Action: func(c *cli.Context) error {
					folio, err := positional(c, "folio")
					if err != nil {
						return outputError(err)
					}
					return output(ops.GetQuotation(c.Context, svc, ops.GetQuotationInput{Folio: folio}))
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a stored quotation",
				ArgsUsage: "<folio>",
				Action: func(c *cli.Context) error {
					folio, err := positional(c, "folio")
					if err != nil {
						return outputError(err)
					}
					return output(ops.DeleteQuotation(c.Context, svc, ops.DeleteQuotationInput{Folio: folio}))
				},
			},
			{
				Name:  "next-folio",
				Usage: "Show the folio the next quotation will get",
				Action: func(c *cli.Context) error {
					return output(ops.NextFolio(c.Context, svc))
				},
			},
			{
				Name:      "pdf",
				Usage:     "Render a stored quotation as PDF",
				ArgsUsage: "<folio>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.quoter/exports/<document name>.pdf)"},
				},
				Action: func(c *cli.Context) error {
					folio, err := positional(c, "folio")
					if err != nil {
						return outputError(err)
					}
					return output(ops.RenderQuotation(c.Context, svc, ops.RenderQuotationInput{
						Folio: folio,
						Path:  c.String("path"),
					}))
				},
			},
		},
	}
}

// clientCmd groups the client registry commands.
func clientCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Manage saved clients",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List clients sorted by name",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match name or email"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Skip first N results"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.ListClients(c.Context, svc, ops.ListClientsInput{
						Query:  c.String("query"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					}))
				},
			},
			{
				Name:  "save",
				Usage: "Create a client or merge into the matching one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Existing client ID"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Client name"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "persona", Usage: "Client type: persona|empresa"},
					&cli.StringFlag{Name: "address", Usage: "Postal address"},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.SaveClient(c.Context, svc, ops.SaveClientInput{
						ID:      c.String("id"),
						Name:    c.String("name"),
						Type:    c.String("type"),
						Address: c.String("address"),
						Phone:   c.String("phone"),
						Email:   c.String("email"),
					}))
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a client",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := positional(c, "id")
					if err != nil {
						return outputError(err)
					}
					return output(ops.DeleteClient(c.Context, svc, ops.DeleteClientInput{ID: id}))
				},
			},
			{
				Name:  "import",
				Usage: "Import clients from a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.ImportClients(c.Context, svc, ops.ImportClientsInput{Path: c.String("path")}))
				},
			},
			{
				Name:  "export",
				Usage: "Export clients to a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.quoter/exports/clients-<timestamp>.csv)"},
				},
				Action: func(c *cli.Context) error {
					return output(ops.ExportClients(c.Context, svc, ops.ExportClientsInput{Path: c.String("path")}))
				},
			},
		},
	}
}

// businessCmd groups the business profile commands.
func businessCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "business",
		Usage: "Show or change the business identity printed on documents",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the business profile",
				Action: func(c *cli.Context) error {
					return output(ops.GetBusiness(c.Context, svc))
				},
			},
			{
				Name:  "set",
				Usage: "Update business profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Business name"},
					&cli.StringFlag{Name: "address", Usage: "Postal address"},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					&cli.StringFlag{Name: "email", Usage: "Contact email"},
					&cli.StringFlag{Name: "web", Usage: "Website"},
					&cli.StringFlag{Name: "logo-file", Usage: "PNG or JPEG logo to embed"},
					&cli.BoolFlag{Name: "clear-logo", Usage: "Remove the logo"},
				},
				Action: func(c *cli.Context) error {
					patch := business.Patch{
						Name:    optionalString(c, "name"),
						Address: optionalString(c, "address"),
						Phone:   optionalString(c, "phone"),
						Email:   optionalString(c, "email"),
						Web:     optionalString(c, "web"),
					}
					switch {
					case c.Bool("clear-logo"):
						empty := ""
						patch.Logo = &empty
					case c.String("logo-file") != "":
						logo, err := readLogo(c.String("logo-file"))
						if err != nil {
							return outputError(err)
						}
						patch.Logo = &logo
					}
					return output(ops.UpdateBusiness(c.Context, svc, patch))
				},
			},
			{
				Name:  "reset",
				Usage: "Restore the default business profile",
				Action: func(c *cli.Context) error {
					return output(ops.ResetBusiness(c.Context, svc))
				},
			},
		},
	}
}

// serveCmd starts the local quotation history UI.
func serveCmd(svc *ops.Services) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the quotation history UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 7420, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(svc, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// output writes the result of an operation, or its error.
func output[T any](v T, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(v)
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if qErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", qErr.Code, qErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// optional returns the flag value when it was given on the command line.
func optional(c *cli.Context, name string) any {
	if !c.IsSet(name) {
		return nil
	}
	return c.String(name)
}

func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

// positional returns the single positional argument of a command. Flag
// parsing stops at the first positional, so anything after it is rejected
// rather than silently dropped.
func positional(c *cli.Context, name string) (string, error) {
	if c.NArg() > 1 {
		return "", errors.NewInvalidRequest(fmt.Sprintf(
			"unexpected arguments after <%s>: %s (put flags before the %s)",
			name, strings.Join(c.Args().Slice()[1:], " "), name))
	}
	return c.Args().First(), nil
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid index: %s", s))
	}
	return index, nil
}

// readLogo loads an image file as a data URL.
func readLogo(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewFileNotFound(path)
		}
		return "", errors.NewInternal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxLogoBytes+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if len(data) > maxLogoBytes {
		return "", errors.NewInvalidRequest(fmt.Sprintf("logo exceeds %d bytes", maxLogoBytes))
	}

	mime := http.DetectContentType(data)
	if mime != "image/png" && mime != "image/jpeg" {
		return "", errors.NewInvalidRequest("logo must be a PNG or JPEG image")
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
