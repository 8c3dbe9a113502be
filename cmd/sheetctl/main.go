// Command sheetctl generates, checks and imports product workbooks from the
// command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"product-sheets-service/internal/clients"
	"product-sheets-service/internal/importer"
	"product-sheets-service/internal/mapping"
	"product-sheets-service/internal/models"
	"product-sheets-service/internal/validation"
	"product-sheets-service/internal/workbook"
)

var (
	backendURL string
	token      string
	tenantID   string
	outputPath string
	example    bool
	timeout    time.Duration
	verbose    bool
)

var errInvalidRows = errors.New("file has invalid rows")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sheetctl",
		Short:        "Product spreadsheet templates, exports and imports",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&backendURL, "backend-url", os.Getenv("BACKEND_API_URL"), "Catalog API base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("BACKEND_API_TOKEN"), "Bearer token for the catalog API")
	root.PersistentFlags().StringVar(&tenantID, "tenant", os.Getenv("TENANT_ID"), "Tenant ID sent with every backend call")
	root.PersistentFlags().DurationVar(&timeout, "timeout", clients.DefaultTimeout, "Backend request timeout")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	template := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import workbook",
		Args:  cobra.NoArgs,
		RunE:  runTemplate,
	}
	template.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: mau_nhap_san_pham_<date>.xlsx)")
	template.Flags().BoolVar(&example, "example", true, "Include an example row")

	export := &cobra.Command{
		Use:   "export",
		Short: "Write every product of the tenant in the import layout",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	export.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: danh_sach_san_pham_<date>.xlsx)")

	validate := &cobra.Command{
		Use:   "validate <file.xlsx>",
		Short: "Parse and validate a workbook without importing it",
		Long: `Parses the product sheet and reports every row that breaks a column rule.
Without --backend-url the product type and attribute lists are not checked.
Exits with status 1 when any row is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	imp := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a workbook into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	root.AddCommand(template, export, validate, imp)
	return root
}

func newLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newClient(cmd *cobra.Command) (*clients.CatalogClient, context.Context, error) {
	if backendURL == "" {
		return nil, nil, errors.New("--backend-url is required")
	}
	client := clients.NewCatalogClient(backendURL, token, timeout, newLogger(cmd.ErrOrStderr()))
	ctx := clients.WithUser(cmd.Context(), clients.UserContext{TenantID: tenantID})
	return client, ctx, nil
}

func runTemplate(cmd *cobra.Command, _ []string) error {
	client, ctx, err := newClient(cmd)
	if err != nil {
		return err
	}
	ref, err := client.FetchReferenceData(ctx)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	return writeWorkbook(cmd, "mau_nhap_san_pham", ref, nil, example)
}

func runExport(cmd *cobra.Command, _ []string) error {
	client, ctx, err := newClient(cmd)
	if err != nil {
		return err
	}
	ref, err := client.FetchReferenceData(ctx)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	products, err := client.ListAllProducts(ctx, 200)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	rows := make([]models.RowRecord, len(products))
	for i, p := range products {
		rows[i] = mapping.ToRecord(p, ref)
	}
	return writeWorkbook(cmd, "danh_sach_san_pham", ref, rows, false)
}

func writeWorkbook(cmd *cobra.Command, base string, ref *models.ReferenceData, rows []models.RowRecord, withExample bool) error {
	path := outputPath
	if path == "" {
		path = workbook.FileName(base, time.Now())
	}
	f, err := workbook.NewBuilder().ProductWorkbook(ref, rows, withExample)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Đã ghi %s (%d dòng)\n", path, len(rows))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	schema := offlineSchema()
	if backendURL != "" {
		client, ctx, err := newClient(cmd)
		if err != nil {
			return err
		}
		ref, err := client.FetchReferenceData(ctx)
		if err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
		schema = models.ProductSchema(ref)
	}
	return validateFile(cmd.OutOrStdout(), args[0], schema)
}

// offlineSchema is the product schema without reference data. Select
// columns with no options are checked as free text.
func offlineSchema() models.Schema {
	schema := models.ProductSchema(nil)
	for i, col := range schema {
		if col.Type == models.ColumnSelect && len(col.Options) == 0 {
			schema[i].Type = models.ColumnText
		}
	}
	return schema
}

func validateFile(out io.Writer, path string, schema models.Schema) error {
	res, err := workbook.ReadFile(path, workbook.WithSchema(schema))
	if err != nil {
		return err
	}

	records := make([]models.RowRecord, len(res.Records))
	for i, rec := range res.Records {
		records[i] = schema.Decode(rec)
	}
	verrs := validation.ValidateAll(records, schema)

	fmt.Fprintf(out, "%s: sheet %q, %d dòng\n", filepath.Base(path), res.Sheet, len(records))
	for _, h := range res.UnknownHeaders {
		fmt.Fprintf(out, "  cột không xác định: %s\n", h)
	}
	for _, ve := range verrs {
		for _, msg := range ve.Messages {
			fmt.Fprintf(out, "  Dòng %d: %s\n", ve.Row, msg)
		}
	}
	if len(verrs) > 0 {
		fmt.Fprintf(out, "%d/%d dòng chưa hợp lệ\n", len(verrs), len(records))
		return errInvalidRows
	}
	fmt.Fprintln(out, "Tất cả các dòng hợp lệ")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	client, ctx, err := newClient(cmd)
	if err != nil {
		return err
	}
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	orch := importer.New(importer.NewMemoryStore(0), client, importer.WithLogger(newLogger(cmd.ErrOrStderr())))
	return importFile(ctx, cmd.OutOrStdout(), orch, filepath.Base(args[0]), file)
}

func importFile(ctx context.Context, out io.Writer, orch *importer.Orchestrator, name string, r io.Reader) error {
	user, _ := clients.UserFromContext(ctx)
	s, err := orch.Open(ctx, user.TenantID, user.UserID)
	if err != nil {
		return err
	}
	defer orch.Close(context.WithoutCancel(ctx), s.ID)

	s, err = orch.Upload(ctx, s.ID, name, r)
	printNotice(out, s.Notice)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Đọc %d dòng từ %s\n", len(s.Rows), name)

	s, err = orch.Confirm(ctx, s.ID)
	printNotice(out, s.Notice)
	if err != nil {
		return err
	}
	if s.State != importer.StateComplete {
		return errors.New("import aborted")
	}
	for _, e := range s.Result.Results.Errors {
		fmt.Fprintf(out, "  Dòng %d (%s): %s\n", e.Row, e.Name, e.Error)
	}
	return nil
}

func printNotice(out io.Writer, n *importer.Notice) {
	if n != nil {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
	}
}
