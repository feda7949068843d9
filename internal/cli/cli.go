// Package cli implements the offline evidence-sync tool. Every command
// reads a gene snapshot from disk and never contacts the backend.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/config"
	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/drugs"
	"github.com/curation-evidence-sync/internal/service"
	"github.com/curation-evidence-sync/pkg/curation"
)

// ErrUsage reports a malformed command line. The usage text has already
// been written.
var ErrUsage = errors.New("usage error")

// CLI provides the offline commands.
type CLI struct {
	out    io.Writer
	errOut io.Writer
	logger *logrus.Logger
}

// NewCLI creates a CLI writing results to out and diagnostics to errOut.
func NewCLI(out, errOut io.Writer) *CLI {
	logger := logrus.New()
	logger.SetOutput(errOut)
	logger.SetLevel(logrus.WarnLevel)
	return &CLI{out: out, errOut: errOut, logger: logger}
}

// Run executes the command named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return ErrUsage
	}

	switch args[0] {
	case "preview":
		return c.preview(ctx, args[1:])
	case "uuids":
		return c.uuids(args[1:])
	case "gene-type":
		return c.geneType(args[1:])
	case "classify":
		return c.classify(args[1:])
	case "validate":
		return c.validate(args[1:])
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		fmt.Fprintf(c.errOut, "Unknown command: %s\n\n", args[0])
		c.showHelp()
		return ErrUsage
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.errOut, `evidence-sync: offline evidence tooling

Usage:
  evidence-sync <command> [options]

Commands:
  preview    Print the evidence upsert map for an accepted edit
  uuids      Print the identifiers under a mutation, tumor or treatment
  gene-type  Print the gene type payload
  classify   Print the evidence kind of a document path
  validate   Validate a server configuration file

Examples:
  evidence-sync preview --snapshot gene.json --drugs drugs.json --path mutations/0/name
  evidence-sync uuids --snapshot gene.json --path mutations/0/tumors/1 --evidence-only
  evidence-sync gene-type --snapshot gene.json
`)
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func (c *CLI) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *CLI) parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return ErrUsage
	}
	for _, name := range required {
		if fs.Lookup(name).Value.String() == "" {
			fmt.Fprintf(c.errOut, "--%s is required\n", name)
			fs.Usage()
			return ErrUsage
		}
	}
	return nil
}

func (c *CLI) preview(ctx context.Context, args []string) error {
	fs := c.newFlagSet("preview")
	snapshot := fs.String("snapshot", "", "gene snapshot JSON file")
	drugFile := fs.String("drugs", "", "drug catalog JSON file")
	path := fs.String("path", "", "accepted document path")
	entrez := fs.Int("entrez", 0, "Entrez gene id")
	updateTime := fs.Int64("update-time", 0, "submission time in epoch millis (default now)")
	var protected stringList
	fs.Var(&protected, "protect", "protected path (repeatable)")
	if err := c.parse(fs, args, "snapshot", "path"); err != nil {
		return err
	}

	gene, err := readSnapshot(*snapshot)
	if err != nil {
		return err
	}
	if *updateTime == 0 {
		*updateTime = time.Now().UnixMilli()
	}
	req := service.SyncRequest{
		Gene:           gene,
		Path:           *path,
		ProtectedPaths: protected,
		EntrezGeneID:   *entrez,
		UpdateTime:     *updateTime,
	}
	if *drugFile != "" {
		var list []domain.Drug
		if err := readJSON(*drugFile, &list); err != nil {
			return err
		}
		req.Drugs = drugs.NewMapCatalog(list)
	}

	records, err := service.NewDefaultEvidenceSync(c.logger).BuildUpsert(ctx, req)
	if err != nil {
		return err
	}
	return c.printJSON(records)
}

func (c *CLI) uuids(args []string) error {
	fs := c.newFlagSet("uuids")
	snapshot := fs.String("snapshot", "", "gene snapshot JSON file")
	path := fs.String("path", "", "mutation, tumor or treatment path")
	evidenceOnly := fs.Bool("evidence-only", false, "only identifiers that key an evidence")
	if err := c.parse(fs, args, "snapshot", "path"); err != nil {
		return err
	}

	gene, err := readSnapshot(*snapshot)
	if err != nil {
		return err
	}
	value, err := curation.ResolveValue(gene, *path)
	if err != nil {
		return err
	}
	container, ok := value.(map[string]any)
	if !ok {
		return domain.NewPathNotFoundError(*path, "", "path does not address a container")
	}

	mode := curation.CollectAll
	if *evidenceOnly {
		mode = curation.CollectEvidenceOnly
	}
	for _, id := range curation.CollectUuids(container, curation.ContainerKindAt(*path, container), mode) {
		fmt.Fprintln(c.out, id)
	}
	return nil
}

func (c *CLI) geneType(args []string) error {
	fs := c.newFlagSet("gene-type")
	snapshot := fs.String("snapshot", "", "gene snapshot JSON file")
	if err := c.parse(fs, args, "snapshot"); err != nil {
		return err
	}

	gene, err := readSnapshot(*snapshot)
	if err != nil {
		return err
	}
	payload, err := service.CreateGeneTypePayload(gene)
	if err != nil {
		return err
	}
	return c.printJSON(payload)
}

func (c *CLI) classify(args []string) error {
	fs := c.newFlagSet("classify")
	snapshot := fs.String("snapshot", "", "gene snapshot JSON file")
	path := fs.String("path", "", "accepted document path")
	if err := c.parse(fs, args, "snapshot", "path"); err != nil {
		return err
	}

	gene, err := readSnapshot(*snapshot)
	if err != nil {
		return err
	}
	kind, ok, err := service.NewDefaultEvidenceSync(c.logger).Classify(gene, *path, nil)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, "unclassified")
		return nil
	}
	fmt.Fprintln(c.out, kind)
	return nil
}

func (c *CLI) validate(args []string) error {
	fs := c.newFlagSet("validate")
	configFile := fs.String("config", "", "config.yaml to validate")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	manager, err := config.NewManager(*configFile)
	if err != nil {
		return err
	}
	if err := manager.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg := manager.GetConfig()
	fmt.Fprintf(c.out, "Configuration valid (environment=%s, ledger=%s, backend=%s)\n",
		cfg.Environment, cfg.Ledger.Driver, cfg.Backend.BaseURL)
	return nil
}

func (c *CLI) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readSnapshot(path string) (domain.Node, error) {
	var gene domain.Node
	if err := readJSON(path, &gene); err != nil {
		return nil, err
	}
	if gene == nil {
		return nil, domain.NewValidationError("snapshot", "snapshot is empty", path)
	}
	return gene, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
