package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the contract analysis HTTP API",
	Long: `Serve exposes analysis over HTTP:
  GET  /health                   liveness check
  POST /api/contract/analyze     analyze and highlight a contract
  POST /api/contract/highlight   highlight with an existing analysis
  POST /api/contract/check       run the PII and profanity guardrails
  POST /api/extract-pdf          extract text from an uploaded PDF

Example:
  clauselens serve
  clauselens serve --addr :9090
  CLAUSELENS_SERVER_ALLOWED_ORIGINS=https://app.example.com clauselens serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	if !p.AnalysisEnabled() {
		fmt.Fprintf(os.Stderr, "Warning: no LLM provider available; /api/contract/analyze will return 503\n")
	}

	return server.Serve(ctx, p, cfg.Server)
}
