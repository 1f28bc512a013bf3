package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/paper-digest/pkg/batch"
	"github.com/telekom/paper-digest/pkg/mail"
	"github.com/telekom/paper-digest/pkg/metrics"
	"github.com/telekom/paper-digest/pkg/paper"
	"github.com/telekom/paper-digest/pkg/recipients"
)

// runDigest performs one digest round. Configuration problems are returned as
// errors before anything is sent; delivery problems only affect the exit code.
func runDigest(rt *runtimeState, newSender func(mail.SMTPConfig, *zap.SugaredLogger) mail.Sender) (int, error) {
	log := rt.log.With("run", uuid.NewString())
	cfg := &rt.cfg
	cfg.Print(log)

	if err := cfg.ValidateInput(); err != nil {
		log.Errorw("Invalid arguments", "error", err)
		return 1, err
	}

	specs, source, err := recipients.Resolve(cfg.RecipientSources(), log.Named("recipients"))
	if err != nil {
		log.Errorw("Could not resolve recipients", "source", source, "error", err)
		return 1, err
	}

	if err := cfg.ValidateCredentials(); err != nil {
		log.Errorw("Missing SMTP credentials", "error", err)
		return 1, err
	}

	log.Infow("Loading papers", "path", cfg.DataPath)
	records, err := paper.Load(cfg.DataPath)
	if err != nil {
		log.Errorw("Could not load dataset", "path", cfg.DataPath, "error", err)
		return 1, err
	}
	metrics.DatasetRecords.Set(float64(len(records)))
	log.Infow("Loaded papers", "count", len(records))

	sender := newSender(cfg.SMTP, log)
	summary := batch.NewRunner(sender, cfg.Date, log).Run(records, specs)

	if cfg.MetricsPushgateway != "" {
		if err := metrics.Push(cfg.MetricsPushgateway); err != nil {
			log.Warnw("Failed to push metrics", "error", err)
		}
	}

	fmt.Fprintf(rt.Writer(), "Digest %s: %d delivered, %d failed\n",
		summary.Status(), summary.Succeeded, summary.Failed)
	for _, res := range summary.Results {
		state := "ok"
		if !res.OK {
			state = "failed (" + res.Kind.String() + ")"
		}
		fmt.Fprintf(rt.Writer(), "  %s: %d papers, %s\n", res.Email, res.Matched, state)
	}

	return summary.ExitCode(), nil
}
