// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
// SPDX-License-Identifier: Apache-2.0

// Package batch runs one digest round: for every recipient it filters the
// dataset, renders the digest and hands it to the mail sender. Recipients are
// processed one after another and a failing recipient never stops the round.
package batch

import (
	"time"

	"go.uber.org/zap"

	"github.com/telekom/paper-digest/pkg/digest"
	"github.com/telekom/paper-digest/pkg/filter"
	"github.com/telekom/paper-digest/pkg/mail"
	"github.com/telekom/paper-digest/pkg/metrics"
	"github.com/telekom/paper-digest/pkg/paper"
	"github.com/telekom/paper-digest/pkg/recipients"
)

// Status is the overall outcome of a run.
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	default:
		return "failed"
	}
}

// Result is the outcome for a single recipient.
type Result struct {
	Email   string
	Matched int
	OK      bool
	Kind    mail.ErrorKind
}

// Summary aggregates the results of a run.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
}

// Status reports success only when every recipient was delivered. A run
// without recipients counts as failed.
func (s Summary) Status() Status {
	switch {
	case s.Succeeded > 0 && s.Failed == 0:
		return StatusSuccess
	case s.Succeeded > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// ExitCode maps the status to the process exit code.
func (s Summary) ExitCode() int {
	if s.Status() == StatusSuccess {
		return 0
	}
	return 1
}

type Runner struct {
	Sender mail.Sender
	Log    *zap.SugaredLogger
	// Date is shown in the subject and header of every digest.
	Date string
}

func NewRunner(sender mail.Sender, date string, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}
	return &Runner{
		Sender: sender,
		Log:    log.Named("batch"),
		Date:   date,
	}
}

// Run delivers one digest per recipient from the already loaded records.
func (r *Runner) Run(records []paper.Record, specs []recipients.Spec) Summary {
	summary := Summary{Results: make([]Result, 0, len(specs))}

	for i, spec := range specs {
		log := r.Log.With("recipient", spec.Email, "index", i+1, "total", len(specs))
		res := r.deliver(spec, records, log)
		summary.Results = append(summary.Results, res)
		if res.OK {
			summary.Succeeded++
			metrics.RecipientsProcessed.WithLabelValues("success").Inc()
		} else {
			summary.Failed++
			metrics.RecipientsProcessed.WithLabelValues("failure").Inc()
		}
	}

	status := summary.Status()
	if status == StatusSuccess {
		metrics.LastRunSuccessTimestamp.SetToCurrentTime()
	}
	r.Log.Infow("Digest run finished",
		"status", status.String(),
		"recipients", len(specs),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return summary
}

func (r *Runner) deliver(spec recipients.Spec, records []paper.Record, log *zap.SugaredLogger) Result {
	matched := filter.Filter(records, spec.Keywords)
	metrics.PapersMatched.Observe(float64(len(matched)))
	log.Infow("Filtered papers", "keywords", []string(spec.Keywords), "matched", len(matched))

	res := Result{Email: spec.Email, Matched: len(matched)}

	body, err := digest.Render(digest.Params{
		Date:     r.Date,
		Keywords: spec.Keywords,
		Papers:   matched,
	})
	if err != nil {
		log.Errorw("Failed to render digest", "error", err)
		res.Kind = mail.KindOther
		return res
	}

	sent := r.Sender.Send(mail.Message{
		To:      spec.Email,
		Subject: digest.Subject(len(matched), r.Date),
		HTML:    body,
		Text:    digest.PlainTextFallback,
	})
	res.OK = sent.OK
	res.Kind = sent.Kind
	if sent.OK {
		log.Infow("Digest delivered", "matched", len(matched))
	} else {
		log.Warnw("Digest delivery failed, continuing with next recipient", "kind", sent.Kind.String())
	}
	return res
}
