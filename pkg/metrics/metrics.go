package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label of digest runs.
const JobName = "paper_digest"

var (
	DatasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "paper_digest_dataset_records",
		Help: "Number of paper records loaded from the dataset in the last run",
	})
	PapersMatched = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "paper_digest_papers_matched",
		Help:    "Number of papers matched per recipient digest",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_digest_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_digest_mail_send_failure_total",
		Help: "Total number of failed mail sends by failure kind",
	}, []string{"host", "kind"})

	// Run outcome
	RecipientsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_digest_recipients_processed_total",
		Help: "Total number of recipients processed, by delivery outcome",
	}, []string{"outcome"})
	LastRunSuccessTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "paper_digest_last_success_timestamp_seconds",
		Help: "Unix time of the last run in which every recipient was delivered",
	})
)

var collectors = []prometheus.Collector{
	DatasetRecords,
	PapersMatched,
	MailSendSuccess,
	MailSendFailure,
	RecipientsProcessed,
	LastRunSuccessTimestamp,
}

func init() {
	for _, c := range collectors {
		prometheus.MustRegister(c)
	}
}

// Push sends the digest metrics to the Pushgateway at url, replacing the
// previous push of the same job. Go runtime metrics are not pushed.
func Push(url string) error {
	pusher := push.New(url, JobName)
	for _, c := range collectors {
		pusher = pusher.Collector(c)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
