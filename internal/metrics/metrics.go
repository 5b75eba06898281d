// Package metrics exposes Prometheus counters for the query and
// ingestion pipelines. Counters register against the default registry;
// the CLI decides whether to serve or dump them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesServed counts finished queries by kind and outcome.
	QueriesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jane_queries_total",
		Help: "Queries served, labelled by kind and status code.",
	}, []string{"kind", "status"})

	// DocumentsSkipped counts documents dropped from a result because
	// they failed to parse.
	DocumentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jane_documents_skipped_total",
		Help: "Documents skipped during queries because they were unparseable.",
	})

	// RecordsIndexed counts index records written during ingestion.
	RecordsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jane_index_records_total",
		Help: "Index records written by the ingestion pipeline.",
	})

	// DocumentsIngested counts accepted uploads by document type.
	DocumentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jane_documents_ingested_total",
		Help: "Documents accepted by the ingestion pipeline, by type.",
	}, []string{"type"})

	// JobsSubmitted counts submitted asynchronous jobs by kind.
	JobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jane_jobs_submitted_total",
		Help: "Asynchronous query jobs submitted, by kind.",
	}, []string{"kind"})
)
