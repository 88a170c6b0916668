package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload and download pipeline metrics.
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedrop_uploads_total",
			Help: "Upload attempts by outcome",
		},
		[]string{"result"},
	)

	UploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedrop_uploaded_bytes_total",
			Help: "Bytes committed to the artifact store",
		},
	)

	OrphanedArtifacts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedrop_orphaned_artifacts_total",
			Help: "Artifacts stored whose catalog insert failed",
		},
	)

	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedrop_downloads_total",
			Help: "Retrieval attempts by outcome",
		},
		[]string{"result"},
	)
)
