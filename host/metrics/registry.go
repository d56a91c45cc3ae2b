package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages Prometheus metric registration
type Registry struct {
	registry *prometheus.Registry
	metrics  *GPSDOMetrics
}

// NewRegistry creates a registry with the default "gpsdo" namespace
func NewRegistry() *Registry {
	return NewRegistryWithNamespace("gpsdo")
}

// NewRegistryWithNamespace creates a registry with a custom namespace
func NewRegistryWithNamespace(namespace string) *Registry {
	return &Registry{
		registry: prometheus.NewRegistry(),
		metrics:  NewGPSDOMetrics(namespace),
	}
}

// Register registers the GPSDO collector and Go runtime metrics
func (r *Registry) Register() error {
	if err := r.registry.Register(r.metrics); err != nil {
		return err
	}

	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return nil
}

// GetRegistry returns the underlying Prometheus registry
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// GetMetrics returns the GPSDO metrics
func (r *Registry) GetMetrics() *GPSDOMetrics {
	return r.metrics
}
