package prom

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemLedger = "ledger"
)
const (
	MetricOperationsTotal    = "operations_total"
	MetricOperationDuration  = "operation_duration_seconds"
	MetricOutstandingCredit  = "outstanding_credit"
	MetricReconcileDriftsSum = "reconcile_drifts_total"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeGauge        = "gauge"
	TypeHistogramVec = "histogramVec"
)

var lock = &sync.RWMutex{}
var namespace = ""

var metricSystemEnabled = false

var registry = prometheus.NewRegistry()

var counters = make(map[string]prometheus.Counter)
var counterVecs = make(map[string]*prometheus.CounterVec)
var gauges = make(map[string]prometheus.Gauge)
var histogramVecs = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create resets the registry and registers the ledger metrics. Until it is
// called every recording function is a no-op.
func Create(host string, env string, nameSpace string) error {
	lock.Lock()
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	registry = prometheus.NewRegistry()
	counters = make(map[string]prometheus.Counter)
	counterVecs = make(map[string]*prometheus.CounterVec)
	gauges = make(map[string]prometheus.Gauge)
	histogramVecs = make(map[string]*prometheus.HistogramVec)
	lock.Unlock()

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(CreateMetric(TypeCounterVec, SystemLedger, MetricOperationsTotal, "operation", "result"))
	hasError(CreateMetric(TypeHistogramVec, SystemLedger, MetricOperationDuration, "operation"))
	hasError(CreateMetric(TypeGauge, SystemLedger, MetricOutstandingCredit))
	hasError(CreateMetric(TypeCounter, SystemLedger, MetricReconcileDriftsSum))

	lock.Lock()
	metricSystemEnabled = err == nil
	lock.Unlock()
	return err
}

// Disable turns every recording function back into a no-op.
func Disable() {
	lock.Lock()
	metricSystemEnabled = false
	lock.Unlock()
}

func Registry() prometheus.Gatherer {
	lock.RLock()
	defer lock.RUnlock()
	return registry
}

func CreateMetric(metricType, metricSubsystem, metricName string, labels ...string) error {
	lock.Lock()
	defer lock.Unlock()

	key := metricSubsystem + metricName
	var c prometheus.Collector
	switch metricType {
	case TypeCounter:
		m := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   metricSubsystem,
			Name:        metricName,
			ConstLabels: defaultLabels,
		})
		counters[key], c = m, m
	case TypeCounterVec:
		m := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   metricSubsystem,
			Name:        metricName,
			ConstLabels: defaultLabels,
		}, labels)
		counterVecs[key], c = m, m
	case TypeGauge:
		m := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   metricSubsystem,
			Name:        metricName,
			ConstLabels: defaultLabels,
		})
		gauges[key], c = m, m
	case TypeHistogramVec:
		m := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   metricSubsystem,
			Name:        metricName,
			ConstLabels: defaultLabels,
			Buckets:     prometheus.DefBuckets,
		}, labels)
		histogramVecs[key], c = m, m
	default:
		return fmt.Errorf("metric type %s is not defined", metricType)
	}
	return registry.Register(c)
}

// Handler serves the registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func AddCounter(subsystem, name string, number float64) {
	lock.RLock()
	defer lock.RUnlock()
	if !metricSystemEnabled {
		return
	}
	if v, ok := counters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	lock.RLock()
	defer lock.RUnlock()
	if !metricSystemEnabled {
		return
	}
	if v, ok := counterVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Inc()
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func SetGauge(subsystem, name string, value float64) {
	lock.RLock()
	defer lock.RUnlock()
	if !metricSystemEnabled {
		return
	}
	if v, ok := gauges[subsystem+name]; ok {
		v.Set(value)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	lock.RLock()
	defer lock.RUnlock()
	if !metricSystemEnabled {
		return
	}
	if v, ok := histogramVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

// ObserveOperation records one ledger operation that started at start.
func ObserveOperation(operation string, start time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	IncCounterVec(SystemLedger, MetricOperationsTotal, operation, result)
	AddHistogramVec(SystemLedger, MetricOperationDuration, time.Since(start).Seconds(), operation)
}

func SetOutstandingCredit(total int64) {
	SetGauge(SystemLedger, MetricOutstandingCredit, float64(total))
}

func AddReconcileDrifts(n int) {
	AddCounter(SystemLedger, MetricReconcileDriftsSum, float64(n))
}
