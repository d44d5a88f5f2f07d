package prom

import (
	"strconv"
	"sync"
	"time"

	xhttp "github.com/nimasrn/momo-ledger/pkg/http"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemHTTP         = "http"
	SystemTransactions = "transactions"
	SystemEvents       = "events"
)
const (
	MetricRequestsTotal   = "requests_total"
	MetricRequestDuration = "request_duration_seconds"
	MetricMutationsTotal  = "mutations_total"
	MetricStored          = "stored"
	MetricPublishedTotal  = "published_total"
	MetricConsumedTotal   = "consumed_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var registry = prometheus.NewRegistry()

var MetricCollectionGauges = make(map[string]prometheus.Gauge)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create builds a fresh registry with every metric the service exposes and
// enables recording. Before Create is called all recording calls are no-ops.
func Create(host string, env string, nameSpace string) error {
	lockCreateMetricLock.Lock()
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	registry = prometheus.NewRegistry()
	MetricCollectionGauges = make(map[string]prometheus.Gauge)
	MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
	MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)
	lockCreateMetricLock.Unlock()

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(registry.Register(collectors.NewGoCollector()))
	hasError(registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})))

	// HTTP
	hasError(createCounterVec(SystemHTTP, MetricRequestsTotal, []string{"method", "status"}))
	hasError(createHistogramVec(SystemHTTP, MetricRequestDuration, []string{"method"}))

	// Transactions
	hasError(createCounterVec(SystemTransactions, MetricMutationsTotal, []string{"action"}))
	hasError(createGauge(SystemTransactions, MetricStored))

	// Events
	hasError(createCounterVec(SystemEvents, MetricPublishedTotal, []string{"status"}))
	hasError(createCounterVec(SystemEvents, MetricConsumedTotal, []string{"action"}))

	MetricSystemEnabled = err == nil
	return err
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url, "addr", port)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

// Middleware records request count and latency per method.
func Middleware(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		method := string(ctx.Method())
		IncCounterVec(SystemHTTP, MetricRequestsTotal, method, strconv.Itoa(ctx.Response.StatusCode()))
		AddHistogramVec(SystemHTTP, MetricRequestDuration, time.Since(start).Seconds(), method)
	}
}

func createGauge(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionGauges[subsystem+name] = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	})
	return registry.Register(MetricCollectionGauges[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return registry.Register(MetricCollectionHistogramVec[subsystem+name])
}

func SetGauge(subsystem, name string, value float64) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionGauges[subsystem+name]; ok {
		v.Set(value)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncTransactionMutation(action string) {
	IncCounterVec(SystemTransactions, MetricMutationsTotal, action)
}

func SetTransactionsStored(n int) {
	SetGauge(SystemTransactions, MetricStored, float64(n))
}

func IncEventPublished(status string) {
	IncCounterVec(SystemEvents, MetricPublishedTotal, status)
}

func IncEventConsumed(action string) {
	IncCounterVec(SystemEvents, MetricConsumedTotal, action)
}
