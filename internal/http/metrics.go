package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/dropDatabas3/incidentauth/internal/http/middlewares"
)

// Metrics agrupa las métricas HTTP y los contadores de resultado de auth.
// Implementa services/auth.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	loginTotal     *prometheus.CounterVec
	otpVerifyTotal *prometheus.CounterVec
	refreshTotal   *prometheus.CounterVec
	otpLockouts    prometheus.Counter
}

// NewMetrics crea y registra las métricas en un registry propio.
// reg nil crea uno nuevo (tests).
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Resultados de login paso 1",
		}, []string{"result"}),
		otpVerifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_otp_verify_total",
			Help: "Resultados de verificación de OTP",
		}, []string{"result"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Resultados de rotación de refresh token",
		}, []string{"result"}),
		otpLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_otp_lockouts_total",
			Help: "Challenges bloqueados por exceso de intentos",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.loginTotal, m.otpVerifyTotal, m.refreshTotal, m.otpLockouts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Handler expone /metrics para el registry propio.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LoginResult(result string)     { m.loginTotal.WithLabelValues(result).Inc() }
func (m *Metrics) OTPVerifyResult(result string) { m.otpVerifyTotal.WithLabelValues(result).Inc() }
func (m *Metrics) RefreshResult(result string)   { m.refreshTotal.WithLabelValues(result).Inc() }
func (m *Metrics) OTPLockout()                   { m.otpLockouts.Inc() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Middleware instrumenta requests (contador, latencia, inflight). El label
// path es el patrón de chi para no explotar cardinalidad con rutas desconocidas.
func (m *Metrics) Middleware() mw.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			m.httpInflight.Inc()
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				m.httpInflight.Dec()
				path := routePattern(r)
				m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

				status := rec.status
				if status == 0 {
					status = http.StatusOK
				}
				m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
