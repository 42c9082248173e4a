// Package metrics : Prometheus-метрики сессий, сниппетов и фоновой очистки
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LoginSuccess         = "success"
	LoginUserNotFound    = "user_not_found"
	LoginInvalidPassword = "invalid_password"
	LoginNotActive       = "not_active"
	LoginError           = "error"
)

// Recorder : то, что сервисы и воркер пишут в метрики
type Recorder interface {
	RecordLogin(outcome string)
	RecordRevocations(count int)
	RecordBlacklistFailure()
	RecordCompensation(succeeded bool)
	RecordInconsistency(operation string)
	RecordCleanup(target string, deleted int64)
}

type Collector struct {
	logins            *prometheus.CounterVec
	revocations       prometheus.Counter
	blacklistFailures prometheus.Counter
	compensations     *prometheus.CounterVec
	inconsistencies   *prometheus.CounterVec
	cleanupDeleted    *prometheus.CounterVec
}

// NewCollector : создаёт Collector и регистрирует метрики в reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snippets_logins_total",
			Help: "Попытки входа по результату",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snippets_token_revocations_total",
			Help: "Токены, добавленные в чёрный список",
		}),
		blacklistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snippets_blacklist_failures_total",
			Help: "Неудачные попытки занести токен в чёрный список при отзыве всех сессий",
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snippets_create_compensations_total",
			Help: "Удаления документа после неудачного создания сниппета",
		}, []string{"result"}),
		inconsistencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snippets_store_inconsistencies_total",
			Help: "Расхождения между БД и документным хранилищем по операции",
		}, []string{"operation"}),
		cleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snippets_cleanup_deleted_total",
			Help: "Строки, удалённые фоновой очисткой",
		}, []string{"target"}),
	}

	reg.MustRegister(
		c.logins,
		c.revocations,
		c.blacklistFailures,
		c.compensations,
		c.inconsistencies,
		c.cleanupDeleted,
	)

	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRevocations(count int) {
	c.revocations.Add(float64(count))
}

func (c *Collector) RecordBlacklistFailure() {
	c.blacklistFailures.Inc()
}

func (c *Collector) RecordCompensation(succeeded bool) {
	result := "ok"
	if !succeeded {
		result = "failed"
	}
	c.compensations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordInconsistency(operation string) {
	c.inconsistencies.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordCleanup(target string, deleted int64) {
	c.cleanupDeleted.WithLabelValues(target).Add(float64(deleted))
}

// Handler : HTTP-обработчик для скрейпа Prometheus
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopRecorder : ничего не записывает
type NopRecorder struct{}

func (NopRecorder) RecordLogin(string) {}
func (NopRecorder) RecordRevocations(int) {}
func (NopRecorder) RecordBlacklistFailure() {}
func (NopRecorder) RecordCompensation(bool) {}
func (NopRecorder) RecordInconsistency(string) {}
func (NopRecorder) RecordCleanup(string, int64) {}
