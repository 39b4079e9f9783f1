package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RedisPoolCollector exports go-redis connection pool counters at scrape time.
type RedisPoolCollector struct {
	stats func() *redis.PoolStats

	hits     *prometheus.Desc
	misses   *prometheus.Desc
	timeouts *prometheus.Desc
	total    *prometheus.Desc
	idle     *prometheus.Desc
}

// NewRedisPoolCollector wraps a stats source such as (*redis.Client).PoolStats.
func NewRedisPoolCollector(stats func() *redis.PoolStats) *RedisPoolCollector {
	return &RedisPoolCollector{
		stats:    stats,
		hits:     prometheus.NewDesc("storefront_redis_pool_hits_total", "Connections reused from the pool.", nil, nil),
		misses:   prometheus.NewDesc("storefront_redis_pool_misses_total", "Connections dialed because the pool was empty.", nil, nil),
		timeouts: prometheus.NewDesc("storefront_redis_pool_timeouts_total", "Waits for a pooled connection that timed out.", nil, nil),
		total:    prometheus.NewDesc("storefront_redis_pool_connections", "Open connections.", nil, nil),
		idle:     prometheus.NewDesc("storefront_redis_pool_idle_connections", "Idle connections.", nil, nil),
	}
}

func (c *RedisPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.timeouts
	ch <- c.total
	ch <- c.idle
}

func (c *RedisPoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stats == nil {
		return
	}
	s := c.stats()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns))
}
