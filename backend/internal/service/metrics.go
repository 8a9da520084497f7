package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus 指标
var (
	generateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartflow_schedule_generate_total",
			Help: "排产生成次数，按结果分类",
		},
		[]string{"result"}, // success | conflict | error
	)
	generateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smartflow_schedule_generate_duration_seconds",
			Help:    "排产生成耗时（含读取与落库）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
	scheduledOrdersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smartflow_scheduled_orders_total",
			Help: "排入的订单总数",
		},
	)
	skippedOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartflow_skipped_orders_total",
			Help: "未能排入的订单数，按原因分类",
		},
		[]string{"reason"},
	)
	entryTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartflow_entry_transitions_total",
			Help: "条目状态流转次数",
		},
		[]string{"to", "result"},
	)
	summaryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartflow_weekly_summary_cache_total",
			Help: "周汇总缓存命中情况",
		},
		[]string{"result"}, // hit | miss
	)
)
