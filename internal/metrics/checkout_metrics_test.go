package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewCheckoutMetrics(t *testing.T) {
	m := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	if m == nil {
		t.Fatal("NewCheckoutMetricsWithRegisterer should not return nil")
	}
	if m.sessionsStarted == nil {
		t.Error("sessionsStarted counter should not be nil")
	}
	if m.ordersPlaced == nil {
		t.Error("ordersPlaced counter should not be nil")
	}
	if m.placementFailed == nil {
		t.Error("placementFailed counter should not be nil")
	}
	if m.placementDuration == nil {
		t.Error("placementDuration histogram should not be nil")
	}
	if m.stepTransitions == nil {
		t.Error("stepTransitions counter vec should not be nil")
	}
	if m.cartMutations == nil {
		t.Error("cartMutations counter vec should not be nil")
	}
	if m.activeSessions == nil {
		t.Error("activeSessions gauge should not be nil")
	}
}

func TestNewCheckoutMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewCheckoutMetricsWithRegisterer(reg)
	second := NewCheckoutMetricsWithRegisterer(reg)

	// Повторная регистрация должна вернуть уже существующие коллекторы.
	if first.sessionsStarted != second.sessionsStarted {
		t.Error("second registration must reuse existing counter")
	}
}

func TestRecordSessionLifecycle(t *testing.T) {
	m := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordSessionStarted()
	m.RecordSessionStarted()
	m.RecordSessionFinished()

	metric := &dto.Metric{}
	if err := m.sessionsStarted.Write(metric); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("sessionsStarted = %f, want 2.0", metric.Counter.GetValue())
	}

	gauge := &dto.Metric{}
	if err := m.activeSessions.Write(gauge); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if gauge.Gauge.GetValue() != 1.0 {
		t.Errorf("activeSessions = %f, want 1.0", gauge.Gauge.GetValue())
	}

	// Сессии, удалённые воркером очистки, тоже уменьшают gauge.
	m.RecordSessionsReaped(1)
	m.RecordSessionsReaped(0)

	gauge = &dto.Metric{}
	if err := m.activeSessions.Write(gauge); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if gauge.Gauge.GetValue() != 0.0 {
		t.Errorf("activeSessions after reap = %f, want 0.0", gauge.Gauge.GetValue())
	}
}

func TestRecordPlacement(t *testing.T) {
	m := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOrderPlaced()
	m.RecordPlacementFailed()
	m.RecordPlacementRetried()
	m.RecordPlacementDuration(120 * time.Millisecond)
	m.RecordStepTransition("payment")
	m.RecordCartMutation("add")

	metric := &dto.Metric{}
	if err := m.ordersPlaced.Write(metric); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("ordersPlaced = %f, want 1.0", metric.Counter.GetValue())
	}

	stepMetric := &dto.Metric{}
	if err := m.stepTransitions.WithLabelValues("payment").Write(stepMetric); err != nil {
		t.Fatalf("write counter vec: %v", err)
	}
	if stepMetric.Counter.GetValue() != 1.0 {
		t.Errorf("stepTransitions{payment} = %f, want 1.0", stepMetric.Counter.GetValue())
	}
}
