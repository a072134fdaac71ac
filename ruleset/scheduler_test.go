package ruleset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/liamcoop/linkrules/facts"
	"github.com/liamcoop/linkrules/rules"
)

func referenceProvider(context.Context) (rules.FactSource, error) {
	return facts.Reference(), nil
}

func TestSchedulerRunOnce(t *testing.T) {
	out := &syncBuffer{}
	m, _, _ := newTestManager(t, referenceDefinition, out)
	s := NewScheduler(m, referenceProvider)

	run, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() failed: %v", err)
	}
	if run.Fired() != 2 {
		t.Errorf("Fired() = %d, want 2", run.Fired())
	}
}

func TestSchedulerRunOnceProviderError(t *testing.T) {
	m, _, _ := newTestManager(t, referenceDefinition, &syncBuffer{})
	boom := errors.New("connection refused")
	s := NewScheduler(m, func(context.Context) (rules.FactSource, error) { return nil, boom })

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("RunOnce() error = %v, want %v", err, boom)
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	m, _, _ := newTestManager(t, referenceDefinition, &syncBuffer{})
	s := NewScheduler(m, referenceProvider)

	if err := s.Start(context.Background(), "every now and then"); err == nil {
		t.Error("Start() should reject an invalid schedule")
	}
	if s.Running() {
		t.Error("scheduler should not be running after a failed start")
	}
}

func TestSchedulerRunsOnSchedule(t *testing.T) {
	out := &syncBuffer{}
	m, _, _ := newTestManager(t, referenceDefinition, out)
	s := NewScheduler(m, referenceProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, "@every 1s"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := s.Start(ctx, "@every 1s"); err == nil {
		t.Error("second Start() should fail while running")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "found bad backlink") {
		if time.Now().After(deadline) {
			t.Fatal("scheduled run did not happen")
		}
		time.Sleep(50 * time.Millisecond)
	}

	s.Stop()
	if s.Running() {
		t.Error("scheduler should be stopped")
	}
}
