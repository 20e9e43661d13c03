package agent

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// stubAdapter - специалист с заранее заданным поведением
type stubAdapter struct {
	name     Name
	invoke   func(ctx context.Context, in Input) Result
	closeErr error
	closed   bool
}

func (s *stubAdapter) Name() Name { return s.name }

func (s *stubAdapter) Invoke(ctx context.Context, in Input) Result {
	return s.invoke(ctx, in)
}

func (s *stubAdapter) Close() error {
	s.closed = true
	return s.closeErr
}

func TestRegistry(t *testing.T) {
	web := &stubAdapter{name: WebIntelligence}
	bl := &stubAdapter{name: Backlink, closeErr: errors.New("busy")}

	r, err := NewRegistry(bl, web)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if got := r.Names(); !reflect.DeepEqual(got, []Name{WebIntelligence, Backlink}) {
		t.Errorf("Names() = %v", got)
	}
	if a, ok := r.Get(Backlink); !ok || a != bl {
		t.Errorf("Get(backlink) = %v, %v", a, ok)
	}
	if _, ok := r.Get(DataSynthesis); ok {
		t.Error("Get(data_synthesis) should be missing")
	}

	err = r.Close()
	if err == nil || !web.closed || !bl.closed {
		t.Errorf("Close() = %v, closed web=%v backlink=%v", err, web.closed, bl.closed)
	}
}

func TestRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		adapters []Adapter
	}{
		{"cultural", []Adapter{&stubAdapter{name: CulturalAdaptation}}},
		{"unknown", []Adapter{&stubAdapter{name: "fortune_teller"}}},
		{"duplicate", []Adapter{&stubAdapter{name: Backlink}, &stubAdapter{name: Backlink}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.adapters...); err == nil {
				t.Error("NewRegistry() expected error")
			}
		})
	}
}
