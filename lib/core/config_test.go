package core

import (
	"testing"
	"time"
)

func TestStoreConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{"defaults ok", nil, false},
		{"valid timeouts", []Option{WithTimeOut(10 * time.Second), WithLockTimeOut(5 * time.Second)}, false},
		{"timeOut equals 2x lockTimeOut is ok", []Option{WithTimeOut(4 * time.Second), WithLockTimeOut(2 * time.Second)}, false},
		{"timeOut below 2x lockTimeOut", []Option{WithTimeOut(3 * time.Second), WithLockTimeOut(2 * time.Second)}, true},
		{"negative timeOut", []Option{WithTimeOut(-1 * time.Second)}, true},
		{"negative lockTimeOut", []Option{WithLockTimeOut(-1 * time.Second)}, true},
		{"zero numProps", []Option{WithNumProps(0)}, true},
		{"negative numProps", []Option{WithNumProps(-3)}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := defaultStoreConfig()
			for _, opt := range c.opts {
				opt(&cfg)
			}
			err := cfg.validate()
			if c.wantErr && err == nil {
				t.Fatalf("expected validation error, got none")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("expected no validation error, got %v", err)
			}
		})
	}
}

func TestNewTransientStoreRejectsInvalidConfigWithoutPartialStore(t *testing.T) {
	store, err := NewTransientStore(WithTimeOut(time.Second), WithLockTimeOut(time.Second))
	if err == nil {
		t.Fatalf("expected an error for timeOut < 2*lockTimeOut")
	}
	if store != nil {
		t.Fatalf("expected no store to be returned alongside a validation error")
	}
}
