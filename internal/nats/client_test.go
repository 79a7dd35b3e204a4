package nats

import (
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/alphabot/alphabot-client/pkg/logger"
)

func TestConnectOptions(t *testing.T) {
	opts, err := connectOptions(Config{Name: "alphabot-client", Token: "s3cret"}, logger.NewNop())
	if err != nil {
		t.Fatalf("connectOptions() error = %v", err)
	}

	o := nats.GetDefaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			t.Fatalf("apply option: %v", err)
		}
	}
	if o.Name != "alphabot-client" {
		t.Errorf("Name = %q", o.Name)
	}
	if o.Token != "s3cret" {
		t.Errorf("Token = %q", o.Token)
	}
	if o.MaxReconnect != -1 {
		t.Errorf("MaxReconnect = %d, want -1", o.MaxReconnect)
	}
	if o.ReconnectWait != reconnectWait {
		t.Errorf("ReconnectWait = %v", o.ReconnectWait)
	}
	if o.Secure {
		t.Error("Secure set without TLS files")
	}
}

func TestConnectOptions_PartialClientCert(t *testing.T) {
	for _, cfg := range []Config{
		{CertFile: "client.pem"},
		{KeyFile: "client-key.pem"},
	} {
		if _, err := connectOptions(cfg, logger.NewNop()); err == nil {
			t.Errorf("connectOptions(%+v) succeeded, want error", cfg)
		}
	}
}
