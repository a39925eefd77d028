package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSNNative(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch.local",
		Port:        9000,
		Database:    "quantiq",
		User:        "svc",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 60 * time.Second,
	})
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse dsn %q: %v", dsn, err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/quantiq" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not preserved: %q", dsn)
	}
	if u.Query().Get("dial_timeout") != "5s" || u.Query().Get("max_execution_time") != "60" {
		t.Fatalf("unexpected query %q", u.RawQuery)
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "default", User: "default", UseHTTP: true})
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Scheme != "http" || u.RawQuery != "" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatalf("expected error without host")
	}
}
