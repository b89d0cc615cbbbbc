package mysql

import (
	"testing"

	driver "github.com/go-sql-driver/mysql"
)

func TestNormalizeDSN_ForcesParseTime(t *testing.T) {
	cases := []string{
		"root:root@tcp(localhost:3306)/reviews",
		"root:root@tcp(localhost:3306)/reviews?parseTime=false&charset=utf8mb4",
	}
	for _, in := range cases {
		out, err := NormalizeDSN(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		cfg, err := driver.ParseDSN(out)
		if err != nil {
			t.Fatalf("reparse %s: %v", out, err)
		}
		if !cfg.ParseTime || cfg.DBName != "reviews" || cfg.Addr != "localhost:3306" {
			t.Fatalf("%s -> %s: unexpected config %+v", in, out, cfg)
		}
	}
}

func TestNormalizeDSN_RejectsGarbage(t *testing.T) {
	if _, err := NormalizeDSN("not a dsn"); err == nil {
		t.Fatalf("expected an error for a malformed DSN")
	}
}
